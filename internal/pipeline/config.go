package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/avazquez/webtune/internal/chunker"
	"github.com/avazquez/webtune/internal/config"
	"github.com/avazquez/webtune/internal/generate"
)

// Config carries everything the pipeline and its components need.
type Config struct {
	TargetURL      string
	BatchMode      bool
	LinksFile      string
	OutputFile     string
	ShortChunksLog string
	StorePath      string
	CleanRulesFile string

	ScraperRateLimit int // URLs per minute in batch mode
	ScraperTimeout   time.Duration

	TokenizerEncoding string
	MinChunkTokens    int
	Chunking          chunker.Options

	Generation generate.Config
	RetryLimit int

	Debug bool
}

// LoadConfig assembles the pipeline configuration from the config accessors.
func LoadConfig() (Config, error) {
	cfg := Config{
		TargetURL:      config.TargetURL(),
		BatchMode:      config.BatchMode(),
		LinksFile:      config.LinksFile(),
		OutputFile:     config.OutputFile(),
		ShortChunksLog: config.ShortChunksLog(),
		StorePath:      config.StorePath(),
		CleanRulesFile: config.CleanRulesFile(),

		ScraperRateLimit: config.ScraperRateLimit(),
		ScraperTimeout:   time.Duration(config.ScraperTimeoutSeconds()) * time.Second,

		TokenizerEncoding: config.TokenizerEncoding(),
		MinChunkTokens:    config.MinChunkTokens(),
		Chunking: chunker.Options{
			MaxTokens: config.MaxTokens(),
			MinLevel:  config.MinHeadingLevel(),
			Structured: chunker.StructuredOptions{
				ItemsPerChunk:   config.ListItemsPerChunk(),
				RowsPerChunk:    config.TableRowsPerChunk(),
				GroupsPerChunk:  config.NestedGroupsPerChunk(),
				MinLongList:     config.MinLongListItems(),
				MinLongTable:    config.MinLongTableRows(),
				MinNestedGroups: config.MinNestedGroups(),
				MinNestedItems:  config.MinNestedItems(),
			},
		},

		Generation: generate.Config{
			ModelName:  config.GenerationModel(),
			OllamaURL:  config.OllamaURL(),
			PromptFile: config.MetaPromptFile(),
		},
		RetryLimit: config.GenerationRetryLimit(),

		Debug: strings.EqualFold(config.LogLevel(), "debug"),
	}

	timeout, err := parseDuration(config.GenerationCallTimeout(), 2*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid generation_call_timeout: %w", err)
	}
	cfg.Generation.CallTimeout = timeout

	if cfg.RetryLimit < 1 {
		cfg.RetryLimit = 1
	}
	if cfg.ScraperRateLimit < 1 {
		cfg.ScraperRateLimit = 1
	}
	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	return d, nil
}
