package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Init(root *cobra.Command) {
	viper.AutomaticEnv()
	_ = godotenv.Load()
	if root != nil {
		_ = viper.BindPFlags(root.PersistentFlags())
	}
	setDefaults()
}

func setDefaults() {
	viper.SetDefault(KeyBatchMode, true)
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyLinksFile, "./links.md")
	viper.SetDefault(KeyOutputFile, "./outputs/dataset.jsonl")
	viper.SetDefault(KeyShortChunksLog, "./outputs/short_chunks.log")
	viper.SetDefault(KeyStorePath, "./outputs/webtune.db")
	viper.SetDefault(KeyScraperRateLimit, 20)
	viper.SetDefault(KeyScraperTimeout, 180)
	viper.SetDefault(KeyTokenizerEncoding, "cl100k_base")
	viper.SetDefault(KeyMaxTokens, 3500)
	viper.SetDefault(KeyMinHeadingLevel, 2)
	viper.SetDefault(KeyMinChunkTokens, 50)
	viper.SetDefault(KeyListItemsPerChunk, 12)
	viper.SetDefault(KeyTableRowsPerChunk, 8)
	viper.SetDefault(KeyNestedGroups, 8)
	viper.SetDefault(KeyMinLongListItems, 25)
	viper.SetDefault(KeyMinLongTableRows, 15)
	viper.SetDefault(KeyMinNestedGroups, 5)
	viper.SetDefault(KeyMinNestedItems, 12)
	viper.SetDefault(KeyGenerationModel, "gemma3:27b")
	viper.SetDefault(KeyGenerationRetries, 1)
	viper.SetDefault(KeyGenerationTimeout, "2m")
	viper.SetDefault(KeyOllamaURL, "http://localhost:11434")
}

func TargetURL() string             { return viper.GetString(KeyTargetURL) }
func BatchMode() bool               { return viper.GetBool(KeyBatchMode) }
func LogLevel() string              { return viper.GetString(KeyLogLevel) }
func LinksFile() string             { return viper.GetString(KeyLinksFile) }
func OutputFile() string            { return viper.GetString(KeyOutputFile) }
func ShortChunksLog() string        { return viper.GetString(KeyShortChunksLog) }
func StorePath() string             { return viper.GetString(KeyStorePath) }
func CleanRulesFile() string        { return viper.GetString(KeyCleanRulesFile) }
func ScraperRateLimit() int         { return viper.GetInt(KeyScraperRateLimit) }
func ScraperTimeoutSeconds() int    { return viper.GetInt(KeyScraperTimeout) }
func TokenizerEncoding() string     { return viper.GetString(KeyTokenizerEncoding) }
func MaxTokens() int                { return viper.GetInt(KeyMaxTokens) }
func MinHeadingLevel() int          { return viper.GetInt(KeyMinHeadingLevel) }
func MinChunkTokens() int           { return viper.GetInt(KeyMinChunkTokens) }
func ListItemsPerChunk() int        { return viper.GetInt(KeyListItemsPerChunk) }
func TableRowsPerChunk() int        { return viper.GetInt(KeyTableRowsPerChunk) }
func NestedGroupsPerChunk() int     { return viper.GetInt(KeyNestedGroups) }
func MinLongListItems() int         { return viper.GetInt(KeyMinLongListItems) }
func MinLongTableRows() int         { return viper.GetInt(KeyMinLongTableRows) }
func MinNestedGroups() int          { return viper.GetInt(KeyMinNestedGroups) }
func MinNestedItems() int           { return viper.GetInt(KeyMinNestedItems) }
func GenerationModel() string       { return viper.GetString(KeyGenerationModel) }
func GenerationRetryLimit() int     { return viper.GetInt(KeyGenerationRetries) }
func GenerationCallTimeout() string { return viper.GetString(KeyGenerationTimeout) }
func OllamaURL() string             { return viper.GetString(KeyOllamaURL) }
func MetaPromptFile() string        { return viper.GetString(KeyMetaPromptFile) }
