package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avazquez/webtune/internal/chunker"
	"github.com/avazquez/webtune/internal/clean"
	"github.com/avazquez/webtune/internal/config"
	"github.com/avazquez/webtune/internal/dataset"
	"github.com/avazquez/webtune/internal/generate"
	"github.com/avazquez/webtune/internal/logging"
	"github.com/avazquez/webtune/internal/pipeline"
	"github.com/avazquez/webtune/internal/scrape"
	"github.com/avazquez/webtune/internal/store"
	"github.com/avazquez/webtune/internal/tokenizer"
)

var rootCmd = &cobra.Command{
	Use:   "webtune",
	Short: "Web guide scraping and dataset generation",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the links file (or the target URL when batch mode is off)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipeline.LoadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		p, st, err := buildPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		var total int
		if cfg.BatchMode {
			total, err = p.RunBatch(ctx)
		} else {
			total, err = p.RunSingle(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Printf("done: %d records written to %s\n", total, cfg.OutputFile)
		return nil
	},
}

var urlCmd = &cobra.Command{
	Use:   "url [url]",
	Short: "Process a single URL without marking it in the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipeline.LoadConfig()
		if err != nil {
			return err
		}
		cfg.TargetURL = args[0]

		ctx, cancel := signalContext()
		defer cancel()

		p, st, err := buildPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		done, err := st.HasURL(ctx, cfg.TargetURL)
		if err != nil {
			return err
		}
		if done {
			fmt.Printf("note: %s was already processed in a previous run\n", cfg.TargetURL)
		}

		total, err := p.RunSingle(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("done: %d records written to %s\n", total, cfg.OutputFile)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show processed URL and run totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipeline.LoadConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()
		st, err := store.Open(ctx, store.Config{Path: cfg.StorePath, Debug: cfg.Debug})
		if err != nil {
			return err
		}
		defer st.Close()

		sum, err := st.Summary(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("processed urls: %d\n", sum.URLs)
		fmt.Printf("records:        %d\n", sum.Records)
		fmt.Printf("runs:           %d\n", sum.Runs)
		if sum.LastRunAt != nil {
			fmt.Printf("last run:       %s (%d urls, %d records)\n",
				sum.LastRunAt.Format("2006-01-02 15:04:05"), sum.LastURLs, sum.LastCount)
		}
		return nil
	},
}

// buildPipeline wires the real components behind the pipeline interfaces.
func buildPipeline(ctx context.Context, cfg pipeline.Config) (*pipeline.Pipeline, *store.Store, error) {
	log := logging.New(logging.DefaultLogger(config.LogLevel()))

	for _, path := range []string{cfg.OutputFile, cfg.ShortChunksLog, cfg.StorePath} {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create output dir %s: %w", dir, err)
			}
		}
	}

	codec, err := tokenizer.New(cfg.TokenizerEncoding)
	if err != nil {
		return nil, nil, err
	}

	cleaner := clean.NewRegistry(log)
	if cfg.CleanRulesFile != "" {
		rules, err := clean.LoadRules(cfg.CleanRulesFile)
		if err != nil {
			return nil, nil, err
		}
		cleaner.WithRules(rules)
	}

	gen, err := generate.New(cfg.Generation, log)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(ctx, store.Config{Path: cfg.StorePath, Debug: cfg.Debug})
	if err != nil {
		return nil, nil, err
	}

	deps := pipeline.Deps{
		Scraper:   scrape.New(cfg.ScraperTimeout, log),
		Cleaner:   cleaner,
		Chunker:   chunker.New(codec, cfg.Chunking, log),
		Generator: gen,
		Writer:    dataset.NewWriter(cfg.OutputFile, cfg.ShortChunksLog, codec, log),
		Tracker:   st,
	}
	return pipeline.New(cfg, deps, log), st, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigs; cancel() }()
	return ctx, cancel
}

func main() {
	rootCmd.PersistentFlags().String(config.KeyTargetURL, "", "single URL to process when batch mode is off")
	rootCmd.PersistentFlags().Bool(config.KeyBatchMode, true, "process every pending link from the links file")
	rootCmd.PersistentFlags().String(config.KeyLinksFile, "./links.md", "markdown file with guide links")
	rootCmd.PersistentFlags().String(config.KeyOutputFile, "./outputs/dataset.jsonl", "dataset output path")
	rootCmd.PersistentFlags().String(config.KeyLogLevel, "info", "log level (info, debug)")

	config.Init(rootCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(urlCmd)
	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("webtune: %v", err)
	}
}
