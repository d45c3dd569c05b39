package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"jobfinder/internal/adapter"
	"jobfinder/internal/ai"
	"jobfinder/internal/config"
	"jobfinder/internal/model"
	"jobfinder/internal/pipeline"
	"jobfinder/internal/ratelimit"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobfinder",
	Short: "Multi-source job search with LLM relevance ranking",
	Long:  "jobfinder aggregates listings from indeed, linkedin and rozee, ranks them against your requirements via a local LLM, and serves the result over HTTP or the terminal.",
	// Default to `serve` so that `jobfinder` with no args runs the API daemon.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBFINDER_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBFINDER_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBFINDER_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func buildAnalyzer(cfg *config.Config, logger *slog.Logger) *ai.Analyzer {
	provider := ai.NewOllamaProvider(
		cfg.Ollama.APIURL,
		cfg.Ollama.Model,
		ai.NewTimeoutClient(cfg.Ollama.ConnectTimeout, cfg.Ollama.Timeout),
		nil,
	)
	return ai.NewAnalyzer(provider, ai.Options{
		MaxAttempts: cfg.Analyzer.MaxAttempts,
		RetryDelay:  cfg.Analyzer.RetryDelay,
		Concurrency: cfg.Analyzer.Concurrency,
		BatchSize:   cfg.Analyzer.BatchSize,
		BatchDelay:  cfg.Analyzer.BatchDelay,
	}, logger)
}

func buildAdapters(cfg *config.Config, logger *slog.Logger) []model.SourceAdapter {
	client := &http.Client{Timeout: 30 * time.Second}
	limiter := ratelimit.NewHostLimiter(cfg.Scraper.RequestsPerSecond, cfg.Scraper.Burst)
	sessions := adapter.NewSessionFactory(client, limiter, logger)
	cities := adapter.LoadCityTable(cfg.Scraper.CityFile, logger)

	const (
		pageDelay = 2 * time.Second
		cardDelay = 1 * time.Second
	)

	return []model.SourceAdapter{
		adapter.NewIndeedAdapter(sessions, "", 0, pageDelay, cardDelay, logger),
		adapter.NewLinkedInAdapter(sessions, "", 0, pageDelay, cardDelay, logger),
		adapter.NewRozeeAdapter(sessions, cities, "", 0, pageDelay, cardDelay, logger),
	}
}

func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, *ai.Analyzer) {
	analyzer := buildAnalyzer(cfg, logger)
	p := pipeline.New(buildAdapters(cfg, logger), analyzer, pipeline.Options{
		MaxResults:  cfg.Scraper.MaxResults,
		SourceDelay: cfg.Scraper.SourceDelay,
	}, logger)
	return p, analyzer
}
