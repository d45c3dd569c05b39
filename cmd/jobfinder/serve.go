package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobfinder/internal/export"
	"jobfinder/internal/httpapi"
	"jobfinder/internal/model"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API daemon",
	Long:  "Serve POST /search-jobs/, GET /test-ollama/ and GET /health; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"listen_addr", cfg.Server.ListenAddr,
		"ollama_url", cfg.Ollama.APIURL,
		"model", cfg.Ollama.Model,
		"max_results", cfg.Scraper.MaxResults,
	)

	p, analyzer := buildPipeline(cfg, logger)

	api := httpapi.NewServer(p, analyzer, logger)
	api.SaveArtifact = func(position string, results []model.JobResult) (string, error) {
		return export.WriteArtifact(cfg.Output.Dir, position, results, logger)
	}

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: api.Routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", cfg.Server.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}

	logger.Info("goodbye")
	return nil
}
