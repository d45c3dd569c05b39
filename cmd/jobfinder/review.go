package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jobfinder/internal/export"
	"jobfinder/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review [artifact]",
	Short: "Browse a saved search interactively",
	Long:  "Open a saved search artifact in a scrollable terminal browser. With no argument, pick from the artifacts in the output directory.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	if len(args) == 1 {
		return openArtifact(args[0])
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	paths, err := review.ListArtifacts(cfg.Output.Dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no saved searches in %s — run a search first", cfg.Output.Dir)
	}

	// Picker loop: esc in the browser returns to the picker, q quits outright.
	for {
		idx, err := review.RunArtifactPicker(paths)
		if err != nil {
			return err
		}
		if idx < 0 {
			return nil
		}

		results, err := export.ReadArtifact(paths[idx])
		if err != nil {
			return err
		}
		wantQuit, err := review.Run(filepath.Base(paths[idx]), results)
		if err != nil {
			return err
		}
		if wantQuit {
			return nil
		}
	}
}

func openArtifact(path string) error {
	results, err := export.ReadArtifact(path)
	if err != nil {
		return err
	}
	_, err = review.Run(filepath.Base(path), results)
	return err
}
