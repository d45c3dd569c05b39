package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobfinder/internal/export"
	"jobfinder/internal/model"
	"jobfinder/internal/pipeline"
)

var searchFlags struct {
	position   string
	location   string
	experience string
	salary     string
	jobNature  string
	skills     string
	sources    []string
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search from the command line",
	Long:  "Fetch, rank and save a single search without starting the API daemon.",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchFlags.position, "position", "p", "", "position to search for (required)")
	searchCmd.Flags().StringVarP(&searchFlags.location, "location", "l", "", "location to search in")
	searchCmd.Flags().StringVar(&searchFlags.experience, "experience", "", "desired experience level, e.g. \"2 years\"")
	searchCmd.Flags().StringVar(&searchFlags.salary, "salary", "", "expected salary")
	searchCmd.Flags().StringVar(&searchFlags.jobNature, "nature", "", "job nature: onsite, remote or hybrid")
	searchCmd.Flags().StringVar(&searchFlags.skills, "skills", "", "comma-separated skills")
	searchCmd.Flags().StringSliceVar(&searchFlags.sources, "sources", nil, "sources to search (default: all of indeed,linkedin,rozee)")
	_ = searchCmd.MarkFlagRequired("position")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	for _, src := range searchFlags.sources {
		if !model.KnownSource(src) {
			return fmt.Errorf("unknown source %q (valid: indeed, linkedin, rozee)", src)
		}
	}

	req := model.JobRequirement{
		Position:   searchFlags.position,
		Location:   searchFlags.location,
		Experience: searchFlags.experience,
		Salary:     searchFlags.salary,
		JobNature:  searchFlags.jobNature,
		Skills:     searchFlags.skills,
		Sources:    searchFlags.sources,
	}

	p, _ := buildPipeline(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := p.Search(ctx, req)
	if err == pipeline.ErrAnalyzerUnavailable {
		logger.Error("inference endpoint unreachable, aborting", "url", cfg.Ollama.APIURL)
		os.Exit(1)
	}
	if err != nil {
		return err
	}

	path, err := export.WriteArtifact(cfg.Output.Dir, req.Position, results, logger)
	if err != nil {
		logger.Error("saving artifact failed", "error", err)
	}

	if cfg.Output.CSV {
		writeSourceDumps(cfg.Output.Dir, req.Position, results, logger)
	}

	fmt.Printf("\n%d jobs ranked for %q\n\n", len(results), req.Position)
	for i, r := range results {
		fmt.Printf("%3d. [%5.1f] %s — %s (%s, %s)\n", i+1, r.RelevanceScore, r.JobTitle, r.Company, r.Location, r.Source)
	}
	if path != "" {
		fmt.Printf("\nsaved to %s\n", path)
	}
	return nil
}

// writeSourceDumps splits the ranked results back out per source and writes
// one CSV per source that produced anything.
func writeSourceDumps(dir, position string, results []model.JobResult, logger *slog.Logger) {
	bySource := make(map[string][]model.Job)
	for _, r := range results {
		bySource[r.Source] = append(bySource[r.Source], model.Job{
			Title:       r.JobTitle,
			Company:     r.Company,
			Experience:  r.Experience,
			Location:    r.Location,
			ApplyLink:   r.ApplyLink,
			Description: r.Description,
			Salary:      r.Salary,
			JobNature:   r.JobNature,
			Source:      r.Source,
		})
	}
	for _, source := range model.AllSources() {
		jobs := bySource[source]
		if len(jobs) == 0 {
			continue
		}
		if _, err := export.WriteSourceCSV(dir, source, position, jobs, logger); err != nil {
			logger.Error("csv dump failed", "source", source, "error", err)
		}
	}
}
