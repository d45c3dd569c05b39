// Package export persists search results as timestamped artifacts: one JSON
// file per search plus optional per-source CSV dumps.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jobfinder/internal/model"
)

// Artifact is the on-disk shape of a saved search.
type Artifact struct {
	RelevantJobs []model.JobResult `json:"relevant_jobs"`
}

const timestampLayout = "20060102_150405"

// sanitizePosition makes a position string safe for filenames. Spaces become
// underscores; path separators are stripped.
func sanitizePosition(position string) string {
	s := strings.ReplaceAll(position, " ", "_")
	s = strings.ReplaceAll(s, string(os.PathSeparator), "")
	s = strings.ReplaceAll(s, "/", "")
	if s == "" {
		s = "search"
	}
	return s
}

// WriteArtifact saves the ranked results under dir as
// jobs_<position>_<timestamp>.json and returns the full path.
func WriteArtifact(dir, position string, results []model.JobResult, logger *slog.Logger) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if results == nil {
		results = []model.JobResult{}
	}
	data, err := json.MarshalIndent(Artifact{RelevantJobs: results}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}

	name := fmt.Sprintf("jobs_%s_%s.json", sanitizePosition(position), time.Now().Format(timestampLayout))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	logger.Info("saved search artifact", "path", path, "jobs", len(results))
	return path, nil
}

// ReadArtifact loads a previously saved search.
func ReadArtifact(path string) ([]model.JobResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return a.RelevantJobs, nil
}

// csvHeader is the canonical Job column order.
var csvHeader = []string{"title", "company", "experience", "location", "apply_link", "description", "salary", "jobNature", "source"}

// WriteSourceCSV dumps one source's raw collection under dir as
// <source>_jobs_<position>_<timestamp>.csv. Nothing is written when the
// collection is empty; the returned path is "" in that case.
func WriteSourceCSV(dir, source, position string, jobs []model.Job, logger *slog.Logger) (string, error) {
	if len(jobs) == 0 {
		logger.Info("no jobs to dump", "source", source)
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("%s_jobs_%s_%s.csv", source, sanitizePosition(position), time.Now().Format(timestampLayout))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, j := range jobs {
		row := []string{j.Title, j.Company, j.Experience, j.Location, j.ApplyLink, j.Description, j.Salary, j.JobNature, j.Source}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	logger.Info("saved source dump", "path", path, "jobs", len(jobs))
	return path, nil
}
