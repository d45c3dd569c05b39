// Package pipeline orchestrates the source adapters and the relevance
// analyzer into a single search operation.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"jobfinder/internal/model"
)

// ErrAnalyzerUnavailable is returned when the pre-flight connectivity probe
// fails. No adapter runs in that case.
var ErrAnalyzerUnavailable = errors.New("inference endpoint unavailable")

// Analyzer is the scoring stage. Satisfied by *ai.Analyzer.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, jobs []model.Job, req model.JobRequirement) []model.ScoredJob
	TestConnection(ctx context.Context) bool
}

// Options tunes the aggregation run.
type Options struct {
	MaxResults  int           // per-source cap handed to each adapter
	SourceDelay time.Duration // courtesy pause after the indeed phase only
}

// Pipeline merges adapter output in fixed source order and ranks it.
type Pipeline struct {
	adapters map[string]model.SourceAdapter
	analyzer Analyzer
	opts     Options
	logger   *slog.Logger
}

// New builds a pipeline over the given adapters, keyed by adapter name.
func New(adapters []model.SourceAdapter, analyzer Analyzer, opts Options, logger *slog.Logger) *Pipeline {
	byName := make(map[string]model.SourceAdapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Pipeline{adapters: byName, analyzer: analyzer, opts: opts, logger: logger}
}

// Search runs the whole flow: pre-flight gate, sequential adapter fetches in
// fixed order (indeed, linkedin, rozee) restricted to the requested subset,
// batch analysis, and mapping to the response shape. Adapter failures
// degrade to zero jobs for that source; the only hard error is the gate.
func (p *Pipeline) Search(ctx context.Context, req model.JobRequirement) ([]model.JobResult, error) {
	if !p.analyzer.TestConnection(ctx) {
		return nil, ErrAnalyzerUnavailable
	}

	requested := make(map[string]bool, len(req.Sources))
	for _, s := range req.Sources {
		requested[s] = true
	}
	if len(req.Sources) == 0 {
		for _, s := range model.AllSources() {
			requested[s] = true
		}
	}

	var all []model.Job
	for _, name := range model.AllSources() {
		if !requested[name] {
			continue
		}
		adapter, ok := p.adapters[name]
		if !ok {
			p.logger.Warn("no adapter registered for source", "source", name)
			continue
		}

		p.logger.Info("fetching source", "source", name)
		jobs := adapter.Fetch(ctx, req.Position, req.Location, p.opts.MaxResults)
		for i := range jobs {
			jobs[i].Source = name
		}
		all = append(all, jobs...)
		p.logger.Info("source collected", "source", name, "jobs", len(jobs))

		if name == model.SourceIndeed {
			pause(ctx, p.opts.SourceDelay)
		}
	}

	p.logger.Info("all sources collected", "total", len(all))

	scored := p.analyzer.AnalyzeBatch(ctx, all, req)

	results := make([]model.JobResult, 0, len(scored))
	for _, s := range scored {
		r, ok := toResult(s)
		if !ok {
			p.logger.Warn("skipping job missing required fields",
				"title", s.Title, "company", s.Company, "source", s.Source)
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// toResult maps a scored job to the response shape. Required fields are
// title, company, location and apply link; anything optional falls back to a
// placeholder instead of an empty string.
func toResult(s model.ScoredJob) (model.JobResult, bool) {
	if s.Title == "" || s.Company == "" || s.Location == "" || s.ApplyLink == "" {
		return model.JobResult{}, false
	}

	experience := s.Experience
	if experience == "" || strings.EqualFold(experience, "none") {
		experience = "Not specified"
	}
	jobNature := s.JobNature
	if jobNature == "" {
		jobNature = "Not specified"
	}
	salary := s.Salary
	if salary == "" {
		salary = "Not specified"
	}
	description := s.Description
	if description == "" {
		description = "No description available"
	}
	skills := s.MatchedSkills
	if skills == nil {
		skills = []string{}
	}

	return model.JobResult{
		JobTitle:       s.Title,
		Company:        s.Company,
		Experience:     experience,
		JobNature:      jobNature,
		Location:       s.Location,
		Salary:         salary,
		ApplyLink:      s.ApplyLink,
		Description:    description,
		Source:         s.Source,
		RelevanceScore: s.RelevanceScore,
		MatchedSkills:  skills,
	}, true
}

func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
