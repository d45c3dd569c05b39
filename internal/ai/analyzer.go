package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/semaphore"

	"jobfinder/internal/model"
	"jobfinder/internal/retry"
)

// Options tunes the analyzer's retry and batching behavior. The zero value is
// replaced with the production defaults.
type Options struct {
	MaxAttempts int           // attempts per job, default 3
	RetryDelay  time.Duration // initial backoff after a timeout, default 5s
	Concurrency int64         // analyses in flight at once, default 3
	BatchSize   int           // jobs queued per batch, default 5
	BatchDelay  time.Duration // pause between batches, default 5s; negative disables
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 5
	}
	if o.BatchDelay == 0 {
		o.BatchDelay = 5 * time.Second
	}
	return o
}

// Analyzer scores jobs against a requirement profile via a ChatProvider.
type Analyzer struct {
	provider ChatProvider
	tmpl     *template.Template
	policy   retry.Policy
	opts     Options
	logger   *slog.Logger
}

// NewAnalyzer creates an analyzer. Backoff between attempts applies only when
// the failure was a read timeout; all other failures burn an attempt with no
// wait.
func NewAnalyzer(provider ChatProvider, opts Options, logger *slog.Logger) *Analyzer {
	opts = opts.withDefaults()
	return &Analyzer{
		provider: provider,
		tmpl:     JobRelevanceTemplate,
		policy: retry.Policy{
			MaxAttempts: opts.MaxAttempts,
			BaseDelay:   opts.RetryDelay,
			Multiplier:  2,
			BackoffOn:   model.IsTimeout,
		},
		opts:   opts,
		logger: logger,
	}
}

// AnalyzeJob scores one job against the requirement. It never panics and
// always returns a usable result: on unrecoverable failure the score is 0,
// the skill list empty, and err carries the final attempt's failure.
func (a *Analyzer) AnalyzeJob(ctx context.Context, job model.Job, req model.JobRequirement) (float64, []string, error) {
	var promptBuf bytes.Buffer
	err := a.tmpl.Execute(&promptBuf, struct {
		Job         model.Job
		Requirement model.JobRequirement
	}{job, req})
	if err != nil {
		return 0, nil, fmt.Errorf("render prompt: %w", err)
	}

	a.logger.Info("analyzing job", "title", job.Title, "company", job.Company)

	var score float64
	var skills []string
	err = a.policy.Do(ctx, a.logger, func(ctx context.Context) error {
		content, err := a.provider.Chat(ctx, promptBuf.String())
		if err != nil {
			return err
		}
		score, skills, err = extractVerdict(content)
		return err
	})
	if err != nil {
		a.logger.Error("all analysis attempts failed", "title", job.Title, "error", err)
		return 0, nil, err
	}

	a.logger.Info("job analyzed", "title", job.Title, "score", score, "matched_skills", len(skills))
	return score, skills, nil
}

// extractVerdict pulls the verdict out of the assistant text. The model tends
// to wrap its JSON in prose or reasoning tags, so the span between the first
// '{' and the last '}' is taken greedily before parsing.
func extractVerdict(content string) (float64, []string, error) {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return 0, nil, fmt.Errorf("no JSON object in response content")
	}
	span := content[start : end+1]

	if !gjson.Valid(span) {
		return 0, nil, fmt.Errorf("malformed JSON object in response content")
	}

	scoreField := gjson.Get(span, "relevance_score")
	if !scoreField.Exists() {
		return 0, nil, fmt.Errorf("response JSON missing relevance_score")
	}

	var skills []string
	for _, s := range gjson.Get(span, "matched_skills").Array() {
		skills = append(skills, s.String())
	}
	return scoreField.Float(), skills, nil
}

// AnalyzeBatch scores jobs in sequential batches with a bounded number of
// in-flight analyses, then returns all entries stably sorted by descending
// score (ties keep input order). A per-job failure yields a zero-score entry
// with an error marker rather than dropping the job. Cancellation is checked
// at batch boundaries; remaining unprocessed jobs are omitted from the output.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, jobs []model.Job, req model.JobRequirement) []model.ScoredJob {
	sem := semaphore.NewWeighted(a.opts.Concurrency)
	analyzed := make([]model.ScoredJob, 0, len(jobs))

	for i := 0; i < len(jobs); i += a.opts.BatchSize {
		if ctx.Err() != nil {
			a.logger.Info("analysis interrupted, omitting remaining jobs",
				"processed", len(analyzed), "total", len(jobs))
			break
		}

		end := min(i+a.opts.BatchSize, len(jobs))
		batch := jobs[i:end]
		a.logger.Info("processing batch",
			"batch", i/a.opts.BatchSize+1, "jobs", len(batch))

		results := make([]model.ScoredJob, len(batch))
		var wg sync.WaitGroup
		for k, job := range batch {
			wg.Add(1)
			go func(k int, job model.Job) {
				defer wg.Done()
				results[k] = a.analyzeOne(ctx, sem, job, req)
			}(k, job)
		}
		wg.Wait()
		analyzed = append(analyzed, results...)

		if end < len(jobs) {
			a.logger.Info("waiting before next batch", "delay", a.opts.BatchDelay)
			if pauseBatch(ctx, a.opts.BatchDelay) != nil {
				// cancelled during the pause; the boundary check above logs it
				continue
			}
		}
	}

	sort.SliceStable(analyzed, func(i, j int) bool {
		return analyzed[i].RelevanceScore > analyzed[j].RelevanceScore
	})

	a.logger.Info("batch analysis complete", "analyzed", len(analyzed), "total", len(jobs))
	return analyzed
}

func (a *Analyzer) analyzeOne(ctx context.Context, sem *semaphore.Weighted, job model.Job, req model.JobRequirement) model.ScoredJob {
	scored := model.ScoredJob{Job: job, MatchedSkills: []string{}}

	if err := sem.Acquire(ctx, 1); err != nil {
		scored.AnalysisError = err.Error()
		return scored
	}
	defer sem.Release(1)

	score, skills, err := a.AnalyzeJob(ctx, job, req)
	if err != nil {
		scored.AnalysisError = err.Error()
		return scored
	}
	scored.RelevanceScore = score
	if len(skills) > 0 {
		scored.MatchedSkills = skills
	}
	return scored
}

// TestConnection reports whether the inference endpoint answers the probe.
func (a *Analyzer) TestConnection(ctx context.Context) bool {
	if err := a.provider.Ping(ctx); err != nil {
		a.logger.Error("connection test failed", "error", err)
		return false
	}
	a.logger.Info("connection test succeeded")
	return true
}

func pauseBatch(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
