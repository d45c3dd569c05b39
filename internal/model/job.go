package model

import "context"

// Source identifiers, in the fixed order the pipeline visits them.
const (
	SourceIndeed   = "indeed"
	SourceLinkedIn = "linkedin"
	SourceRozee    = "rozee"
)

// AllSources returns the adapter identifiers in pipeline order.
func AllSources() []string {
	return []string{SourceIndeed, SourceLinkedIn, SourceRozee}
}

// KnownSource reports whether name is one of the three adapter identifiers.
func KnownSource(name string) bool {
	switch name {
	case SourceIndeed, SourceLinkedIn, SourceRozee:
		return true
	}
	return false
}

// JobRequirement describes what the caller is looking for. Immutable once built.
type JobRequirement struct {
	Position   string   `json:"position"`
	Experience string   `json:"experience"`
	Salary     string   `json:"salary"`
	JobNature  string   `json:"jobNature"` // onsite / remote / hybrid
	Location   string   `json:"location"`
	Skills     string   `json:"skills"` // comma-separated
	Sources    []string `json:"sources"`
}

// RawJobRecord is the per-adapter intermediate shape, discarded after
// normalization. Fields carry placeholder defaults rather than being empty.
type RawJobRecord struct {
	Title       string
	Company     string
	Location    string
	Salary      string // "Not Listed" when the card exposes none
	Description string
	ApplyLink   string
	Experience  string // "Not specified" when the card exposes none
	JobNature   string
}

// Job is the canonical listing shared across all sources.
// Invariant: Title and Company are non-empty; records failing this are dropped
// at the adapter boundary and never enter the canonical set.
type Job struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Experience  string `json:"experience"`
	Location    string `json:"location"`
	ApplyLink   string `json:"apply_link"`
	Description string `json:"description"`
	Salary      string `json:"salary"`
	JobNature   string `json:"jobNature"`
	Source      string `json:"source"`
}

// ScoredJob is a Job plus the analyzer's verdict. Immutable after creation.
// MatchedSkills preserves the order produced by the model; duplicates are
// permitted since it reflects raw model output.
type ScoredJob struct {
	Job
	RelevanceScore float64  `json:"relevance_score"`
	MatchedSkills  []string `json:"matched_skills"`
	AnalysisError  string   `json:"error,omitempty"`
}

// JobResult is the externally visible response shape.
type JobResult struct {
	JobTitle       string   `json:"job_title"`
	Company        string   `json:"company"`
	Experience     string   `json:"experience"`
	JobNature      string   `json:"jobNature"`
	Location       string   `json:"location"`
	Salary         string   `json:"salary"`
	ApplyLink      string   `json:"apply_link"`
	Description    string   `json:"description"`
	Source         string   `json:"source"`
	RelevanceScore float64  `json:"relevance_score"`
	MatchedSkills  []string `json:"matched_skills"`
}

// SourceAdapter fetches one external job site into canonical Jobs.
// Implementations fail soft: on any unrecoverable error they log and return
// whatever was collected (possibly nothing), never aborting the other sources.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, position, location string, maxResults int) []Job
}
