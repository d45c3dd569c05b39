package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/job_relevance.md
var jobRelevancePromptRaw string

// JobRelevanceTemplate is the parsed prompt template for relevance analysis.
// Parsed once at package init; reused on every AnalyzeJob call.
var JobRelevanceTemplate = template.Must(template.New("job_relevance").Parse(jobRelevancePromptRaw))
