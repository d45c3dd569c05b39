// Package normalize maps per-adapter raw records into the canonical Job
// schema. Everything here is a pure function: no I/O, no shared state.
package normalize

import (
	"html"
	"regexp"
	"strings"

	"jobfinder/internal/model"
)

const (
	// NotListed is the salary placeholder when a card exposes none.
	NotListed = "Not Listed"
	// NoDescription is the description placeholder when the detail fetch failed.
	NoDescription = "No description available"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// CleanText converts an HTML or HTML-encoded fragment to plain text: entities
// unescaped, tags stripped, whitespace collapsed.
func CleanText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

// Record maps a raw adapter record into a canonical Job tagged with source.
// Records lacking a title or company are dropped (ok=false); they never enter
// the canonical set. Missing optional fields get their documented placeholders,
// and an absent experience field is derived from the description text.
func Record(raw model.RawJobRecord, source string) (model.Job, bool) {
	title := strings.TrimSpace(raw.Title)
	company := strings.TrimSpace(raw.Company)
	if title == "" || company == "" {
		return model.Job{}, false
	}

	experience := strings.TrimSpace(raw.Experience)
	if experience == "" || strings.EqualFold(experience, "none") {
		experience = ExtractExperience(raw.Description)
	}

	salary := strings.TrimSpace(raw.Salary)
	if salary == "" {
		salary = NotListed
	}

	description := strings.TrimSpace(raw.Description)
	if description == "" {
		description = NoDescription
	}

	location := strings.TrimSpace(raw.Location)
	if location == "" {
		location = "Location not specified"
	}

	jobNature := raw.JobNature
	if jobNature == "" {
		jobNature = "onsite"
	}

	return model.Job{
		Title:       title,
		Company:     company,
		Experience:  experience,
		Location:    location,
		ApplyLink:   raw.ApplyLink,
		Description: description,
		Salary:      salary,
		JobNature:   jobNature,
		Source:      source,
	}, true
}
