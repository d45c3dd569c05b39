package normalize

import (
	"regexp"
	"strings"
)

// NotSpecified is the placeholder for records where no year count was found.
const NotSpecified = "Not specified"

// experiencePatterns is an ordered rule list; the first pattern that matches
// wins, so more specific shapes must stay ahead of general ones. The order is
// load-bearing: reordering changes which capture is returned for texts that
// match several rules.
var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+\+?\s*(?:-\s*\d+)?)\s*(?:years?)?\s*(?:of)?\s*experience`),
	regexp.MustCompile(`(?i)experience[\s:]+(\d+\+?\s*(?:-\s*\d+)?\s*years?)`),
	regexp.MustCompile(`(?i)(\d+\+?\s*(?:-\s*\d+)?)\s*years?[\s\-]*experience`),
	regexp.MustCompile(`(?i)minimum[\s:]+(\d+\+?\s*(?:-\s*\d+)?)\s*years?`),
}

// ExtractExperience pulls a year-count requirement out of free text, e.g.
// "5+ years of experience in backend" -> "5+ years". Returns NotSpecified
// when no rule matches.
func ExtractExperience(text string) string {
	for _, pattern := range experiencePatterns {
		m := pattern.FindStringSubmatch(text)
		if m != nil {
			return strings.TrimSpace(m[1]) + " years"
		}
	}
	return NotSpecified
}
