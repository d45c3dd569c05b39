package adapter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The sites drift their markup; every field is read through an ordered list of
// selector candidates and the first one yielding a non-empty result wins.

// firstSelection returns the first candidate selector that matches at least
// one element under root, or an empty selection.
func firstSelection(root *goquery.Selection, candidates ...string) *goquery.Selection {
	for _, sel := range candidates {
		if found := root.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return root.Find(candidates[len(candidates)-1])
}

// firstText returns the trimmed text of the first candidate selector with
// non-empty text, or "".
func firstText(root *goquery.Selection, candidates ...string) string {
	for _, sel := range candidates {
		if text := strings.TrimSpace(root.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstAttr returns the named attribute from the first candidate selector
// carrying it non-empty, or "".
func firstAttr(root *goquery.Selection, attr string, candidates ...string) string {
	for _, sel := range candidates {
		if val, ok := root.Find(sel).First().Attr(attr); ok {
			if val = strings.TrimSpace(val); val != "" {
				return val
			}
		}
	}
	return ""
}

// identity is the (title, company, location) triple used to detect a site
// repeating its last valid page instead of erroring.
type identity struct {
	title    string
	company  string
	location string
}

type identitySet map[identity]struct{}

// subsetOf reports whether every identity in s is already in prev. An empty
// current page counts as a subset.
func (s identitySet) subsetOf(prev identitySet) bool {
	for id := range s {
		if _, ok := prev[id]; !ok {
			return false
		}
	}
	return true
}
