package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobfinder/internal/model"
	"jobfinder/internal/normalize"
)

const linkedinResultsPerPage = 25

var (
	linkedinCardSelectors = []string{
		"div.base-card",
		"div.job-search-card",
		"li div.base-search-card",
	}
	linkedinTitleSelectors = []string{
		"h3.base-search-card__title",
		"span.sr-only",
		".job-search-card__title",
	}
	linkedinCompanySelectors = []string{
		"h4.base-search-card__subtitle",
		"a.hidden-nested-link",
		".job-search-card__subtitle",
	}
	linkedinLocationSelectors = []string{
		"span.job-search-card__location",
		".base-search-card__metadata span",
	}
	linkedinLinkSelectors = []string{
		"a.base-card__full-link",
		"h3 a",
		"a[href]",
	}
	linkedinDescriptionSelectors = []string{
		"div.show-more-less-html__markup",
		"div.description__text",
		"section.description",
	}
)

// LinkedInAdapter scrapes the guest (logged-out) search-results pages.
type LinkedInAdapter struct {
	baseURL   string
	sessions  SessionFactory
	pageLimit int
	pageDelay time.Duration
	cardDelay time.Duration
	logger    *slog.Logger
}

// NewLinkedInAdapter creates the adapter. baseURL is overridable for tests.
func NewLinkedInAdapter(sessions SessionFactory, baseURL string, pageLimit int, pageDelay, cardDelay time.Duration, logger *slog.Logger) *LinkedInAdapter {
	if baseURL == "" {
		baseURL = "https://www.linkedin.com"
	}
	if pageLimit <= 0 {
		pageLimit = 3
	}
	return &LinkedInAdapter{
		baseURL:   baseURL,
		sessions:  sessions,
		pageLimit: pageLimit,
		pageDelay: pageDelay,
		cardDelay: cardDelay,
		logger:    logger,
	}
}

func (a *LinkedInAdapter) Name() string { return model.SourceLinkedIn }

// Fetch walks the guest search pagination until maxResults records are
// collected, the page cap is hit, or a page repeats. Fails soft.
func (a *LinkedInAdapter) Fetch(ctx context.Context, position, location string, maxResults int) []model.Job {
	session := a.sessions()
	defer session.Close()

	searchURL := fmt.Sprintf("%s/jobs/search?keywords=%s&location=%s&f_TPR=r2592000",
		a.baseURL, url.QueryEscape(position), url.QueryEscape(location))

	var jobs []model.Job
	pageNum := 0
	prevPage := identitySet{}

	for len(jobs) < maxResults && pageNum < a.pageLimit {
		pageURL := fmt.Sprintf("%s&start=%d", searchURL, pageNum*linkedinResultsPerPage)
		a.logger.Info("fetching linkedin page", "page", pageNum+1, "url", pageURL)

		doc, err := session.GetDocument(ctx, pageURL)
		if err != nil {
			a.logger.Error("linkedin page fetch failed, stopping pagination",
				"page", pageNum+1, "error", err)
			break
		}

		cards := firstSelection(doc.Selection, linkedinCardSelectors...)
		if cards.Length() == 0 {
			a.logger.Info("no linkedin job cards found", "page", pageNum+1)
			break
		}
		a.logger.Info("linkedin job cards found", "page", pageNum+1, "count", cards.Length())

		currentPage := identitySet{}
		stopped := false
		cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
			if len(jobs) >= maxResults || ctx.Err() != nil {
				stopped = true
				return false
			}
			if job, ok := a.parseCard(ctx, session, card, currentPage, prevPage); ok {
				jobs = append(jobs, job)
				a.logger.Info("linkedin job collected",
					"n", len(jobs), "title", job.Title, "company", job.Company)
			}
			if pause(ctx, a.cardDelay) != nil {
				stopped = true
				return false
			}
			return true
		})
		if stopped && ctx.Err() != nil {
			break
		}

		if pageNum > 0 && len(currentPage) > 0 && currentPage.subsetOf(prevPage) {
			a.logger.Info("linkedin results repeating, stopping pagination", "page", pageNum+1)
			break
		}
		prevPage = currentPage
		pageNum++
		if pause(ctx, a.pageDelay) != nil {
			break
		}
	}

	a.logger.Info("linkedin fetch complete", "jobs", len(jobs))
	return jobs
}

// parseCard extracts one raw record from a job card. Cards already seen on
// the previous page are recorded into the identity set but not re-emitted.
func (a *LinkedInAdapter) parseCard(ctx context.Context, session *Session, card *goquery.Selection, current, previous identitySet) (model.Job, bool) {
	raw := model.RawJobRecord{
		Title:    firstText(card, linkedinTitleSelectors...),
		Company:  firstText(card, linkedinCompanySelectors...),
		Location: firstText(card, linkedinLocationSelectors...),
		Salary:   normalize.NotListed, // the guest pages rarely expose salary
	}

	id := identity{raw.Title, raw.Company, raw.Location}
	current[id] = struct{}{}
	if _, seen := previous[id]; seen {
		return model.Job{}, false
	}

	href := firstAttr(card, "href", linkedinLinkSelectors...)
	switch {
	case href == "":
		raw.ApplyLink = "No link available"
		raw.Description = normalize.NoDescription
	default:
		if strings.HasPrefix(href, "/") {
			href = a.baseURL + href
		}
		raw.ApplyLink = href
		raw.Description = a.fetchDescription(ctx, session, href)
	}

	return normalize.Record(raw, model.SourceLinkedIn)
}

func (a *LinkedInAdapter) fetchDescription(ctx context.Context, session *Session, link string) string {
	doc, err := session.GetDocument(ctx, link)
	if err != nil {
		a.logger.Error("linkedin detail fetch failed", "url", link, "error", err)
		return "Error fetching description"
	}
	desc := firstText(doc.Selection, linkedinDescriptionSelectors...)
	if desc == "" {
		return normalize.NoDescription
	}
	return normalize.CleanText(desc)
}
