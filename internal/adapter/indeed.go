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

const indeedResultsPerPage = 10

var (
	indeedCardSelectors = []string{
		"div.job_seen_beacon",
		"div.cardOutline",
		"div[data-tn-component='organicJob']",
	}
	indeedTitleSelectors = []string{
		"h2.jobTitle",
		"a.jobtitle",
		"[data-testid='jobTitle']",
	}
	indeedCompanySelectors = []string{
		"span[data-testid='company-name']",
		".company",
		"[data-testid='company']",
	}
	indeedLocationSelectors = []string{
		"div[data-testid='text-location']",
		".location",
		"[data-testid='location']",
	}
	indeedSalarySelectors = []string{
		"div.metadata.salary-snippet-container",
		".salaryText",
		"[data-testid='salary']",
	}
	indeedLinkSelectors = []string{
		"h2.jobTitle a",
		"a.jobtitle",
		"[data-testid='jobTitle'] a",
	}
)

// IndeedAdapter scrapes paginated search-results pages.
type IndeedAdapter struct {
	baseURL   string
	sessions  SessionFactory
	pageLimit int
	pageDelay time.Duration
	cardDelay time.Duration
	logger    *slog.Logger
}

// NewIndeedAdapter creates the adapter. baseURL is overridable for tests;
// empty selects the production site.
func NewIndeedAdapter(sessions SessionFactory, baseURL string, pageLimit int, pageDelay, cardDelay time.Duration, logger *slog.Logger) *IndeedAdapter {
	if baseURL == "" {
		baseURL = "https://pk.indeed.com"
	}
	if pageLimit <= 0 {
		pageLimit = 3
	}
	return &IndeedAdapter{
		baseURL:   baseURL,
		sessions:  sessions,
		pageLimit: pageLimit,
		pageDelay: pageDelay,
		cardDelay: cardDelay,
		logger:    logger,
	}
}

func (a *IndeedAdapter) Name() string { return model.SourceIndeed }

// Fetch walks the paginated results for position/location until maxResults
// records are collected, the page cap is hit, or a page repeats. Fails soft:
// any page-level error ends pagination and returns what was collected.
func (a *IndeedAdapter) Fetch(ctx context.Context, position, location string, maxResults int) []model.Job {
	session := a.sessions()
	defer session.Close()

	searchURL := fmt.Sprintf("%s/jobs?q=%s&l=%s&sort=date",
		a.baseURL, url.QueryEscape(position), url.QueryEscape(location))

	var jobs []model.Job
	pageNum := 0
	firstPageRetried := false
	firstPageYielded := false
	prevPage := identitySet{}

	for len(jobs) < maxResults && pageNum < a.pageLimit {
		pageURL := fmt.Sprintf("%s&start=%d", searchURL, pageNum*indeedResultsPerPage)
		a.logger.Info("fetching indeed page", "page", pageNum+1, "url", pageURL)

		doc, err := session.GetDocument(ctx, pageURL)
		if err != nil {
			a.logger.Error("indeed page fetch failed, stopping pagination",
				"page", pageNum+1, "error", err)
			break
		}

		cards := firstSelection(doc.Selection, indeedCardSelectors...)
		a.logger.Info("indeed job cards found", "page", pageNum+1, "count", cards.Length())

		// The site sometimes renders the first page empty on cold load but
		// serves later pages fine. If page two yields cards before page one
		// did, re-fetch page one exactly once.
		if pageNum == 1 && cards.Length() > 0 && !firstPageYielded && !firstPageRetried {
			a.logger.Info("results appeared on page two before page one, retrying page one")
			firstPageRetried = true
			pageNum = 0
			if pause(ctx, a.pageDelay) != nil {
				break
			}
			continue
		}
		if pageNum == 0 && cards.Length() > 0 {
			firstPageYielded = true
		}

		currentPage := identitySet{}
		stopped := false
		cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
			if len(jobs) >= maxResults || ctx.Err() != nil {
				stopped = true
				return false
			}
			if job, ok := a.parseCard(ctx, session, card, currentPage, prevPage); ok {
				jobs = append(jobs, job)
				a.logger.Info("indeed job collected",
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
			a.logger.Info("indeed results repeating, stopping pagination", "page", pageNum+1)
			break
		}
		prevPage = currentPage
		pageNum++
		if pause(ctx, a.pageDelay) != nil {
			break
		}
	}

	a.logger.Info("indeed fetch complete", "jobs", len(jobs))
	return jobs
}

// parseCard extracts one raw record from a job card. A card missing title or
// company is skipped; one bad card never aborts the page. Cards already seen
// on the previous page are recorded into the identity set but not re-emitted.
func (a *IndeedAdapter) parseCard(ctx context.Context, session *Session, card *goquery.Selection, current, previous identitySet) (model.Job, bool) {
	raw := model.RawJobRecord{
		Title:    firstText(card, indeedTitleSelectors...),
		Company:  firstText(card, indeedCompanySelectors...),
		Location: firstText(card, indeedLocationSelectors...),
		Salary:   firstText(card, indeedSalarySelectors...),
	}
	if raw.Salary == "" {
		raw.Salary = normalize.NotListed
	}

	id := identity{raw.Title, raw.Company, raw.Location}
	current[id] = struct{}{}
	if _, seen := previous[id]; seen {
		return model.Job{}, false
	}

	href := firstAttr(card, "href", indeedLinkSelectors...)
	switch {
	case href == "":
		raw.ApplyLink = "No link available"
		raw.Description = normalize.NoDescription
	default:
		raw.ApplyLink = a.absoluteURL(href)
		raw.Description = a.fetchDetail(ctx, session, raw.ApplyLink, &raw)
	}

	return normalize.Record(raw, model.SourceIndeed)
}

// fetchDetail loads the job detail page for the full description plus any
// structured header metadata the card itself lacked.
func (a *IndeedAdapter) fetchDetail(ctx context.Context, session *Session, link string, raw *model.RawJobRecord) string {
	doc, err := session.GetDocument(ctx, link)
	if err != nil {
		a.logger.Error("indeed detail fetch failed", "url", link, "error", err)
		return "Error fetching description"
	}

	header := doc.Find("div.jobsearch-JobInfoHeader")
	if raw.Company == "" {
		raw.Company = strings.TrimSpace(header.Find("div.jobsearch-CompanyInfo").Text())
	}
	if raw.Location == "" {
		raw.Location = strings.TrimSpace(header.Find("div.jobsearch-JobInfoHeader-subtitle").Text())
	}

	desc := strings.TrimSpace(doc.Find("div#jobDescriptionText").Text())
	if desc == "" {
		return normalize.NoDescription
	}
	return desc
}

func (a *IndeedAdapter) absoluteURL(href string) string {
	if strings.HasPrefix(href, "/") {
		return a.baseURL + href
	}
	return href
}
