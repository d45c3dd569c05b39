package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobfinder/internal/model"
	"jobfinder/internal/normalize"
)

var (
	rozeeCardSelectors = []string{
		"div.job",
	}
	rozeeExperienceSelectors = []string{
		".func-area-drn",
		".experience",
	}
)

// RozeeAdapter scrapes the /job/jsearch listing pages. Search is keyed by a
// site-internal city code rather than free-text location.
type RozeeAdapter struct {
	baseURL   string
	sessions  SessionFactory
	cities    *CityTable
	pageLimit int
	pageDelay time.Duration
	cardDelay time.Duration
	logger    *slog.Logger
}

// NewRozeeAdapter creates the adapter. The city table is consulted per Fetch;
// it was loaded once at construction and is read-only.
func NewRozeeAdapter(sessions SessionFactory, cities *CityTable, baseURL string, pageLimit int, pageDelay, cardDelay time.Duration, logger *slog.Logger) *RozeeAdapter {
	if baseURL == "" {
		baseURL = "https://www.rozee.pk"
	}
	if pageLimit <= 0 {
		pageLimit = 3
	}
	return &RozeeAdapter{
		baseURL:   baseURL,
		sessions:  sessions,
		cities:    cities,
		pageLimit: pageLimit,
		pageDelay: pageDelay,
		cardDelay: cardDelay,
		logger:    logger,
	}
}

func (a *RozeeAdapter) Name() string { return model.SourceRozee }

// Fetch walks the paginated results until maxResults records are collected or
// a page's identity set is a subset of the previous page's (the site clamps to
// its last valid page instead of erroring). Fails soft.
func (a *RozeeAdapter) Fetch(ctx context.Context, position, location string, maxResults int) []model.Job {
	session := a.sessions()
	defer session.Close()

	cityCode := a.cities.Resolve(location, a.logger)
	searchURL := fmt.Sprintf("%s/job/jsearch/q/%s/fc/%s",
		a.baseURL, strings.ReplaceAll(position, " ", "%20"), cityCode)

	var jobs []model.Job
	page := 1
	prevPage := identitySet{}

	for len(jobs) < maxResults && page <= a.pageLimit {
		pageURL := fmt.Sprintf("%s/p/%d", searchURL, page)
		a.logger.Info("fetching rozee page", "page", page, "url", pageURL)

		doc, err := session.GetDocument(ctx, pageURL)
		if err != nil {
			a.logger.Error("rozee page fetch failed, stopping pagination",
				"page", page, "error", err)
			break
		}

		cards := firstSelection(doc.Selection, rozeeCardSelectors...)
		if cards.Length() == 0 {
			a.logger.Info("no rozee job cards found", "page", page)
			break
		}
		a.logger.Info("rozee job cards found", "page", page, "count", cards.Length())

		currentPage := identitySet{}
		stopped := false
		cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
			if len(jobs) >= maxResults || ctx.Err() != nil {
				stopped = true
				return false
			}
			if job, ok := a.parseCard(card, currentPage, prevPage); ok {
				jobs = append(jobs, job)
				a.logger.Info("rozee job collected",
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

		if page > 1 && currentPage.subsetOf(prevPage) {
			a.logger.Info("rozee results repeating, stopping pagination", "page", page)
			break
		}
		prevPage = currentPage
		page++
		if pause(ctx, a.pageDelay) != nil {
			break
		}
	}

	a.logger.Info("rozee fetch complete", "jobs", len(jobs))
	return jobs
}

// parseCard extracts one raw record from a listing card. Cards already seen on
// the previous page are recorded into the identity set but not re-emitted.
func (a *RozeeAdapter) parseCard(card *goquery.Selection, current, previous identitySet) (model.Job, bool) {
	titleLink := card.Find(".s-18 a").First()

	raw := model.RawJobRecord{
		Title:       strings.TrimSpace(titleLink.Text()),
		Company:     strings.TrimSpace(card.Find(".cname").First().Text()),
		Location:    strings.TrimSpace(card.Find(".float-left").First().Text()),
		Experience:  firstText(card, rozeeExperienceSelectors...),
		Description: strings.TrimSpace(card.Find(".jbody").First().Text()),
	}
	if raw.Experience == "" {
		raw.Experience = normalize.NotSpecified
	}

	id := identity{raw.Title, raw.Company, raw.Location}
	current[id] = struct{}{}
	if _, seen := previous[id]; seen {
		return model.Job{}, false
	}

	if href, ok := titleLink.Attr("href"); ok {
		if strings.HasPrefix(href, "/") {
			href = a.baseURL + href
		}
		raw.ApplyLink = href
	}

	raw.Salary = strings.TrimSpace(card.Find(`span[data-original-title="Offer Salary - PKR"] span`).First().Text())
	if raw.Salary == "" {
		raw.Salary = normalize.NotListed
	}

	return normalize.Record(raw, model.SourceRozee)
}
