package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func indeedCard(title, company, location, salary, href string) string {
	return fmt.Sprintf(`<div class="job_seen_beacon">
		<h2 class="jobTitle"><a href="%s"><span>%s</span></a></h2>
		<span data-testid="company-name">%s</span>
		<div data-testid="text-location">%s</div>
		<div class="metadata salary-snippet-container">%s</div>
	</div>`, href, title, company, location, salary)
}

func indeedPage(cards ...string) string {
	return "<html><body>" + strings.Join(cards, "\n") + "</body></html>"
}

const indeedDetail = `<html><body>
	<div id="jobDescriptionText">Backend role, 5+ years of experience with Go required.</div>
</body></html>`

// indeedServer serves search pages keyed by the start parameter and a detail
// page for every /viewjob link.
func indeedServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/viewjob") {
			fmt.Fprint(w, indeedDetail)
			return
		}
		fmt.Fprint(w, pages[r.URL.Query().Get("start")])
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestIndeed(srv *httptest.Server) *IndeedAdapter {
	sessions := func() *Session { return NewSession(srv.Client(), nil, discardLogger()) }
	return NewIndeedAdapter(sessions, srv.URL, 3, 0, 0, discardLogger())
}

func TestIndeedFetch_CollectsJobs(t *testing.T) {
	srv := indeedServer(t, map[string]string{
		"0": indeedPage(
			indeedCard("Software Engineer", "Acme", "Karachi", "100k PKR", "/viewjob?jk=1"),
			indeedCard("Backend Engineer", "Globex", "Lahore", "", "/viewjob?jk=2"),
		),
	})

	jobs := newTestIndeed(srv).Fetch(context.Background(), "software engineer", "karachi", 10)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.Title != "Software Engineer" || j.Company != "Acme" {
		t.Errorf("unexpected job: %+v", j)
	}
	if j.Salary != "100k PKR" {
		t.Errorf("Salary = %q", j.Salary)
	}
	if j.Source != "indeed" {
		t.Errorf("Source = %q, want indeed", j.Source)
	}
	if !strings.Contains(j.Description, "5+ years") {
		t.Errorf("detail description not fetched: %q", j.Description)
	}
	if j.Experience != "5+ years" {
		t.Errorf("Experience = %q, want derived 5+ years", j.Experience)
	}
	if !strings.HasPrefix(j.ApplyLink, srv.URL) {
		t.Errorf("ApplyLink not absolutized: %q", j.ApplyLink)
	}

	if jobs[1].Salary != "Not Listed" {
		t.Errorf("missing salary = %q, want Not Listed", jobs[1].Salary)
	}
}

func TestIndeedFetch_SelectorFallback(t *testing.T) {
	// No job_seen_beacon cards; only the legacy cardOutline markup.
	page := `<html><body><div class="cardOutline">
		<a class="jobtitle" href="/viewjob?jk=9">Data Engineer</a>
		<span class="company">Initech</span>
		<div class="location">Islamabad</div>
	</div></body></html>`
	srv := indeedServer(t, map[string]string{"0": page})

	jobs := newTestIndeed(srv).Fetch(context.Background(), "data engineer", "islamabad", 10)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job via fallback selectors, got %d", len(jobs))
	}
	if jobs[0].Title != "Data Engineer" || jobs[0].Company != "Initech" {
		t.Errorf("unexpected job: %+v", jobs[0])
	}
}

func TestIndeedFetch_SkipsCardMissingCompany(t *testing.T) {
	page := indeedPage(
		`<div class="job_seen_beacon"><h2 class="jobTitle"><a href="/viewjob?jk=1"><span>Orphan Role</span></a></h2></div>`,
		indeedCard("Real Role", "Acme", "Karachi", "", "/viewjob?jk=2"),
	)
	srv := indeedServer(t, map[string]string{"0": page})

	jobs := newTestIndeed(srv).Fetch(context.Background(), "role", "karachi", 10)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Title != "Real Role" {
		t.Errorf("Title = %q", jobs[0].Title)
	}
}

func TestIndeedFetch_StopsAtMaxResults(t *testing.T) {
	srv := indeedServer(t, map[string]string{
		"0": indeedPage(
			indeedCard("A", "Co1", "X", "", "/viewjob?jk=1"),
			indeedCard("B", "Co2", "X", "", "/viewjob?jk=2"),
			indeedCard("C", "Co3", "X", "", "/viewjob?jk=3"),
		),
	})

	jobs := newTestIndeed(srv).Fetch(context.Background(), "x", "x", 2)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
}

func TestIndeedFetch_DuplicatePageEndsPagination(t *testing.T) {
	same := indeedPage(indeedCard("A", "Co", "X", "", "/viewjob?jk=1"))
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/viewjob") {
			fmt.Fprint(w, indeedDetail)
			return
		}
		requests++
		fmt.Fprint(w, same)
	}))
	t.Cleanup(srv.Close)

	jobs := newTestIndeed(srv).Fetch(context.Background(), "a", "x", 10)
	if len(jobs) != 1 {
		// page two repeats page one; its cards must not be re-emitted
		t.Fatalf("expected 1 job after repeat detection, got %d", len(jobs))
	}
	if requests != 2 {
		t.Fatalf("expected pagination to stop after 2 search pages, got %d", requests)
	}
}

func TestIndeedFetch_RepeatedPageEmitsNoDuplicates(t *testing.T) {
	// The site clamps past its last valid page and serves it again; every
	// collected job must still appear exactly once.
	same := indeedPage(
		indeedCard("A", "Co", "X", "", "/viewjob?jk=1"),
		indeedCard("B", "Co", "Y", "", "/viewjob?jk=2"),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/viewjob") {
			fmt.Fprint(w, indeedDetail)
			return
		}
		fmt.Fprint(w, same)
	}))
	t.Cleanup(srv.Close)

	jobs := newTestIndeed(srv).Fetch(context.Background(), "a", "x", 10)

	seen := map[string]int{}
	for _, j := range jobs {
		seen[j.Title+"|"+j.Company+"|"+j.Location]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("job emitted %d times: %s", n, id)
		}
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 distinct jobs, got %d", len(jobs))
	}
}

func TestIndeedFetch_PausesBetweenPages(t *testing.T) {
	srv := indeedServer(t, map[string]string{
		"0":  indeedPage(indeedCard("A", "Co1", "X", "", "/viewjob?jk=1")),
		"10": indeedPage(indeedCard("B", "Co2", "Y", "", "/viewjob?jk=2")),
	})

	sessions := func() *Session { return NewSession(srv.Client(), nil, discardLogger()) }
	a := NewIndeedAdapter(sessions, srv.URL, 2, 30*time.Millisecond, 0, discardLogger())

	start := time.Now()
	jobs := a.Fetch(context.Background(), "a", "x", 10)
	elapsed := time.Since(start)

	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	// one pause per completed page
	if elapsed < 60*time.Millisecond {
		t.Errorf("fetch finished in %v, want at least 60ms of page spacing", elapsed)
	}
}

func TestIndeedFetch_RetriesFirstPageOnce(t *testing.T) {
	firstPageHits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/viewjob") {
			fmt.Fprint(w, indeedDetail)
			return
		}
		switch r.URL.Query().Get("start") {
		case "0":
			firstPageHits++
			if firstPageHits == 1 {
				fmt.Fprint(w, indeedPage()) // cold first load renders nothing
				return
			}
			fmt.Fprint(w, indeedPage(indeedCard("A", "Co1", "X", "", "/viewjob?jk=1")))
		case "10":
			fmt.Fprint(w, indeedPage(indeedCard("B", "Co2", "Y", "", "/viewjob?jk=2")))
		default:
			fmt.Fprint(w, indeedPage())
		}
	}))
	t.Cleanup(srv.Close)

	jobs := newTestIndeed(srv).Fetch(context.Background(), "a", "x", 10)

	if firstPageHits != 2 {
		t.Fatalf("expected first page fetched twice, got %d", firstPageHits)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs after retry, got %d", len(jobs))
	}
	if jobs[0].Title != "A" {
		t.Errorf("expected retried first page's job first, got %q", jobs[0].Title)
	}
}

func TestIndeedFetch_PageErrorReturnsCollected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/viewjob") {
			fmt.Fprint(w, indeedDetail)
			return
		}
		if r.URL.Query().Get("start") == "0" {
			fmt.Fprint(w, indeedPage(indeedCard("A", "Co1", "X", "", "/viewjob?jk=1")))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	jobs := newTestIndeed(srv).Fetch(context.Background(), "a", "x", 10)
	if len(jobs) != 1 {
		t.Fatalf("expected the already-collected job, got %d", len(jobs))
	}
}
