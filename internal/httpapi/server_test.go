package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobfinder/internal/model"
	"jobfinder/internal/pipeline"
)

type stubSearcher struct {
	results []model.JobResult
	err     error
	gotReq  model.JobRequirement
	called  bool
}

func (s *stubSearcher) Search(_ context.Context, req model.JobRequirement) ([]model.JobResult, error) {
	s.called = true
	s.gotReq = req
	return s.results, s.err
}

type stubProber struct{ up bool }

func (s stubProber) TestConnection(context.Context) bool { return s.up }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(searcher *stubSearcher, prober Prober) *httptest.Server {
	return httptest.NewServer(NewServer(searcher, prober, testLogger()).Routes())
}

func postSearch(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/search-jobs/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSearchJobs_Success(t *testing.T) {
	searcher := &stubSearcher{results: []model.JobResult{
		{JobTitle: "Dev", Company: "Acme", RelevanceScore: 90, MatchedSkills: []string{"Go"}},
	}}
	srv := newTestServer(searcher, stubProber{up: true})
	defer srv.Close()

	resp := postSearch(t, srv.URL, `{"position":"Dev","location":"Karachi","sources":["indeed","rozee"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got []model.JobResult
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].JobTitle != "Dev" || got[0].RelevanceScore != 90 {
		t.Errorf("body = %+v", got)
	}
	if searcher.gotReq.Position != "Dev" || len(searcher.gotReq.Sources) != 2 {
		t.Errorf("forwarded request = %+v", searcher.gotReq)
	}
}

func TestSearchJobs_AnalyzerUnavailable(t *testing.T) {
	searcher := &stubSearcher{err: pipeline.ErrAnalyzerUnavailable}
	srv := newTestServer(searcher, stubProber{up: false})
	defer srv.Close()

	resp := postSearch(t, srv.URL, `{"position":"Dev"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestSearchJobs_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"position":`},
		{"missing position", `{"location":"Karachi"}`},
		{"unknown source", `{"position":"Dev","sources":["monster"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &stubSearcher{}
			srv := newTestServer(searcher, stubProber{up: true})
			defer srv.Close()

			resp := postSearch(t, srv.URL, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if searcher.called {
				t.Error("pipeline must not run on an invalid request")
			}
		})
	}
}

func TestSearchJobs_GenericFailure(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("boom")}
	srv := newTestServer(searcher, stubProber{up: true})
	defer srv.Close()

	resp := postSearch(t, srv.URL, `{"position":"Dev"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestSearchJobs_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(&stubSearcher{}, stubProber{up: true})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/search-jobs/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestSearchJobs_ArtifactHook(t *testing.T) {
	searcher := &stubSearcher{results: []model.JobResult{{JobTitle: "Dev"}}}
	s := NewServer(searcher, stubProber{up: true}, testLogger())

	var savedPosition string
	s.SaveArtifact = func(position string, results []model.JobResult) (string, error) {
		savedPosition = position
		return "/tmp/x.json", nil
	}
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp := postSearch(t, srv.URL, `{"position":"Go Dev"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if savedPosition != "Go Dev" {
		t.Errorf("saved position = %q", savedPosition)
	}
}

func TestSearchJobs_ArtifactFailureDoesNotFailRequest(t *testing.T) {
	searcher := &stubSearcher{results: []model.JobResult{{JobTitle: "Dev"}}}
	s := NewServer(searcher, stubProber{up: true}, testLogger())
	s.SaveArtifact = func(string, []model.JobResult) (string, error) {
		return "", errors.New("disk full")
	}
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp := postSearch(t, srv.URL, `{"position":"Dev"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, artifact failures must not surface", resp.StatusCode)
	}
}

func TestTestOllama(t *testing.T) {
	srv := newTestServer(&stubSearcher{}, stubProber{up: true})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/test-ollama/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "up" {
		t.Errorf("status = %q", body["status"])
	}

	srv2 := newTestServer(&stubSearcher{}, stubProber{up: false})
	defer srv2.Close()
	resp2, err := http.Get(srv2.URL + "/test-ollama/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp2.Body.Close()
	if err := json.NewDecoder(resp2.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "down" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubSearcher{}, stubProber{up: true})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
