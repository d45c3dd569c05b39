package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobfinder/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleResults() []model.JobResult {
	return []model.JobResult{
		{
			JobTitle:       "Backend Engineer",
			Company:        "Acme",
			Experience:     "3 years",
			JobNature:      "onsite",
			Location:       "Karachi",
			Salary:         "Not specified",
			ApplyLink:      "https://example.com/1",
			Description:    "Go services",
			Source:         "indeed",
			RelevanceScore: 88.5,
			MatchedSkills:  []string{"Go"},
		},
		{
			JobTitle:       "Data Engineer",
			Company:        "Globex",
			Experience:     "Not specified",
			JobNature:      "remote",
			Location:       "Lahore",
			Salary:         "200k",
			ApplyLink:      "https://example.com/2",
			Description:    "Pipelines",
			Source:         "rozee",
			RelevanceScore: 60,
			MatchedSkills:  []string{},
		},
	}
}

func TestWriteArtifact_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := sampleResults()

	path, err := WriteArtifact(dir, "Backend Engineer", want, testLogger())
	if err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "jobs_Backend_Engineer_") || !strings.HasSuffix(base, ".json") {
		t.Errorf("artifact name = %q", base)
	}

	got, err := ReadArtifact(path)
	if err != nil {
		t.Fatalf("ReadArtifact: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("round trip lost entries: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].JobTitle != want[i].JobTitle || got[i].RelevanceScore != want[i].RelevanceScore {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
		if len(got[i].MatchedSkills) != len(want[i].MatchedSkills) {
			t.Errorf("entry %d skills = %v", i, got[i].MatchedSkills)
		}
	}
}

func TestWriteArtifact_TopLevelKey(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteArtifact(dir, "dev", sampleResults(), testLogger())
	if err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := raw["relevant_jobs"]; !ok {
		t.Error("artifact must nest results under relevant_jobs")
	}
}

func TestWriteArtifact_EmptyResults(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteArtifact(dir, "dev", nil, testLogger())
	if err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}
	got, err := ReadArtifact(path)
	if err != nil {
		t.Fatalf("ReadArtifact: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d entries, want 0", len(got))
	}
}

func TestReadArtifact_Missing(t *testing.T) {
	if _, err := ReadArtifact(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestWriteSourceCSV(t *testing.T) {
	dir := t.TempDir()
	jobs := []model.Job{
		{Title: "Dev", Company: "Acme", Experience: "2 years", Location: "Karachi",
			ApplyLink: "https://example.com/1", Description: "desc, with comma",
			Salary: "Not Listed", JobNature: "onsite", Source: "indeed"},
	}

	path, err := WriteSourceCSV(dir, "indeed", "Go Dev", jobs, testLogger())
	if err != nil {
		t.Fatalf("WriteSourceCSV: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "indeed_jobs_Go_Dev_") {
		t.Errorf("csv name = %q", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	if rows[0][0] != "title" || rows[0][8] != "source" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Dev" || rows[1][5] != "desc, with comma" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestWriteSourceCSV_EmptySkipsFile(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteSourceCSV(dir, "rozee", "dev", nil, testLogger())
	if err != nil {
		t.Fatalf("WriteSourceCSV: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("no file should be created for an empty collection, found %d", len(entries))
	}
}
