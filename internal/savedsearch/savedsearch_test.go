package savedsearch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/spigell/hh-indexer/internal/alerting"
	"github.com/spigell/hh-indexer/internal/posting"
	"github.com/spigell/hh-indexer/internal/store"
)

const sample = `
searches:
  - id: go-berlin
    name: Go in Berlin
    query: go engineer
    filters:
      location: berlin
      remote: true
      company: [Acme, Globex]
      posted-within-days: 7
      require-keywords: [go]
      exclude-keywords: [php]
    alerts:
      enabled: true
  - id: frontend
    query: react
    alerts:
      enabled: false
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searches.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	remote := true
	days := 7
	expect := []alerting.SavedSearch{
		{
			ID:    "go-berlin",
			Name:  "Go in Berlin",
			Query: "go engineer",
			Filters: alerting.Filters{
				Location:         "berlin",
				Remote:           &remote,
				Company:          []string{"Acme", "Globex"},
				PostedWithinDays: &days,
				RequireKeywords:  []string{"go"},
				ExcludeKeywords:  []string{"php"},
			},
			Alerts: alerting.Alerts{Enabled: true},
		},
		{ID: "frontend", Query: "react"},
	}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatalf("unexpected searches (-want +got):\n%s", diff)
	}

	for _, s := range got {
		if err := s.Validate(); err != nil {
			t.Fatalf("expected %q to be valid: %v", s.ID, err)
		}
	}
}

func TestDecodeDocumentErrors(t *testing.T) {
	tests := map[string]string{
		"unknown top-level key": "search:\n  - id: a\n    query: x\n",
		"searches not a list":   "searches: 5\n",
		"broken yaml":           "searches: [\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(input)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

const mixed = `
searches:
  - id: good
    query: go
    alerts:
      enabled: true
  - id: bad
    query: go
    filters:
      posted-within-days: seven
    alerts:
      enabled: true
  - id: typo
    querry: go
  - id: good
    query: react
  - just a string
`

func TestDecodeKeepsMalformedEntriesApart(t *testing.T) {
	got, err := Decode([]byte(mixed))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(got))
	}

	if got[0].Err != nil || got[0].ID != "good" || !got[0].Alerts.Enabled {
		t.Fatalf("expected the first entry intact, got %+v", got[0])
	}

	tests := []struct {
		pos     int
		id      string
		message string
	}{
		{pos: 1, id: "bad", message: "seven"},
		{pos: 2, id: "typo", message: "querry"},
		{pos: 3, id: "good", message: "duplicate saved search id"},
		{pos: 4, id: "searches[4]", message: "cannot unmarshal"},
	}

	for _, tt := range tests {
		s := got[tt.pos]
		if s.ID != tt.id {
			t.Fatalf("entry %d: expected id %q, got %q", tt.pos, tt.id, s.ID)
		}
		if s.Err == nil || !strings.Contains(s.Err.Error(), tt.message) {
			t.Fatalf("entry %d: expected error containing %q, got %v", tt.pos, tt.message, s.Err)
		}
		if err := s.Validate(); err == nil {
			t.Fatalf("entry %d: expected Validate to report the load error", tt.pos)
		}
	}
}

type staticSearcher []string

func (s staticSearcher) Search(string) []string { return s }

type singlePosting struct {
	p posting.Posting
}

func (s *singlePosting) List(context.Context) ([]posting.Posting, error) {
	return []posting.Posting{s.p}, nil
}

func (s *singlePosting) GetByID(_ context.Context, id string) (*posting.Posting, error) {
	if id != s.p.ID {
		return nil, store.ErrNotFound
	}
	return &s.p, nil
}

func TestMalformedSearchDoesNotStopOthers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searches.yaml")
	if err := os.WriteFile(path, []byte(mixed), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	searches, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	jobs := &singlePosting{p: posting.Posting{ID: "p1", Title: "Go Developer"}}
	e := &alerting.Evaluator{Logger: zap.NewNop()}
	res := e.Evaluate(context.Background(), searches, staticSearcher{"p1"}, jobs)

	if len(res.Hits) != 1 || res.Hits[0].SearchID != "good" {
		t.Fatalf("expected the valid search to report hits, got %+v", res.Hits)
	}
	if diff := cmp.Diff([]string{"p1"}, res.Hits[0].IDs); diff != "" {
		t.Fatalf("unexpected hits (-want +got):\n%s", diff)
	}

	failed := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		failed = append(failed, f.SearchID)
	}
	if diff := cmp.Diff([]string{"bad", "typo", "good", "searches[4]"}, failed); diff != "" {
		t.Fatalf("unexpected failures (-want +got):\n%s", diff)
	}
}

func TestDecodeEmpty(t *testing.T) {
	got, err := Decode(nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no searches, got %v %v", got, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
