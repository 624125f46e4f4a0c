package alerting

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/hh-indexer/internal/posting"
	"github.com/spigell/hh-indexer/internal/store"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type fakeSearcher map[string][]string

func (f fakeSearcher) Search(query string) []string { return f[query] }

type fakeStore struct {
	items  map[string]posting.Posting
	broken map[string]bool
}

func (f *fakeStore) List(context.Context) ([]posting.Posting, error) {
	out := make([]posting.Posting, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*posting.Posting, error) {
	if f.broken[id] {
		return nil, errors.New("disk on fire")
	}
	p, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

type memorySeen struct {
	seen map[string]map[string]bool
}

func (m *memorySeen) Unseen(_ context.Context, searchID string, ids []string) ([]string, error) {
	out := []string{}
	for _, id := range ids {
		if !m.seen[searchID][id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memorySeen) MarkSeen(_ context.Context, searchID string, ids []string) error {
	if m.seen == nil {
		m.seen = map[string]map[string]bool{}
	}
	if m.seen[searchID] == nil {
		m.seen[searchID] = map[string]bool{}
	}
	for _, id := range ids {
		m.seen[searchID][id] = true
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func daysAgo(d int) time.Time { return now.Add(-time.Duration(d) * 24 * time.Hour) }

func fixtures() *fakeStore {
	posted := daysAgo(1)
	items := []posting.Posting{
		{ID: "1", Title: "Go Engineer", Company: "Acme", Location: "Berlin, DE", Remote: false, Keywords: []string{"go", "kafka"}, CreatedAt: daysAgo(2)},
		{ID: "2", Title: "Go Engineer", Company: "Globex", Location: "Remote", Remote: true, Keywords: []string{"go", "react"}, CreatedAt: daysAgo(30), PostedAt: &posted},
		{ID: "3", Title: "Go Engineer", Company: "Initech", Location: "Munich", Remote: true, Keywords: []string{"go", "python"}, CreatedAt: daysAgo(10)},
		{ID: "4", Title: "Go Engineer", Company: "acme", Location: "berlin", Remote: true, Keywords: []string{"go", "react", "python"}, CreatedAt: daysAgo(1)},
	}
	s := &fakeStore{items: map[string]posting.Posting{}, broken: map[string]bool{}}
	for _, p := range items {
		s.items[p.ID] = p
	}
	return s
}

func evaluator() *Evaluator {
	return &Evaluator{Logger: zap.NewNop(), Now: func() time.Time { return now }}
}

func hitsByID(res Result) map[string][]string {
	out := map[string][]string{}
	for _, h := range res.Hits {
		out[h.SearchID] = h.IDs
	}
	return out
}

func TestEvaluateFilters(t *testing.T) {
	searcher := fakeSearcher{"go": {"1", "2", "3", "4"}}

	tests := []struct {
		name    string
		filters Filters
		expect  []string
	}{
		{name: "no filters", expect: []string{"1", "2", "3", "4"}},
		{name: "location substring ignores case", filters: Filters{Location: "BERLIN"}, expect: []string{"1", "4"}},
		{name: "remote only", filters: Filters{Remote: ptr(true)}, expect: []string{"2", "3", "4"}},
		{name: "remote false applies nothing", filters: Filters{Remote: ptr(false)}, expect: []string{"1", "2", "3", "4"}},
		{name: "company allow-list", filters: Filters{Company: []string{"Acme", "Globex"}}, expect: []string{"1", "2", "4"}},
		{name: "posted within days uses posted time first", filters: Filters{PostedWithinDays: ptr(2)}, expect: []string{"1", "2", "4"}},
		{name: "posted within zero days", filters: Filters{PostedWithinDays: ptr(0)}, expect: nil},
		{name: "require keywords", filters: Filters{RequireKeywords: []string{"react"}}, expect: []string{"2", "4"}},
		{name: "require keywords case-normalized", filters: Filters{RequireKeywords: []string{" React ", "PYTHON"}}, expect: []string{"4"}},
		{name: "exclude keywords", filters: Filters{ExcludeKeywords: []string{"python"}}, expect: []string{"1", "2"}},
		{
			name: "combined",
			filters: Filters{
				Location:        "berlin",
				Remote:          ptr(true),
				RequireKeywords: []string{"react"},
				ExcludeKeywords: []string{"kafka"},
			},
			expect: []string{"4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searches := []SavedSearch{{ID: "s", Query: "go", Filters: tt.filters, Alerts: Alerts{Enabled: true}}}
			res := evaluator().Evaluate(context.Background(), searches, searcher, fixtures())

			if len(res.Failures) != 0 {
				t.Fatalf("unexpected failures: %+v", res.Failures)
			}
			if diff := cmp.Diff(tt.expect, hitsByID(res)["s"]); diff != "" {
				t.Fatalf("unexpected hits (-want +got):\n%s", diff)
			}
			if tt.expect == nil && len(res.Hits) != 0 {
				t.Fatalf("expected search with no hits to be omitted, got %+v", res.Hits)
			}
		})
	}
}

func TestEvaluateKeywordProperties(t *testing.T) {
	jobs := fixtures()
	searcher := fakeSearcher{"go": {"1", "2", "3", "4"}}
	searches := []SavedSearch{
		{ID: "react", Query: "go", Filters: Filters{RequireKeywords: []string{"react"}}, Alerts: Alerts{Enabled: true}},
		{ID: "no-python", Query: "go", Filters: Filters{ExcludeKeywords: []string{"python"}}, Alerts: Alerts{Enabled: true}},
	}

	res := evaluator().Evaluate(context.Background(), searches, searcher, jobs)
	hits := hitsByID(res)

	for _, id := range hits["react"] {
		p, _ := jobs.GetByID(context.Background(), id)
		if !p.HasKeyword("react") {
			t.Fatalf("posting %s reported without react keyword", id)
		}
	}
	for _, id := range hits["no-python"] {
		p, _ := jobs.GetByID(context.Background(), id)
		if p.HasKeyword("python") {
			t.Fatalf("posting %s reported with excluded python keyword", id)
		}
	}
}

func TestEvaluateIsolatesFailures(t *testing.T) {
	jobs := fixtures()
	jobs.broken["3"] = true

	searcher := fakeSearcher{
		"go":     {"1", "2"},
		"broken": {"3"},
		"ghost":  {"1", "missing"},
	}

	searches := []SavedSearch{
		{ID: "bad-filter", Query: "go", Filters: Filters{PostedWithinDays: ptr(-1)}, Alerts: Alerts{Enabled: true}},
		{ID: "bad-store", Query: "broken", Alerts: Alerts{Enabled: true}},
		{ID: "blank-keyword", Query: "go", Filters: Filters{RequireKeywords: []string{"  "}}, Alerts: Alerts{Enabled: true}},
		{ID: "", Query: "go", Alerts: Alerts{Enabled: true}},
		{ID: "disabled", Query: "go", Alerts: Alerts{Enabled: false}},
		{ID: "unreadable", Query: "go", Err: errors.New("cannot unmarshal")},
		{ID: "good", Query: "go", Alerts: Alerts{Enabled: true}},
		{ID: "ghost", Query: "ghost", Alerts: Alerts{Enabled: true}},
	}

	res := evaluator().Evaluate(context.Background(), searches, searcher, jobs)

	failed := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		if f.Err == nil {
			t.Fatalf("failure without error for %q", f.SearchID)
		}
		failed = append(failed, f.SearchID)
	}
	if diff := cmp.Diff([]string{"bad-filter", "bad-store", "blank-keyword", "", "unreadable"}, failed); diff != "" {
		t.Fatalf("unexpected failures (-want +got):\n%s", diff)
	}

	want := map[string][]string{"good": {"1", "2"}, "ghost": {"1"}}
	if diff := cmp.Diff(want, hitsByID(res)); diff != "" {
		t.Fatalf("unexpected hits (-want +got):\n%s", diff)
	}
}

func TestEvaluateOnlyNew(t *testing.T) {
	jobs := fixtures()
	searcher := fakeSearcher{"go": {"1", "2"}}
	searches := []SavedSearch{{ID: "s", Query: "go", Alerts: Alerts{Enabled: true}}}

	e := evaluator()
	e.Seen = &memorySeen{}

	first := e.Evaluate(context.Background(), searches, searcher, jobs)
	if diff := cmp.Diff([]string{"1", "2"}, hitsByID(first)["s"]); diff != "" {
		t.Fatalf("unexpected first run (-want +got):\n%s", diff)
	}

	second := e.Evaluate(context.Background(), searches, searcher, jobs)
	if len(second.Hits) != 0 {
		t.Fatalf("expected no repeated hits, got %+v", second.Hits)
	}

	searcher["go"] = []string{"1", "2", "4"}
	third := e.Evaluate(context.Background(), searches, searcher, jobs)
	if diff := cmp.Diff([]string{"4"}, hitsByID(third)["s"]); diff != "" {
		t.Fatalf("unexpected third run (-want +got):\n%s", diff)
	}
}

func TestEvaluateLogsFilterSteps(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	e := &Evaluator{Logger: zap.New(core), Now: func() time.Time { return now }}

	searches := []SavedSearch{{
		ID:      "s",
		Query:   "go",
		Filters: Filters{Remote: ptr(true), ExcludeKeywords: []string{"python"}},
		Alerts:  Alerts{Enabled: true},
	}}
	e.Evaluate(context.Background(), searches, fakeSearcher{"go": {"1", "2", "3", "4"}}, fixtures())

	steps := observed.FilterMessage("filter step").All()
	if len(steps) != 2 {
		t.Fatalf("expected 2 filter steps logged, got %d", len(steps))
	}

	remote := steps[0].ContextMap()
	if remote["name"] != "remote" || remote["initial"] != int64(4) || remote["dropped"] != int64(1) || remote["left"] != int64(3) {
		t.Fatalf("unexpected remote step: %v", remote)
	}
	exclude := steps[1].ContextMap()
	if exclude["name"] != "exclude_keywords" || exclude["initial"] != int64(3) || exclude["left"] != int64(1) {
		t.Fatalf("unexpected exclude step: %v", exclude)
	}
	if exclude["search_id"] != "s" {
		t.Fatalf("expected search id on step entries, got %v", exclude)
	}
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	searches := []SavedSearch{{ID: "s", Query: "go", Alerts: Alerts{Enabled: true}}}
	res := evaluator().Evaluate(ctx, searches, fakeSearcher{"go": {"1"}}, fixtures())
	if len(res.Hits) != 0 || len(res.Failures) != 1 {
		t.Fatalf("expected cancelled evaluation to fail, got %+v", res)
	}
}

func TestBuildFiltersOrder(t *testing.T) {
	steps := BuildFilters(Filters{
		ExcludeKeywords:  []string{"php"},
		RequireKeywords:  []string{"go"},
		PostedWithinDays: ptr(7),
		Company:          []string{"Acme"},
		Remote:           ptr(true),
		Location:         "Berlin",
	}, now)

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name())
	}

	expect := []string{"location", "remote", "company", "posted_within_days", "require_keywords", "exclude_keywords"}
	if diff := cmp.Diff(expect, names); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}

	if len(BuildFilters(Filters{Company: []string{" "}}, now)) != 0 {
		t.Fatalf("expected blank company list to produce no step")
	}
}
