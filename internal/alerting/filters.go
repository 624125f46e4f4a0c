package alerting

import (
	"strings"
	"time"

	"github.com/spigell/hh-indexer/internal/posting"
)

// Filter is a single step applied to the candidates of a saved search.
type Filter interface {
	Name() string
	Match(p *posting.Posting) bool
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// BuildFilters turns f into filtering steps in a fixed order: location,
// remote, company, posted-within, require-keywords, exclude-keywords. Unset
// filters produce no step. now anchors the posted-within window.
func BuildFilters(f Filters, now time.Time) []Filter {
	var steps []Filter

	if loc := strings.TrimSpace(f.Location); loc != "" {
		steps = append(steps, &locationFilter{location: strings.ToLower(loc)})
	}
	if f.Remote != nil && *f.Remote {
		steps = append(steps, remoteFilter{})
	}
	if companies := normalizeSet(f.Company); len(companies) > 0 {
		steps = append(steps, &companyFilter{allowed: companies})
	}
	if f.PostedWithinDays != nil {
		steps = append(steps, &postedWithinFilter{days: *f.PostedWithinDays, now: now})
	}
	if keywords := normalizeList(f.RequireKeywords); len(keywords) > 0 {
		steps = append(steps, &requireKeywordsFilter{keywords: keywords})
	}
	if keywords := normalizeList(f.ExcludeKeywords); len(keywords) > 0 {
		steps = append(steps, &excludeKeywordsFilter{keywords: keywords})
	}

	return steps
}

// Apply runs steps in order. A candidate dropped by one step is not seen by
// the following ones.
func Apply(steps []Filter, candidates []*posting.Posting, observe func(Filter, Step)) []*posting.Posting {
	for _, step := range steps {
		initial := len(candidates)
		kept := candidates[:0:0]
		for _, p := range candidates {
			if step.Match(p) {
				kept = append(kept, p)
			}
		}
		candidates = kept

		if observe != nil {
			observe(step, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)})
		}
	}
	return candidates
}

type locationFilter struct {
	location string
}

func (f *locationFilter) Name() string { return "location" }

func (f *locationFilter) Match(p *posting.Posting) bool {
	return strings.Contains(strings.ToLower(p.Location), f.location)
}

type remoteFilter struct{}

func (remoteFilter) Name() string { return "remote" }

func (remoteFilter) Match(p *posting.Posting) bool { return p.Remote }

type companyFilter struct {
	allowed map[string]struct{}
}

func (f *companyFilter) Name() string { return "company" }

func (f *companyFilter) Match(p *posting.Posting) bool {
	_, ok := f.allowed[strings.ToLower(strings.TrimSpace(p.Company))]
	return ok
}

type postedWithinFilter struct {
	days int
	now  time.Time
}

func (f *postedWithinFilter) Name() string { return "posted_within_days" }

func (f *postedWithinFilter) Match(p *posting.Posting) bool {
	age := f.now.Sub(p.PublishedAt()).Hours() / 24
	return age <= float64(f.days)
}

type requireKeywordsFilter struct {
	keywords []string
}

func (f *requireKeywordsFilter) Name() string { return "require_keywords" }

func (f *requireKeywordsFilter) Match(p *posting.Posting) bool {
	for _, k := range f.keywords {
		if !p.HasKeyword(k) {
			return false
		}
	}
	return true
}

type excludeKeywordsFilter struct {
	keywords []string
}

func (f *excludeKeywordsFilter) Name() string { return "exclude_keywords" }

func (f *excludeKeywordsFilter) Match(p *posting.Posting) bool {
	for _, k := range f.keywords {
		if p.HasKeyword(k) {
			return false
		}
	}
	return true
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeSet(values []string) map[string]struct{} {
	list := normalizeList(values)
	if len(list) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(list))
	for _, v := range list {
		set[v] = struct{}{}
	}
	return set
}
