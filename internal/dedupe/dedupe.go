// Package dedupe collapses postings that share a fingerprint into the single
// richest record of each group.
package dedupe

import (
	"unicode/utf8"

	"github.com/spigell/hh-indexer/internal/posting"
)

// Stats describes a dedupe run.
type Stats struct {
	Input   int
	Groups  int
	Dropped int
}

// Dedupe keeps exactly one posting per fingerprint. The output follows the
// order in which each fingerprint first appears in the input.
func Dedupe(postings []posting.Posting) []posting.Posting {
	out, _ := DedupeWithStats(postings)
	return out
}

// DedupeWithStats is Dedupe that also reports how many records were dropped.
//
// Within a group the richer record wins, in this order: a present salary, a
// longer description, more populated optional fields (location, employment
// type, seniority). When everything ties the first seen record is kept.
func DedupeWithStats(postings []posting.Posting) ([]posting.Posting, Stats) {
	best := make(map[string]int, len(postings))
	order := make([]string, 0, len(postings))

	for i := range postings {
		fp := postings[i].Fingerprint
		current, ok := best[fp]
		if !ok {
			best[fp] = i
			order = append(order, fp)
			continue
		}
		if richer(&postings[i], &postings[current]) {
			best[fp] = i
		}
	}

	out := make([]posting.Posting, 0, len(order))
	for _, fp := range order {
		out = append(out, postings[best[fp]])
	}

	return out, Stats{
		Input:   len(postings),
		Groups:  len(order),
		Dropped: len(postings) - len(order),
	}
}

// richer reports whether a strictly beats b. Ties go to b, the earlier one.
func richer(a, b *posting.Posting) bool {
	if (a.Salary != nil) != (b.Salary != nil) {
		return a.Salary != nil
	}

	la, lb := utf8.RuneCountInString(a.DescriptionText), utf8.RuneCountInString(b.DescriptionText)
	if la != lb {
		return la > lb
	}

	return populated(a) > populated(b)
}

func populated(p *posting.Posting) int {
	n := 0
	if p.Location != "" {
		n++
	}
	if p.EmploymentType != posting.EmploymentUnspecified {
		n++
	}
	if p.Seniority != posting.SeniorityUnspecified {
		n++
	}
	return n
}
