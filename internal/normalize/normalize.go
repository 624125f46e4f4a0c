// Package normalize turns raw job postings into canonical posting records.
// Every extractor is best-effort: a miss leaves the field unset and nothing
// here returns an error.
package normalize

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/hh-indexer/internal/posting"
)

// namespace seeds the deterministic posting ids.
var namespace = uuid.MustParse("6f1d3a2e-8b4c-5e7f-9a0b-1c2d3e4f5a6b")

type Normalizer struct {
	now func() time.Time
}

type Option func(*Normalizer)

// WithClock overrides the time source used for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts every raw posting, preserving input order.
func (n *Normalizer) Normalize(raws []posting.RawPosting) []posting.Posting {
	out := make([]posting.Posting, 0, len(raws))
	for i := range raws {
		out = append(out, n.One(&raws[i]))
	}
	return out
}

func (n *Normalizer) One(raw *posting.RawPosting) posting.Posting {
	now := n.now().UTC()

	title := cleanInline(raw.Title)
	company := cleanInline(raw.Company)
	location := cleanInline(raw.Location)
	description := DescriptionText(raw.Description)
	text := title + "\n" + description

	class := Classify(title)
	if class.Seniority == posting.SeniorityUnspecified || class.EmploymentType == posting.EmploymentUnspecified {
		fromDescription := Classify(description)
		if class.Seniority == posting.SeniorityUnspecified {
			class.Seniority = fromDescription.Seniority
		}
		if class.EmploymentType == posting.EmploymentUnspecified {
			class.EmploymentType = fromDescription.EmploymentType
		}
	}

	createdAt := raw.FetchedAt.UTC()
	if raw.FetchedAt.IsZero() {
		createdAt = now
	}

	var postedAt *time.Time
	if raw.PostedAt != nil && !raw.PostedAt.IsZero() {
		t := raw.PostedAt.UTC()
		postedAt = &t
	}

	fingerprint := Fingerprint(title, company, location, raw.URL)

	return posting.Posting{
		ID:              postingID(raw, fingerprint),
		SourceID:        strings.TrimSpace(raw.ID),
		SourceName:      raw.Source.Name,
		URL:             strings.TrimSpace(raw.URL),
		Title:           title,
		Company:         company,
		Location:        location,
		DescriptionText: description,
		Salary:          ExtractSalary(text),
		Seniority:       class.Seniority,
		EmploymentType:  class.EmploymentType,
		Remote:          DetectRemote(title + "\n" + location + "\n" + description),
		Keywords:        ExtractKeywords(text),
		Fingerprint:     fingerprint,
		PostedAt:        postedAt,
		CreatedAt:       createdAt,
		UpdatedAt:       now,
	}
}

// postingID derives a stable id from the source and its own id so that
// re-ingesting the same posting updates the stored record instead of adding
// a new one.
func postingID(raw *posting.RawPosting, fingerprint string) string {
	key := strings.TrimSpace(raw.ID)
	if key == "" {
		key = strings.TrimSpace(raw.URL)
	}
	if key == "" {
		key = fingerprint
	}
	return uuid.NewSHA1(namespace, []byte(raw.Source.Name+"\x1f"+key)).String()
}
