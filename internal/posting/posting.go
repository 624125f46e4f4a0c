// Package posting holds the job posting records shared by the ingest
// pipeline, the search index and the alerting code.
package posting

import (
	"time"
)

type Source struct {
	Name   string `json:"name,omitempty" mapstructure:"name"`
	Kind   string `json:"kind,omitempty" mapstructure:"kind"`
	Domain string `json:"domain,omitempty" mapstructure:"domain"`
}

// RawPosting is a posting as it came from a source. It is consumed once by the
// normalizer and never stored.
type RawPosting struct {
	ID          string     `json:"id"`
	URL         string     `json:"url,omitempty"`
	Source      Source     `json:"source"`
	Title       string     `json:"title,omitempty"`
	Company     string     `json:"company,omitempty"`
	Location    string     `json:"location,omitempty"`
	Description string     `json:"description,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
}

type SalaryPeriod string

const (
	PeriodUnknown SalaryPeriod = ""
	PeriodHour    SalaryPeriod = "hour"
	PeriodDay     SalaryPeriod = "day"
	PeriodWeek    SalaryPeriod = "week"
	PeriodMonth   SalaryPeriod = "month"
	PeriodYear    SalaryPeriod = "year"
)

type Salary struct {
	Min      float64      `json:"min"`
	Max      float64      `json:"max"`
	Currency string       `json:"currency,omitempty"`
	Period   SalaryPeriod `json:"period,omitempty"`
}

type Seniority string

const (
	SeniorityUnspecified Seniority = ""
	SeniorityJunior      Seniority = "junior"
	SeniorityMid         Seniority = "mid"
	SenioritySenior      Seniority = "senior"
)

type EmploymentType string

const (
	EmploymentUnspecified EmploymentType = ""
	EmploymentFullTime    EmploymentType = "full-time"
	EmploymentPartTime    EmploymentType = "part-time"
	EmploymentContract    EmploymentType = "contract"
)

// Posting is the canonical record produced by the normalizer. Fingerprint and
// Keywords are derived and must not be edited by hand.
type Posting struct {
	ID              string         `json:"id"`
	SourceID        string         `json:"source_id"`
	SourceName      string         `json:"source_name,omitempty"`
	URL             string         `json:"url,omitempty"`
	Title           string         `json:"title"`
	Company         string         `json:"company,omitempty"`
	Location        string         `json:"location,omitempty"`
	DescriptionText string         `json:"description_text,omitempty"`
	Salary          *Salary        `json:"salary,omitempty"`
	Seniority       Seniority      `json:"seniority,omitempty"`
	EmploymentType  EmploymentType `json:"employment_type,omitempty"`
	Remote          bool           `json:"remote"`
	Keywords        []string       `json:"keywords"`
	Fingerprint     string         `json:"fingerprint"`
	Score           *float64       `json:"score,omitempty"`
	PostedAt        *time.Time     `json:"posted_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// PublishedAt returns the publication time when the source reported one and
// the creation time otherwise.
func (p *Posting) PublishedAt() time.Time {
	if p.PostedAt != nil && !p.PostedAt.IsZero() {
		return *p.PostedAt
	}
	return p.CreatedAt
}

// HasKeyword reports whether the lower-cased keyword is in the posting's set.
func (p *Posting) HasKeyword(keyword string) bool {
	for _, k := range p.Keywords {
		if k == keyword {
			return true
		}
	}
	return false
}
