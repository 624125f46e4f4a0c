package headhunter

import (
	"strings"
	"testing"
	"time"
)

func TestVacancyRawPosting(t *testing.T) {
	v := &Vacancy{
		ID:           "42",
		Name:         "Go Developer",
		AlternateURL: "https://hh.ru/vacancy/42",
		Description:  "<p>Build services in Go.</p>",
		PublishedAt:  "2024-05-01T10:00:00+0300",
	}
	v.Employer.Name = "Acme"
	v.Area.Name = "Moscow"
	v.Employment.ID = "full"
	v.Experience.ID = "moreThan6"
	v.Schedule.ID = "remote"
	v.KeySkills = append(v.KeySkills, struct {
		Name string `json:"name,omitempty"`
	}{Name: "Kafka"})
	v.Salary = &struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
		Gross    bool   `json:"gross,omitempty"`
	}{From: 200000, To: 300000, Currency: "RUR"}

	fetched := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	raw := v.RawPosting(fetched)

	if raw.ID != "42" || raw.Title != "Go Developer" || raw.Company != "Acme" || raw.Location != "Moscow" {
		t.Fatalf("unexpected raw posting: %+v", raw)
	}
	if raw.Source.Name != "headhunter" || raw.Source.Domain != "hh.ru" {
		t.Fatalf("unexpected source: %+v", raw.Source)
	}
	for _, want := range []string{
		"Salary: RUR 200000 - 300000 per month",
		"Employment: Full-time",
		"Level: Senior",
		"Schedule: Remote",
		"Key skills: Kafka",
		"Build services in Go.",
	} {
		if !strings.Contains(raw.Description, want) {
			t.Fatalf("expected %q in description %q", want, raw.Description)
		}
	}
	if strings.Index(raw.Description, "Salary") > strings.Index(raw.Description, "Build services") {
		t.Fatalf("expected salary line before the description body")
	}
	if raw.PostedAt == nil || !raw.PostedAt.Equal(time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected posted time: %v", raw.PostedAt)
	}
	if !raw.FetchedAt.Equal(fetched) {
		t.Fatalf("unexpected fetched time: %v", raw.FetchedAt)
	}
}

func TestVacancyRawPostingFallsBackToSnippet(t *testing.T) {
	v := &Vacancy{ID: "1", Name: "QA"}
	v.Snipet.Requirement = "Selenium"
	v.Snipet.Responsibility = "Write tests"

	raw := v.RawPosting(time.Now())
	if raw.Description != "Selenium\nWrite tests" {
		t.Fatalf("unexpected description: %q", raw.Description)
	}
	if raw.PostedAt != nil {
		t.Fatalf("expected no posted time")
	}
}

func TestSalaryLine(t *testing.T) {
	type salary = struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
		Gross    bool   `json:"gross,omitempty"`
	}

	tests := []struct {
		name   string
		salary *salary
		expect string
	}{
		{name: "none", expect: ""},
		{name: "zero", salary: &salary{}, expect: ""},
		{name: "from only", salary: &salary{From: 100000, Currency: "USD"}, expect: "Salary: USD 100000 per month"},
		{name: "to only", salary: &salary{To: 90000}, expect: "Salary: RUR 90000 per month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Vacancy{Salary: tt.salary}
			if got := v.salaryLine(); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestRawPostingsSkipsArchived(t *testing.T) {
	vacancies := &Vacancies{Items: []*Vacancy{{ID: "1"}, {ID: "2", Archived: true}, nil}}

	got := vacancies.RawPostings(time.Now())
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("unexpected postings: %+v", got)
	}
	if vacancies.FindByID("2") == nil || vacancies.Len() != 3 {
		t.Fatalf("expected original list untouched")
	}
}
