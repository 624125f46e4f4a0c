package headhunter

import (
	"fmt"
	"strings"
	"time"

	"github.com/spigell/hh-indexer/internal/posting"
)

// hh.ru timestamps look like 2024-05-01T10:00:00+0300.
const timeLayout = "2006-01-02T15:04:05-0700"

type Vacancies struct {
	Items []*Vacancy
}

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
		URL  string `json:"url,omitempty"`
	} `json:"area,omitempty"`
	Salary *struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
		Gross    bool   `json:"gross,omitempty"`
	} `json:"salary,omitempty"`
	Experience struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"experience,omitempty"`
	Schedule struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"schedule,omitempty"`
	Employer struct {
		ID           string `json:"id,omitempty"`
		Name         string `json:"name,omitempty"`
		URL          string `json:"url,omitempty"`
		AlternateURL string `json:"alternate_url,omitempty"`
	} `json:"employer,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Employment   struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employment,omitempty"`
	Description string `json:"description,omitempty"`
	KeySkills   []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
	Archived bool `json:"archived,omitempty"`
	Snipet   struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// hh.ru dictionary ids mapped to the words the normalizer classifies by.
var (
	employmentWords = map[string]string{
		"full":    "Full-time",
		"part":    "Part-time",
		"project": "Contract",
	}
	experienceWords = map[string]string{
		"noExperience": "Junior",
		"moreThan6":    "Senior",
	}
	scheduleWords = map[string]string{
		"remote": "Remote",
	}
)

func (v *Vacancies) Len() int {
	return len(v.Items)
}

func (v *Vacancies) FindByID(id string) *Vacancy {
	for _, vacancy := range v.Items {
		if vacancy.ID == id {
			return vacancy
		}
	}
	return nil
}

// RawPostings converts every vacancy that is not archived.
func (v *Vacancies) RawPostings(fetchedAt time.Time) []posting.RawPosting {
	out := make([]posting.RawPosting, 0, len(v.Items))
	for _, vacancy := range v.Items {
		if vacancy == nil || vacancy.Archived {
			continue
		}
		out = append(out, vacancy.RawPosting(fetchedAt))
	}
	return out
}

// RawPosting renders the structured vacancy fields into the free text the
// normalizer reads: salary first, so it wins over numbers in the body, then
// employment, experience, schedule, key skills and the description.
func (va *Vacancy) RawPosting(fetchedAt time.Time) posting.RawPosting {
	var lines []string

	if s := va.salaryLine(); s != "" {
		lines = append(lines, s)
	}
	if w := employmentWords[va.Employment.ID]; w != "" {
		lines = append(lines, "Employment: "+w)
	}
	if w := experienceWords[va.Experience.ID]; w != "" {
		lines = append(lines, "Level: "+w)
	}
	if w := scheduleWords[va.Schedule.ID]; w != "" {
		lines = append(lines, "Schedule: "+w)
	}
	if len(va.KeySkills) > 0 {
		skills := make([]string, 0, len(va.KeySkills))
		for _, s := range va.KeySkills {
			skills = append(skills, s.Name)
		}
		lines = append(lines, "Key skills: "+strings.Join(skills, ", "))
	}

	header := ""
	if len(lines) > 0 {
		header = "<p>" + strings.Join(lines, "</p><p>") + "</p>"
	}

	body := va.Description
	if body == "" {
		body = strings.TrimSpace(va.Snipet.Requirement + "\n" + va.Snipet.Responsibility)
	}

	raw := posting.RawPosting{
		ID:          va.ID,
		URL:         va.AlternateURL,
		Source:      posting.Source{Name: "headhunter", Kind: "api", Domain: siteURL},
		Title:       va.Name,
		Company:     va.Employer.Name,
		Location:    va.Area.Name,
		Description: header + body,
		FetchedAt:   fetchedAt,
	}

	if t, err := time.Parse(timeLayout, va.PublishedAt); err == nil {
		t = t.UTC()
		raw.PostedAt = &t
	}

	return raw
}

// salaryLine writes the salary the way hh.ru shows it: a monthly amount.
// RUR is the hh.ru code for rubles.
func (va *Vacancy) salaryLine() string {
	s := va.Salary
	if s == nil || (s.From == 0 && s.To == 0) {
		return ""
	}

	currency := s.Currency
	if currency == "" {
		currency = "RUR"
	}

	switch {
	case s.From > 0 && s.To > 0:
		return fmt.Sprintf("Salary: %s %d - %d per month", currency, s.From, s.To)
	case s.From > 0:
		return fmt.Sprintf("Salary: %s %d per month", currency, s.From)
	default:
		return fmt.Sprintf("Salary: %s %d per month", currency, s.To)
	}
}
