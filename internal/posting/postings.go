package posting

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

type Postings struct {
	Items []*Posting
}

func (p *Postings) Len() int {
	return len(p.Items)
}

func (p *Postings) FindByID(id string) *Posting {
	for _, item := range p.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (p *Postings) IDs() []string {
	ids := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// ReportByCompany groups short posting summaries by company name.
func (p *Postings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, item := range p.Items {
		key := item.Company
		if key == "" {
			key = "(unknown company)"
		}

		entry := map[string]string{
			"id":       item.ID,
			"title":    item.Title,
			"url":      item.URL,
			"location": item.Location,
			"remote":   fmt.Sprintf("%t", item.Remote),
		}
		if item.Salary != nil {
			entry["salary"] = FormatSalary(item.Salary)
		}
		if item.Seniority != SeniorityUnspecified {
			entry["seniority"] = string(item.Seniority)
		}

		report[key] = append(report[key], entry)
	}

	for key := range report {
		entries := report[key]
		sort.SliceStable(entries, func(i, j int) bool { return entries[i]["id"] < entries[j]["id"] })
	}
	return report
}

func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// FormatSalary renders a salary range as "80000-120000 USD/year".
func FormatSalary(s *Salary) string {
	if s == nil {
		return ""
	}

	out := fmt.Sprintf("%.0f-%.0f", s.Min, s.Max)
	if s.Min == s.Max {
		out = fmt.Sprintf("%.0f", s.Min)
	}
	if s.Currency != "" {
		out += " " + s.Currency
	}
	if s.Period != PeriodUnknown {
		out += "/" + string(s.Period)
	}
	return out
}
