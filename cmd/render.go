package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spigell/hh-indexer/internal/posting"
	"github.com/spigell/hh-indexer/internal/utils"
)

const previewRunes = 280

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	companyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	salaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	detailsStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// renderPosting renders a posting as one line: title, company, location,
// salary and id.
func renderPosting(p *posting.Posting) string {
	parts := []string{titleStyle.Render(p.Title)}
	if p.Company != "" {
		parts = append(parts, companyStyle.Render(p.Company))
	}
	if p.Location != "" {
		parts = append(parts, p.Location)
	}
	if p.Salary != nil {
		parts = append(parts, salaryStyle.Render(posting.FormatSalary(p.Salary)))
	}
	return strings.Join(parts, " / ") + " " + dimStyle.Render("["+p.ID+"]")
}

func renderDetails(p *posting.Posting) string {
	lines := []string{renderPosting(p)}

	var facts []string
	if p.Seniority != posting.SeniorityUnspecified {
		facts = append(facts, string(p.Seniority))
	}
	if p.EmploymentType != posting.EmploymentUnspecified {
		facts = append(facts, string(p.EmploymentType))
	}
	if p.Remote {
		facts = append(facts, "remote")
	}
	if len(facts) > 0 {
		lines = append(lines, strings.Join(facts, ", "))
	}
	if len(p.Keywords) > 0 {
		lines = append(lines, "keywords: "+strings.Join(p.Keywords, ", "))
	}
	if p.URL != "" {
		lines = append(lines, dimStyle.Render(p.URL))
	}
	if p.DescriptionText != "" {
		lines = append(lines, "", utils.Preview(p.DescriptionText, previewRunes))
	}

	return detailsStyle.Render(strings.Join(lines, "\n"))
}

// promptLabel is the plain label used in promptui lists. It starts with the
// id so the selection can be mapped back.
func promptLabel(p *posting.Posting) string {
	label := fmt.Sprintf("%s %s", p.ID, p.Title)
	if p.Company != "" {
		label += " / " + p.Company
	}
	return label
}
