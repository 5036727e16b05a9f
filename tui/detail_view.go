// ABOUTME: Detail view for one postman
// ABOUTME: Shows the profile, the score breakdown and recent interactions
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/metrics"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/viz"
)

const detailInteractions = 10

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().Bold(true)
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("POSTMAN DETAIL"))
	s.WriteString("\n\n")
	s.WriteString(m.renderPostmanDetail())
	s.WriteString("\n")

	if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderPostmanDetail() string {
	sp, err := viz.ScorePostman(m.ctx, m.db, m.userID, m.selectedID, m.now())
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", err))
	}
	p := sp.Postman

	var s strings.Builder

	s.WriteString(m.renderField("Name", p.Name))
	s.WriteString(m.renderField("Company", p.Company))
	s.WriteString(m.renderField("Position", p.Position))
	s.WriteString(m.renderField("Phone", p.Phone))
	s.WriteString(m.renderField("Email", p.Email))
	s.WriteString(m.renderField("Category", string(p.Category)))
	s.WriteString(m.renderField("Stage", p.Stage.Label()))
	s.WriteString(m.renderField("Give / Take", fmt.Sprintf("%d / %d", p.GiveScore, p.TakeScore)))
	if p.LastContact != nil {
		s.WriteString(m.renderField("Last Contact", p.LastContact.Format(models.DateLayout)))
	}
	if p.Birthday != nil {
		s.WriteString(m.renderField("Birthday", p.Birthday.Format(models.DateLayout)))
	}
	s.WriteString(m.renderField("Notes", p.Notes))

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render(fmt.Sprintf("SCORE %d/%d", sp.Total, metrics.MaxScore)))
	s.WriteString("\n")
	b := sp.Breakdown
	s.WriteString(fmt.Sprintf("  Frequency %2d/%d  Recency %2d/%d  Balance %2d/%d  Profile %2d/%d\n",
		b.Frequency, metrics.MaxFrequency, b.Recency, metrics.MaxRecency,
		b.Balance, metrics.MaxBalance, b.Profile, metrics.MaxProfile))

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("RECENT INTERACTIONS"))
	s.WriteString("\n")

	history, err := db.ListInteractions(m.ctx, m.db, db.InteractionFilter{
		UserID:    m.userID,
		PostmanID: p.ID,
		Limit:     detailInteractions,
	})
	if err != nil {
		s.WriteString(fmt.Sprintf("  Error: %v\n", err))
	}
	if len(history) == 0 && err == nil {
		s.WriteString("  (none)\n")
	}
	for _, in := range history {
		s.WriteString(fmt.Sprintf("  • [%s] %s %s %s\n",
			in.Date.Format(models.DateLayout), in.Type, in.Category, in.Description))
	}

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"e: Edit",
		"d: Delete",
		"g: View graph",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.refresh()
	case "e":
		p, err := db.GetPostman(m.ctx, m.db, m.selectedID)
		if err != nil || p == nil {
			m.status = "Error: postman not found"
			return m, nil
		}
		m.initFormInputs(p)
		m.viewMode = ViewEdit
	case "d":
		m.viewMode = ViewConfirmDelete
	case "g":
		if err := m.generateGraph(); err != nil {
			m.status = "Error: " + err.Error()
			return m, nil
		}
		m.viewMode = ViewGraph
	}

	return m, nil
}
