// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Deleting a postman also removes its interactions
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/relationcraft/postman/db"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	p, err := db.GetPostman(m.ctx, m.db, m.selectedID)
	if err != nil {
		return fmt.Sprintf("Error loading postman: %v", err)
	}
	if p == nil || p.UserID != m.userID {
		return "Error: postman not found"
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠"),
		"",
		"Are you sure you want to delete this postman?",
		fmt.Sprintf("\n%s (Give %d / Take %d)\n", p.Name, p.GiveScore, p.TakeScore),
		"\nThis action cannot be undone!",
		"",
		buttons,
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		confirmBoxStyle.Render(content),
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if err := m.performDelete(); err != nil {
			m.status = "Error: " + err.Error()
		} else {
			m.status = "Successfully deleted"
			m.selectedID = uuid.Nil
		}
		m.viewMode = ViewList
		m.refresh()
	case "n", "N", "esc":
		m.viewMode = ViewDetail
	}

	return m, nil
}

func (m Model) performDelete() error {
	p, err := db.GetPostman(m.ctx, m.db, m.selectedID)
	if err != nil {
		return err
	}
	if p == nil || p.UserID != m.userID {
		return fmt.Errorf("postman %s not found", m.selectedID)
	}
	return db.DeletePostman(m.ctx, m.db, p.ID)
}
