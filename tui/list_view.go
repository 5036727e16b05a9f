// ABOUTME: List view with postmen, recent interaction and journal tabs
// ABOUTME: Postmen are ranked by relationship score and filterable by search
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/viz"
)

const listLimit = 100

// refresh reloads every tab from the database.
func (m *Model) refresh() {
	m.err = nil

	scored, err := viz.ScorePostmen(m.ctx, m.db, m.userID, m.now())
	if err != nil {
		m.err = err
		return
	}
	m.postmen = filterPostmen(scored, m.search.Value())

	m.recent, err = db.ListInteractions(m.ctx, m.db, db.InteractionFilter{UserID: m.userID, Limit: listLimit})
	if err != nil {
		m.err = err
		return
	}

	m.logs, err = db.ListDailyLogs(m.ctx, m.db, m.userID, listLimit)
	if err != nil {
		m.err = err
		return
	}

	m.streak, err = viz.UserStreaks(m.ctx, m.db, m.userID, m.now())
	if err != nil {
		m.err = err
		return
	}

	if m.selectedRow >= m.rowCount() {
		m.selectedRow = max(m.rowCount()-1, 0)
	}
}

func filterPostmen(scored []viz.ScoredPostman, query string) []viz.ScoredPostman {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return scored
	}
	var out []viz.ScoredPostman
	for _, sp := range scored {
		if strings.Contains(strings.ToLower(sp.Postman.Name), query) ||
			strings.Contains(strings.ToLower(sp.Postman.Company), query) {
			out = append(out, sp)
		}
	}
	return out
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabPostmen:
		return len(m.postmen)
	case TabInteractions:
		return len(m.recent)
	case TabJournal:
		return len(m.logs)
	}
	return 0
}

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("POSTMAN"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.searching || m.search.Value() != "" {
		s.WriteString(m.search.View())
		s.WriteString("\n\n")
	}

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderTable())
	s.WriteString("\n")

	if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(name))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	var columns []table.Column
	var rows []table.Row

	switch m.tab {
	case TabPostmen:
		columns = []table.Column{
			{Title: "Name", Width: 20},
			{Title: "Company", Width: 18},
			{Title: "Stage", Width: 14},
			{Title: "Give", Width: 5},
			{Title: "Take", Width: 5},
			{Title: "Score", Width: 6},
		}
		for _, sp := range m.postmen {
			rows = append(rows, table.Row{
				sp.Postman.Name,
				sp.Postman.Company,
				sp.Postman.Stage.Label(),
				strconv.Itoa(sp.Postman.GiveScore),
				strconv.Itoa(sp.Postman.TakeScore),
				strconv.Itoa(sp.Total),
			})
		}
	case TabInteractions:
		columns = []table.Column{
			{Title: "Date", Width: 10},
			{Title: "Postman", Width: 18},
			{Title: "Type", Width: 5},
			{Title: "Category", Width: 12},
			{Title: "Description", Width: 30},
		}
		for _, in := range m.recent {
			rows = append(rows, table.Row{
				in.Date.Format(models.DateLayout),
				in.PostmanName,
				string(in.Type),
				in.Category,
				in.Description,
			})
		}
	case TabJournal:
		columns = []table.Column{
			{Title: "Date", Width: 10},
			{Title: "Letters", Width: 7},
			{Title: "Calls", Width: 5},
			{Title: "Social", Width: 6},
			{Title: "Gifts", Width: 5},
			{Title: "Content", Width: 30},
		}
		for _, l := range m.logs {
			rows = append(rows, table.Row{
				l.Date,
				strconv.Itoa(l.LettersSent),
				strconv.Itoa(l.Calls),
				strconv.Itoa(l.SocialTouches),
				strconv.Itoa(l.GiftsSent),
				firstLine(l.Content),
			})
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-12, 3)),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View() + "\n" + m.renderFooter()
}

func (m Model) renderFooter() string {
	switch m.tab {
	case TabPostmen:
		return fmt.Sprintf("%d postmen", len(m.postmen))
	case TabJournal:
		return fmt.Sprintf("Streak: %d day(s), best %d", m.streak.CurrentStreak, m.streak.MaxStreak)
	}
	return fmt.Sprintf("%d entries", m.rowCount())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
		"/: Search",
		"n: New",
		"r: Refresh",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "tab":
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		m.selectedRow = 0
	case "enter":
		if id := m.getSelectedID(); id != uuid.Nil {
			m.selectedID = id
			m.viewMode = ViewDetail
		}
	case "/":
		m.tab = TabPostmen
		m.searching = true
		return m, m.search.Focus()
	case "n":
		m.selectedID = uuid.Nil
		m.initFormInputs(nil)
		m.viewMode = ViewEdit
	case "r":
		m.refresh()
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		fallthrough
	case "enter":
		m.searching = false
		m.search.Blur()
		m.selectedRow = 0
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// getSelectedID returns the postman behind the highlighted row. Interaction
// rows resolve to their postman; journal rows have no detail view.
func (m Model) getSelectedID() uuid.UUID {
	switch m.tab {
	case TabPostmen:
		if m.selectedRow < len(m.postmen) {
			return m.postmen[m.selectedRow].Postman.ID
		}
	case TabInteractions:
		if m.selectedRow < len(m.recent) {
			return m.recent[m.selectedRow].PostmanID
		}
	}
	return uuid.Nil
}
