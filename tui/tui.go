// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen browser for postmen, recent interactions and the daily journal
package tui

import (
	"context"
	"database/sql"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/relationcraft/postman/metrics"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/viz"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
	ViewConfirmDelete
)

// Tab is the list shown in list view.
type Tab int

const (
	TabPostmen Tab = iota
	TabInteractions
	TabJournal
)

var tabNames = []string{"Postmen", "Interactions", "Journal"}

type Model struct {
	ctx      context.Context
	db       *sql.DB
	userID   uuid.UUID
	now      func() time.Time
	viewMode ViewMode
	tab      Tab

	// List view state
	selectedRow int
	searching   bool
	search      textinput.Model
	postmen     []viz.ScoredPostman
	recent      []models.Interaction
	logs        []models.DailyLog
	streak      metrics.StreakResult

	// Detail view state
	selectedID uuid.UUID

	// Edit view state; a nil selectedID means a new postman.
	formInputs []textinput.Model
	focusIndex int

	graphDOT string
	status   string

	width  int
	height int
	err    error
}

func NewModel(ctx context.Context, database *sql.DB, userID uuid.UUID) Model {
	search := textinput.New()
	search.Placeholder = "name or company"
	search.CharLimit = 100

	m := Model{
		ctx:      ctx,
		db:       database,
		userID:   userID,
		now:      time.Now,
		viewMode: ViewList,
		tab:      TabPostmen,
		search:   search,
		width:    80,
		height:   24,
	}
	m.refresh()
	return m
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, database *sql.DB, userID uuid.UUID) error {
	p := tea.NewProgram(NewModel(ctx, database, userID), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	// Text entry swallows every other key.
	if m.viewMode == ViewEdit || m.searching {
		if m.viewMode == ViewEdit {
			return m.handleEditKeys(msg)
		}
		return m.handleSearchKeys(msg)
	}
	if msg.String() == "q" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
