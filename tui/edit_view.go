// ABOUTME: Form view for creating and editing postmen
// ABOUTME: Saves through the same validation the API and CLI use
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

// Form field order.
const (
	fieldName = iota
	fieldCompany
	fieldPosition
	fieldPhone
	fieldEmail
	fieldStage
	fieldNotes
	fieldCount
)

var fieldPlaceholders = [fieldCount]string{
	"Name",
	"Company",
	"Position",
	"Phone",
	"Email",
	"Stage (first_meeting, relationship_building, trust_building, plus, vip)",
	"Notes",
}

func (m Model) renderEditView() string {
	var s strings.Builder

	if m.selectedID == uuid.Nil {
		s.WriteString(titleStyle.Render("NEW POSTMAN"))
	} else {
		s.WriteString(titleStyle.Render("EDIT POSTMAN"))
	}
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Shift+Tab: Previous field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = nil
		if m.selectedID == uuid.Nil {
			m.viewMode = ViewList
		} else {
			m.viewMode = ViewDetail
		}
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		if err := m.savePostman(); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.refresh()
		m.viewMode = ViewDetail
		return m, nil
	}

	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

// initFormInputs builds the form, prefilled from p when editing.
func (m *Model) initFormInputs(p *models.Postman) {
	m.err = nil
	m.formInputs = make([]textinput.Model, fieldCount)
	for i := range m.formInputs {
		in := textinput.New()
		in.Placeholder = fieldPlaceholders[i]
		in.CharLimit = 100
		m.formInputs[i] = in
	}
	m.formInputs[fieldNotes].CharLimit = 1000

	if p != nil {
		m.formInputs[fieldName].SetValue(p.Name)
		m.formInputs[fieldCompany].SetValue(p.Company)
		m.formInputs[fieldPosition].SetValue(p.Position)
		m.formInputs[fieldPhone].SetValue(p.Phone)
		m.formInputs[fieldEmail].SetValue(p.Email)
		m.formInputs[fieldStage].SetValue(string(p.Stage))
		m.formInputs[fieldNotes].SetValue(p.Notes)
	}

	m.focusIndex = 0
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

func (m *Model) formValue(i int) string {
	return strings.TrimSpace(m.formInputs[i].Value())
}

func (m *Model) savePostman() error {
	stage, err := models.ParseStage(m.formValue(fieldStage))
	if m.formValue(fieldStage) == "" {
		stage, err = models.StageFirstMeeting, nil
	}
	if err != nil {
		return err
	}

	if m.selectedID == uuid.Nil {
		p := &models.Postman{
			UserID:   m.userID,
			Name:     m.formValue(fieldName),
			Company:  m.formValue(fieldCompany),
			Position: m.formValue(fieldPosition),
			Phone:    m.formValue(fieldPhone),
			Email:    m.formValue(fieldEmail),
			Stage:    stage,
			Notes:    m.formValue(fieldNotes),
		}
		if err := db.CreatePostman(m.ctx, m.db, p); err != nil {
			return err
		}
		m.selectedID = p.ID
		m.status = "Created " + p.Name
		return nil
	}

	name := m.formValue(fieldName)
	company := m.formValue(fieldCompany)
	position := m.formValue(fieldPosition)
	phone := m.formValue(fieldPhone)
	email := m.formValue(fieldEmail)
	notes := m.formValue(fieldNotes)
	updated, err := db.UpdatePostman(m.ctx, m.db, m.selectedID, db.PostmanUpdate{
		Name:     &name,
		Company:  &company,
		Position: &position,
		Phone:    &phone,
		Email:    &email,
		Stage:    &stage,
		Notes:    &notes,
	})
	if err != nil {
		return err
	}
	m.status = "Saved " + updated.Name
	return nil
}
