// ABOUTME: Calendar feed merging interactions and daily logs
// ABOUTME: Produces one event per interaction and per journal day, optionally bounded by a date range
package viz

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

const (
	EventInteraction = "interaction"
	EventDailyLog    = "dailyLog"

	logPreviewRunes = 100
)

type CalendarEvent struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Date           string    `json:"date"`
	Type           string    `json:"type"`
	SubType        string    `json:"sub_type,omitempty"`
	Category       string    `json:"category,omitempty"`
	Description    string    `json:"description,omitempty"`
	PostmanName    string    `json:"postman_name,omitempty"`
	PostmanCompany string    `json:"postman_company,omitempty"`
}

// CalendarEvents lists a user's events between start and end, both inclusive
// calendar dates. Zero bounds are open. Interactions come before logs.
func CalendarEvents(ctx context.Context, database *sql.DB, userID uuid.UUID, start, end time.Time) ([]CalendarEvent, error) {
	filter := db.InteractionFilter{UserID: userID}
	var logRange db.DateRange
	if !start.IsZero() {
		filter.From = dayStart(start)
		logRange.From = start.Format(models.DateLayout)
	}
	if !end.IsZero() {
		filter.To = dayStart(end).AddDate(0, 0, 1)
		logRange.To = end.Format(models.DateLayout)
	}

	interactions, err := db.ListInteractions(ctx, database, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interactions: %w", err)
	}

	events := make([]CalendarEvent, 0, len(interactions))
	for _, in := range interactions {
		events = append(events, CalendarEvent{
			ID:             in.ID,
			Title:          fmt.Sprintf("[%s] %s - %s", in.Type, in.PostmanName, in.Category),
			Date:           in.Date.Format(models.DateLayout),
			Type:           EventInteraction,
			SubType:        string(in.Type),
			Category:       in.Category,
			Description:    in.Description,
			PostmanName:    in.PostmanName,
			PostmanCompany: in.PostmanCompany,
		})
	}

	logs, err := db.ListDailyLogsInRange(ctx, database, userID, logRange)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily logs: %w", err)
	}
	for _, l := range logs {
		events = append(events, CalendarEvent{
			ID:          l.ID,
			Title:       "📝 데일리 로그",
			Date:        l.Date,
			Type:        EventDailyLog,
			Description: preview(l.Content, logPreviewRunes),
		})
	}

	return events, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
