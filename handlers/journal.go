// ABOUTME: Daily log MCP tool handlers
// ABOUTME: Implements write_daily_log and get_streak
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/viz"
)

type JournalHandlers struct {
	db     *sql.DB
	userID uuid.UUID
}

func NewJournalHandlers(database *sql.DB, userID uuid.UUID) *JournalHandlers {
	return &JournalHandlers{db: database, userID: userID}
}

type WriteDailyLogInput struct {
	Date          string `json:"date,omitempty" jsonschema:"Date in YYYY-MM-DD format (defaults to today)"`
	Content       string `json:"content" jsonschema:"Journal entry (required)"`
	Goals         string `json:"goals,omitempty" jsonschema:"Goals for the day"`
	Achievements  string `json:"achievements,omitempty" jsonschema:"What got done"`
	LettersSent   int    `json:"letters_sent,omitempty" jsonschema:"Letters or messages sent"`
	Calls         int    `json:"calls,omitempty" jsonschema:"Phone calls made"`
	SocialTouches int    `json:"social_touches,omitempty" jsonschema:"Social media touches"`
	GiftsSent     int    `json:"gifts_sent,omitempty" jsonschema:"Gifts sent"`
}

type DailyLogOutput struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	Content       string `json:"content"`
	CurrentStreak int    `json:"current_streak"`
}

// WriteDailyLog replaces any existing entry for the same date.
func (h *JournalHandlers) WriteDailyLog(ctx context.Context, _ *mcp.CallToolRequest, input WriteDailyLogInput) (*mcp.CallToolResult, DailyLogOutput, error) {
	if input.Content == "" {
		return nil, DailyLogOutput{}, fmt.Errorf("content is required")
	}
	now := time.Now()
	date := input.Date
	if date == "" {
		date = now.Format(models.DateLayout)
	}

	l := &models.DailyLog{
		UserID:        h.userID,
		Date:          date,
		Content:       input.Content,
		Goals:         input.Goals,
		Achievements:  input.Achievements,
		LettersSent:   input.LettersSent,
		Calls:         input.Calls,
		SocialTouches: input.SocialTouches,
		GiftsSent:     input.GiftsSent,
	}
	if err := db.UpsertDailyLog(ctx, h.db, l); err != nil {
		return nil, DailyLogOutput{}, fmt.Errorf("failed to write daily log: %w", err)
	}

	streak, err := viz.UserStreaks(ctx, h.db, h.userID, now)
	if err != nil {
		return nil, DailyLogOutput{}, err
	}
	return nil, DailyLogOutput{
		ID:            l.ID.String(),
		Date:          l.Date,
		Content:       l.Content,
		CurrentStreak: streak.CurrentStreak,
	}, nil
}

type GetStreakInput struct{}

type StreakOutput struct {
	CurrentStreak int `json:"current_streak"`
	MaxStreak     int `json:"max_streak"`
	TotalLogs     int `json:"total_logs"`
}

func (h *JournalHandlers) GetStreak(ctx context.Context, _ *mcp.CallToolRequest, _ GetStreakInput) (*mcp.CallToolResult, StreakOutput, error) {
	streak, err := viz.UserStreaks(ctx, h.db, h.userID, time.Now())
	if err != nil {
		return nil, StreakOutput{}, err
	}
	total, err := db.CountDailyLogs(ctx, h.db, h.userID, db.DateRange{})
	if err != nil {
		return nil, StreakOutput{}, err
	}
	return nil, StreakOutput{
		CurrentStreak: streak.CurrentStreak,
		MaxStreak:     streak.MaxStreak,
		TotalLogs:     total,
	}, nil
}
