// ABOUTME: Weekly plan database operations
// ABOUTME: One plan per user per ISO week; goals and meeting preps are stored as JSON
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/metrics"
	"github.com/relationcraft/postman/models"
)

const weeklyPlanColumns = `id, user_id, week_start, goals, meetings, created_at, updated_at`

func scanWeeklyPlan(row rowScanner) (*models.WeeklyPlan, error) {
	w := &models.WeeklyPlan{}
	var goals, meetings string
	if err := row.Scan(&w.ID, &w.UserID, &w.WeekStart, &goals, &meetings, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(goals), &w.Goals); err != nil {
		return nil, fmt.Errorf("corrupt goals for plan %s: %w", w.ID, err)
	}
	if err := json.Unmarshal([]byte(meetings), &w.Meetings); err != nil {
		return nil, fmt.Errorf("corrupt meetings for plan %s: %w", w.ID, err)
	}
	return w, nil
}

// WeekStartOf normalizes any date in a week to that week's Monday.
func WeekStartOf(date string) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return metrics.WeekStart(d).Format(models.DateLayout), nil
}

func validateWeeklyPlan(w *models.WeeklyPlan) error {
	ws, err := WeekStartOf(w.WeekStart)
	if err != nil {
		return err
	}
	w.WeekStart = ws

	for i := range w.Goals {
		status, err := models.ParsePlanStatus(string(w.Goals[i].Status))
		if err != nil {
			return apperr.Validationf("goal %d: %v", i+1, err)
		}
		w.Goals[i].Status = status
	}

	if len(w.Meetings) > models.MaxMeetingPreps {
		return apperr.Validationf("at most %d meeting preparations per week", models.MaxMeetingPreps)
	}
	return nil
}

// UpsertWeeklyPlan writes the plan for (UserID, week of WeekStart).
// Any date in the week is accepted and normalized to its Monday.
func UpsertWeeklyPlan(ctx context.Context, db *sql.DB, w *models.WeeklyPlan) error {
	if err := validateWeeklyPlan(w); err != nil {
		return err
	}

	goals, err := json.Marshal(w.Goals)
	if err != nil {
		return err
	}
	meetings := []byte("[]")
	if len(w.Meetings) > 0 {
		if meetings, err = json.Marshal(w.Meetings); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	err = db.QueryRowContext(ctx, `
		INSERT INTO weekly_plans (`+weeklyPlanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, week_start) DO UPDATE SET
			goals = excluded.goals,
			meetings = excluded.meetings,
			updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at
	`, uuid.New().String(), w.UserID.String(), w.WeekStart, string(goals), string(meetings), now, now).
		Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if isForeignKeyViolation(err) {
		return apperr.NotFoundf("user %s not found", w.UserID)
	}
	if err != nil {
		return fmt.Errorf("failed to save weekly plan: %w", err)
	}
	return nil
}

// GetWeeklyPlan returns the plan covering date, or nil.
func GetWeeklyPlan(ctx context.Context, db *sql.DB, userID uuid.UUID, date string) (*models.WeeklyPlan, error) {
	ws, err := WeekStartOf(date)
	if err != nil {
		return nil, err
	}
	w, err := scanWeeklyPlan(db.QueryRowContext(ctx, `SELECT `+weeklyPlanColumns+` FROM weekly_plans WHERE user_id = ? AND week_start = ?`,
		userID.String(), ws))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

// ListWeeklyPlans returns plans starting on or after since (empty for all),
// newest first. uuid.Nil lists every user's plans.
func ListWeeklyPlans(ctx context.Context, db *sql.DB, userID uuid.UUID, since string, limit int) ([]models.WeeklyPlan, error) {
	query := `SELECT ` + weeklyPlanColumns + ` FROM weekly_plans WHERE week_start >= ?`
	args := []any{since}
	if userID != uuid.Nil {
		query += " AND user_id = ?"
		args = append(args, userID.String())
	}
	query += " ORDER BY week_start DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []models.WeeklyPlan
	for rows.Next() {
		w, err := scanWeeklyPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *w)
	}
	return plans, rows.Err()
}
