// ABOUTME: Daily log database operations
// ABOUTME: One entry per user per calendar day, upserted by date, plus streak inputs
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/models"
)

const dailyLogColumns = `id, user_id, date, content, goals, achievements,
	letters_sent, calls, social_touches, gifts_sent, created_at, updated_at`

func scanDailyLog(row rowScanner) (*models.DailyLog, error) {
	l := &models.DailyLog{}
	err := row.Scan(&l.ID, &l.UserID, &l.Date, &l.Content, &l.Goals, &l.Achievements,
		&l.LettersSent, &l.Calls, &l.SocialTouches, &l.GiftsSent, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Validationf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// UpsertDailyLog writes the log for (UserID, Date), replacing an existing one.
func UpsertDailyLog(ctx context.Context, db *sql.DB, l *models.DailyLog) error {
	d, err := ParseDate(l.Date)
	if err != nil {
		return err
	}
	l.Date = d.Format(models.DateLayout)
	if strings.TrimSpace(l.Content) == "" {
		return apperr.Validationf("content is required")
	}
	if l.LettersSent < 0 || l.Calls < 0 || l.SocialTouches < 0 || l.GiftsSent < 0 {
		return apperr.Validationf("activity counts cannot be negative")
	}

	now := time.Now().UTC()
	err = db.QueryRowContext(ctx, `
		INSERT INTO daily_logs (`+dailyLogColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			content = excluded.content,
			goals = excluded.goals,
			achievements = excluded.achievements,
			letters_sent = excluded.letters_sent,
			calls = excluded.calls,
			social_touches = excluded.social_touches,
			gifts_sent = excluded.gifts_sent,
			updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at
	`, uuid.New().String(), l.UserID.String(), l.Date, l.Content, l.Goals, l.Achievements,
		l.LettersSent, l.Calls, l.SocialTouches, l.GiftsSent, now, now).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if isForeignKeyViolation(err) {
		return apperr.NotFoundf("user %s not found", l.UserID)
	}
	if err != nil {
		return fmt.Errorf("failed to save daily log: %w", err)
	}
	return nil
}

func GetDailyLog(ctx context.Context, db *sql.DB, userID uuid.UUID, date string) (*models.DailyLog, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	l, err := scanDailyLog(db.QueryRowContext(ctx, `SELECT `+dailyLogColumns+` FROM daily_logs WHERE user_id = ? AND date = ?`,
		userID.String(), d.Format(models.DateLayout)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

// ListDailyLogs returns a user's most recent logs, newest first.
func ListDailyLogs(ctx context.Context, db *sql.DB, userID uuid.UUID, limit int) ([]models.DailyLog, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+dailyLogColumns+` FROM daily_logs
		WHERE user_id = ?
		ORDER BY date DESC
		LIMIT ?
	`, userID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.DailyLog
	for rows.Next() {
		l, err := scanDailyLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// ListDailyLogsInRange returns a user's logs within r, oldest first.
func ListDailyLogsInRange(ctx context.Context, db *sql.DB, userID uuid.UUID, r DateRange) ([]models.DailyLog, error) {
	cond, condArgs := r.clause("date")
	rows, err := db.QueryContext(ctx, `
		SELECT `+dailyLogColumns+` FROM daily_logs
		WHERE user_id = ?`+cond+`
		ORDER BY date
	`, append([]any{userID.String()}, condArgs...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.DailyLog
	for rows.Next() {
		l, err := scanDailyLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// DateRange bounds calendar dates as YYYY-MM-DD strings. Both ends are
// inclusive and an empty end is open.
type DateRange struct {
	From string
	To   string
}

func (r DateRange) clause(column string) (string, []any) {
	var parts []string
	var args []any
	if r.From != "" {
		parts = append(parts, column+" >= ?")
		args = append(args, r.From)
	}
	if r.To != "" {
		parts = append(parts, column+" <= ?")
		args = append(args, r.To)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(parts, " AND "), args
}

// ListLogDates returns the distinct days a user wrote a log, newest first.
// The result satisfies the ordering contract of metrics.Streaks.
func ListLogDates(ctx context.Context, db *sql.DB, userID uuid.UUID, r DateRange) ([]time.Time, error) {
	cond, condArgs := r.clause("date")
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT date FROM daily_logs
		WHERE user_id = ?`+cond+`
		ORDER BY date DESC
	`, append([]any{userID.String()}, condArgs...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		d, err := time.Parse(models.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("corrupt daily log date %q: %w", s, err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// CountDailyLogs counts logs in range; uuid.Nil counts every user's.
func CountDailyLogs(ctx context.Context, db *sql.DB, userID uuid.UUID, r DateRange) (int, error) {
	cond, condArgs := r.clause("date")
	query := `SELECT COUNT(*) FROM daily_logs WHERE 1 = 1` + cond
	args := condArgs
	if userID != uuid.Nil {
		query += " AND user_id = ?"
		args = append(args, userID.String())
	}
	var n int
	err := db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
