// ABOUTME: Whole-database statistics for admin reporting
// ABOUTME: Row counts per table, active users and on-disk size
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TableCount struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// TableCounts returns the row count of every application table.
func TableCounts(ctx context.Context, db *sql.DB) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(Tables))
	for _, table := range Tables {
		var n int
		// Table names come from the fixed Tables list.
		if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}

type UserCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Admins int `json:"admins"`
}

func CountUsers(ctx context.Context, db *sql.DB) (UserCounts, error) {
	var c UserCounts
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN role = 'admin' THEN 1 ELSE 0 END), 0)
		FROM users
	`).Scan(&c.Total, &c.Active, &c.Admins)
	return c, err
}

// DatabaseSize is the size of the main database file in bytes.
func DatabaseSize(ctx context.Context, db *sql.DB) (int64, error) {
	var pages, pageSize int64
	if err := db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pages); err != nil {
		return 0, err
	}
	if err := db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		return 0, err
	}
	return pages * pageSize, nil
}

// ActiveUserIDs returns the users who wrote a daily log or recorded an
// interaction with created_at in [from, to).
func ActiveUserIDs(ctx context.Context, db *sql.DB, from, to time.Time) (map[uuid.UUID]bool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT user_id FROM daily_logs WHERE created_at >= ? AND created_at < ?
		UNION
		SELECT user_id FROM interactions WHERE created_at >= ? AND created_at < ?
	`, from.UTC(), to.UTC(), from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
