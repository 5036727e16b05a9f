// ABOUTME: Notice (announcement) database operations
// ABOUTME: Admin-managed notices with an active flag; users see the latest active ones
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

const noticeColumns = `id, title, content, is_active, created_at, updated_at`

func scanNotice(row rowScanner) (*models.Notice, error) {
	n := &models.Notice{}
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &n.IsActive, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

func validateNotice(n *models.Notice) error {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" || strings.TrimSpace(n.Content) == "" {
		return apperr.Validationf("title and content are required")
	}
	return nil
}

func CreateNotice(ctx context.Context, db *sql.DB, n *models.Notice) error {
	if err := validateNotice(n); err != nil {
		return err
	}
	n.ID = uuid.New()
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO notices (`+noticeColumns+`) VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID.String(), n.Title, n.Content, n.IsActive, n.CreatedAt, n.UpdatedAt)
	return err
}

func GetNotice(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Notice, error) {
	n, err := scanNotice(db.QueryRowContext(ctx, `SELECT `+noticeColumns+` FROM notices WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

// UpdateNotice applies the non-nil fields.
func UpdateNotice(ctx context.Context, db *sql.DB, id uuid.UUID, title, content *string, active *bool) (*models.Notice, error) {
	n, err := GetNotice(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apperr.NotFoundf("notice %s not found", id)
	}

	if title != nil {
		n.Title = *title
	}
	if content != nil {
		n.Content = *content
	}
	if active != nil {
		n.IsActive = *active
	}
	if err := validateNotice(n); err != nil {
		return nil, err
	}
	n.UpdatedAt = time.Now().UTC()

	_, err = db.ExecContext(ctx, `UPDATE notices SET title = ?, content = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		n.Title, n.Content, n.IsActive, n.UpdatedAt, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to update notice: %w", err)
	}
	return n, nil
}

func DeleteNotice(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM notices WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("notice %s not found", id)
	}
	return nil
}

// ListNotices returns notices newest first. activeOnly hides inactive ones.
func ListNotices(ctx context.Context, db *sql.DB, activeOnly bool, limit int) ([]models.Notice, error) {
	query := `SELECT ` + noticeColumns + ` FROM notices`
	var args []any
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notices []models.Notice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		notices = append(notices, *n)
	}
	return notices, rows.Err()
}
