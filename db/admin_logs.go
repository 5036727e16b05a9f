// ABOUTME: Admin audit log database operations
// ABOUTME: Append-only record of admin actions, read back newest first
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/relationcraft/postman/models"
)

func AppendAdminLog(ctx context.Context, db *sql.DB, adminID uuid.UUID, action models.AdminAction, detail string) (*models.AdminLog, error) {
	l := &models.AdminLog{
		ID:        uuid.New(),
		AdminID:   adminID,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO admin_logs (id, admin_id, action, detail, created_at) VALUES (?, ?, ?, ?, ?)
	`, l.ID.String(), l.AdminID.String(), l.Action, l.Detail, l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func ListAdminLogs(ctx context.Context, db *sql.DB, limit int) ([]models.AdminLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, admin_id, action, detail, created_at FROM admin_logs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AdminLog
	for rows.Next() {
		var l models.AdminLog
		if err := rows.Scan(&l.ID, &l.AdminID, &l.Action, &l.Detail, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
