// ABOUTME: Interaction database operations
// ABOUTME: Interaction rows and the owning postman's give/take counters change in one transaction
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

func counterDeltas(t models.InteractionType, sign int) (give, take int) {
	if t == models.InteractionGive {
		return sign, 0
	}
	return 0, sign
}

// CreateInteraction records an interaction and bumps the postman's counter.
// Last contact moves forward to the interaction date, never backward.
func CreateInteraction(ctx context.Context, db *sql.DB, in *models.Interaction) error {
	typ, err := models.ParseInteractionType(string(in.Type))
	if err != nil {
		return apperr.Validationf("%v", err)
	}
	in.Type = typ
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	if in.Category == "" || in.Description == "" {
		return apperr.Validationf("category and description are required")
	}

	now := time.Now().UTC()
	if in.Date.IsZero() {
		in.Date = now
	}
	in.Date = in.Date.UTC()
	in.ID = uuid.New()
	in.CreatedAt = now

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var owner uuid.UUID
	var lastContact *time.Time
	err = tx.QueryRowContext(ctx, `SELECT user_id, last_contact FROM postmen WHERE id = ?`, in.PostmanID.String()).
		Scan(&owner, &lastContact)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != in.UserID) {
		return apperr.NotFoundf("postman %s not found", in.PostmanID)
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO interactions (id, user_id, postman_id, type, category, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, in.ID.String(), in.UserID.String(), in.PostmanID.String(), in.Type, in.Category, in.Description, in.Date, in.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}

	if lastContact == nil || in.Date.After(*lastContact) {
		lastContact = &in.Date
	}
	give, take := counterDeltas(in.Type, 1)
	_, err = tx.ExecContext(ctx, `
		UPDATE postmen
		SET give_score = give_score + ?, take_score = take_score + ?, last_contact = ?, updated_at = ?
		WHERE id = ?
	`, give, take, lastContact, now, in.PostmanID.String())
	if err != nil {
		return fmt.Errorf("failed to update counters: %w", err)
	}

	return tx.Commit()
}

// DeleteInteraction removes one of userID's interactions and decrements the
// matching counter, never below zero. Last contact is left as it was.
func DeleteInteraction(ctx context.Context, db *sql.DB, id, userID uuid.UUID) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var postmanID uuid.UUID
	var typ models.InteractionType
	err = tx.QueryRowContext(ctx, `SELECT postman_id, type FROM interactions WHERE id = ? AND user_id = ?`,
		id.String(), userID.String()).Scan(&postmanID, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("interaction %s not found", id)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM interactions WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete interaction: %w", err)
	}

	give, take := counterDeltas(typ, 1)
	_, err = tx.ExecContext(ctx, `
		UPDATE postmen
		SET give_score = MAX(0, give_score - ?), take_score = MAX(0, take_score - ?), updated_at = ?
		WHERE id = ?
	`, give, take, time.Now().UTC(), postmanID.String())
	if err != nil {
		return fmt.Errorf("failed to update counters: %w", err)
	}

	return tx.Commit()
}

const interactionSelect = `
	SELECT i.id, i.user_id, i.postman_id, i.type, i.category, i.description, i.date, i.created_at,
		p.name, p.company
	FROM interactions i
	JOIN postmen p ON p.id = i.postman_id`

func scanInteraction(row rowScanner) (*models.Interaction, error) {
	in := &models.Interaction{}
	err := row.Scan(&in.ID, &in.UserID, &in.PostmanID, &in.Type, &in.Category, &in.Description,
		&in.Date, &in.CreatedAt, &in.PostmanName, &in.PostmanCompany)
	if err != nil {
		return nil, err
	}
	return in, nil
}

func GetInteraction(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Interaction, error) {
	in, err := scanInteraction(db.QueryRowContext(ctx, interactionSelect+` WHERE i.id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return in, err
}

// InteractionFilter selects interactions. Zero values do not filter;
// From is inclusive and To is exclusive.
type InteractionFilter struct {
	UserID    uuid.UUID
	PostmanID uuid.UUID
	Type      models.InteractionType
	From      time.Time
	To        time.Time
	Limit     int
}

func (f InteractionFilter) where() (string, []any) {
	var where []string
	var args []any

	if f.UserID != uuid.Nil {
		where = append(where, "i.user_id = ?")
		args = append(args, f.UserID.String())
	}
	if f.PostmanID != uuid.Nil {
		where = append(where, "i.postman_id = ?")
		args = append(args, f.PostmanID.String())
	}
	if f.Type != "" {
		where = append(where, "i.type = ?")
		args = append(args, f.Type)
	}
	if !f.From.IsZero() {
		where = append(where, "i.date >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "i.date < ?")
		args = append(args, f.To.UTC())
	}

	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// ListInteractions returns matching interactions, newest first.
func ListInteractions(ctx context.Context, db *sql.DB, f InteractionFilter) ([]models.Interaction, error) {
	cond, args := f.where()
	query := interactionSelect + cond
	query += " ORDER BY i.date DESC, i.created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

// CountInteractions counts matching interactions; Limit is ignored.
func CountInteractions(ctx context.Context, db *sql.DB, f InteractionFilter) (int, error) {
	cond, args := f.where()
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions i`+cond, args...).Scan(&n)
	return n, err
}

// InteractionCategoryCounts tallies matching interactions by category.
func InteractionCategoryCounts(ctx context.Context, db *sql.DB, f InteractionFilter) (map[string]int, error) {
	cond, args := f.where()
	rows, err := db.QueryContext(ctx, `SELECT i.category, COUNT(*) FROM interactions i`+cond+` GROUP BY i.category`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[category] = n
	}
	return counts, rows.Err()
}

// CounterDrift is a postman whose stored counters disagree with its interactions.
type CounterDrift struct {
	PostmanID  uuid.UUID
	Name       string
	StoredGive int
	StoredTake int
	ActualGive int
	ActualTake int
}

// ReconcileCounters rewrites every postman's give/take counters from its
// interaction rows and reports the ones that changed. The drift report and
// the rewrite share one transaction; the rewrite counts rows itself, so a
// concurrent writer can never be overwritten with stale totals.
func ReconcileCounters(ctx context.Context, db *sql.DB, dryRun bool) ([]CounterDrift, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT p.id, p.name, p.give_score, p.take_score,
			COALESCE(SUM(CASE WHEN i.type = 'GIVE' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN i.type = 'TAKE' THEN 1 ELSE 0 END), 0)
		FROM postmen p
		LEFT JOIN interactions i ON i.postman_id = p.id
		GROUP BY p.id
		ORDER BY p.name
	`)
	if err != nil {
		return nil, err
	}

	var drift []CounterDrift
	for rows.Next() {
		var d CounterDrift
		if err := rows.Scan(&d.PostmanID, &d.Name, &d.StoredGive, &d.StoredTake, &d.ActualGive, &d.ActualTake); err != nil {
			rows.Close()
			return nil, err
		}
		if d.StoredGive != d.ActualGive || d.StoredTake != d.ActualTake {
			drift = append(drift, d)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if dryRun || len(drift) == 0 {
		return drift, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE postmen SET
			give_score = (SELECT COUNT(*) FROM interactions i WHERE i.postman_id = postmen.id AND i.type = 'GIVE'),
			take_score = (SELECT COUNT(*) FROM interactions i WHERE i.postman_id = postmen.id AND i.type = 'TAKE')
		WHERE give_score != (SELECT COUNT(*) FROM interactions i WHERE i.postman_id = postmen.id AND i.type = 'GIVE')
			OR take_score != (SELECT COUNT(*) FROM interactions i WHERE i.postman_id = postmen.id AND i.type = 'TAKE')
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fix counters: %w", err)
	}
	return drift, tx.Commit()
}
