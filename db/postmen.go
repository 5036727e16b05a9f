// ABOUTME: Postman (managed contact) database operations
// ABOUTME: CRUD with defaults for category and stage, search and per-user counts
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

const postmanColumns = `id, user_id, name, company, position, phone, email, category, stage,
	give_score, take_score, last_contact, notes, profile_image, birthday,
	strengths, interests, goals, business_summary, life_purpose, created_at, updated_at`

func scanPostman(row rowScanner) (*models.Postman, error) {
	p := &models.Postman{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Company, &p.Position, &p.Phone, &p.Email, &p.Category, &p.Stage,
		&p.GiveScore, &p.TakeScore, &p.LastContact, &p.Notes, &p.ProfileImage, &p.Birthday,
		&p.Strengths, &p.Interests, &p.Goals, &p.BusinessSummary, &p.LifePurpose, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func validatePostman(p *models.Postman) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Validationf("name is required")
	}

	category, err := models.ParseCategory(string(p.Category))
	if err != nil {
		return apperr.Validationf("%v", err)
	}
	p.Category = category

	if p.Stage == "" {
		p.Stage = models.StageFirstMeeting
	}
	stage, err := models.ParseStage(string(p.Stage))
	if err != nil {
		return apperr.Validationf("%v", err)
	}
	p.Stage = stage

	if p.GiveScore < 0 || p.TakeScore < 0 {
		return apperr.Validationf("give and take scores cannot be negative")
	}

	p.LastContact = utcPtr(p.LastContact)
	p.Birthday = utcPtr(p.Birthday)
	return nil
}

// ImportCategory and ImportDescription label the interactions that
// CreatePostmanWithHistory synthesizes for carried-over counters.
const (
	ImportCategory    = "가져오기"
	ImportDescription = "CSV 가져오기"
)

// CreatePostman inserts p for p.UserID. Counters always start at zero; they
// only move through interactions.
func CreatePostman(ctx context.Context, db *sql.DB, p *models.Postman) error {
	if err := validatePostman(p); err != nil {
		return err
	}
	p.GiveScore, p.TakeScore = 0, 0

	prepareNewPostman(p)
	return insertPostman(ctx, db, p)
}

// CreatePostmanWithHistory inserts p together with p.GiveScore GIVE and
// p.TakeScore TAKE interactions in one transaction, so the counters match the
// interaction rows from the start. The interactions are dated at p.LastContact,
// or now when it is unset.
func CreatePostmanWithHistory(ctx context.Context, db *sql.DB, p *models.Postman) error {
	if err := validatePostman(p); err != nil {
		return err
	}
	prepareNewPostman(p)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insertPostman(ctx, tx, p); err != nil {
		return err
	}

	date := p.CreatedAt
	if p.LastContact != nil {
		date = *p.LastContact
	}
	for _, batch := range []struct {
		typ models.InteractionType
		n   int
	}{
		{models.InteractionGive, p.GiveScore},
		{models.InteractionTake, p.TakeScore},
	} {
		for range batch.n {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO interactions (id, user_id, postman_id, type, category, description, date, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, uuid.New().String(), p.UserID.String(), p.ID.String(), batch.typ,
				ImportCategory, ImportDescription, date, p.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert interaction: %w", err)
			}
		}
	}

	return tx.Commit()
}

func prepareNewPostman(p *models.Postman) {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertPostman(ctx context.Context, db execer, p *models.Postman) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO postmen (`+postmanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID.String(), p.UserID.String(), p.Name, p.Company, p.Position, p.Phone, p.Email, p.Category, p.Stage,
		p.GiveScore, p.TakeScore, p.LastContact, p.Notes, p.ProfileImage, p.Birthday,
		p.Strengths, p.Interests, p.Goals, p.BusinessSummary, p.LifePurpose, p.CreatedAt, p.UpdatedAt)
	if isForeignKeyViolation(err) {
		return apperr.NotFoundf("user %s not found", p.UserID)
	}
	return err
}

func GetPostman(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Postman, error) {
	p, err := scanPostman(db.QueryRowContext(ctx, `SELECT `+postmanColumns+` FROM postmen WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

type PostmanOrder int

const (
	OrderRecent PostmanOrder = iota
	OrderName
)

type PostmanFilter struct {
	UserID   uuid.UUID // uuid.Nil lists every user's postmen
	Query    string    // matches name, company or email
	Stage    models.Stage
	Category models.Category
	Order    PostmanOrder
	Limit    int // 0 means no limit
}

func ListPostmen(ctx context.Context, db *sql.DB, f PostmanFilter) ([]models.Postman, error) {
	var where []string
	var args []any

	if f.UserID != uuid.Nil {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID.String())
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(company) LIKE ? OR LOWER(email) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	if f.Stage != "" {
		where = append(where, "stage = ?")
		args = append(args, f.Stage)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}

	query := `SELECT ` + postmanColumns + ` FROM postmen`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	switch f.Order {
	case OrderName:
		query += " ORDER BY name COLLATE NOCASE, created_at"
	default:
		query += " ORDER BY created_at DESC"
	}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var postmen []models.Postman
	for rows.Next() {
		p, err := scanPostman(rows)
		if err != nil {
			return nil, err
		}
		postmen = append(postmen, *p)
	}
	return postmen, rows.Err()
}

// PostmanUpdate carries a partial update; nil fields are unchanged.
// Give and take counters are owned by interactions and cannot be set here.
type PostmanUpdate struct {
	Name            *string
	Company         *string
	Position        *string
	Phone           *string
	Email           *string
	Category        *models.Category
	Stage           *models.Stage
	Notes           *string
	ProfileImage    *string
	Birthday        *time.Time
	Strengths       *string
	Interests       *string
	Goals           *string
	BusinessSummary *string
	LifePurpose     *string
}

func (u PostmanUpdate) apply(p *models.Postman) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Name, u.Name)
	set(&p.Company, u.Company)
	set(&p.Position, u.Position)
	set(&p.Phone, u.Phone)
	set(&p.Email, u.Email)
	set(&p.Notes, u.Notes)
	set(&p.ProfileImage, u.ProfileImage)
	set(&p.Strengths, u.Strengths)
	set(&p.Interests, u.Interests)
	set(&p.Goals, u.Goals)
	set(&p.BusinessSummary, u.BusinessSummary)
	set(&p.LifePurpose, u.LifePurpose)
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Stage != nil {
		p.Stage = *u.Stage
	}
	if u.Birthday != nil {
		p.Birthday = u.Birthday
	}
}

func UpdatePostman(ctx context.Context, db *sql.DB, id uuid.UUID, upd PostmanUpdate) (*models.Postman, error) {
	p, err := GetPostman(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFoundf("postman %s not found", id)
	}

	upd.apply(p)
	if err := validatePostman(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()

	_, err = db.ExecContext(ctx, `
		UPDATE postmen
		SET name = ?, company = ?, position = ?, phone = ?, email = ?, category = ?, stage = ?,
			notes = ?, profile_image = ?, birthday = ?, strengths = ?, interests = ?, goals = ?,
			business_summary = ?, life_purpose = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Company, p.Position, p.Phone, p.Email, p.Category, p.Stage,
		p.Notes, p.ProfileImage, p.Birthday, p.Strengths, p.Interests, p.Goals,
		p.BusinessSummary, p.LifePurpose, p.UpdatedAt, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to update postman: %w", err)
	}
	return p, nil
}

// DeletePostman removes a postman; its interactions go with it.
func DeletePostman(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM postmen WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete postman: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("postman %s not found", id)
	}
	return nil
}

// CountPostmen counts a user's postmen; uuid.Nil counts everyone's.
func CountPostmen(ctx context.Context, db *sql.DB, userID uuid.UUID) (int, error) {
	var n int
	var err error
	if userID == uuid.Nil {
		err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM postmen`).Scan(&n)
	} else {
		err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM postmen WHERE user_id = ?`, userID.String()).Scan(&n)
	}
	return n, err
}

// CountPostmenByStage tallies postmen per stage; uuid.Nil covers every user.
func CountPostmenByStage(ctx context.Context, db *sql.DB, userID uuid.UUID) (map[models.Stage]int, error) {
	query := `SELECT stage, COUNT(*) FROM postmen`
	var args []any
	if userID != uuid.Nil {
		query += " WHERE user_id = ?"
		args = append(args, userID.String())
	}
	query += " GROUP BY stage"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Stage]int)
	for rows.Next() {
		var stage models.Stage
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		counts[stage] = n
	}
	return counts, rows.Err()
}
