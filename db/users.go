// ABOUTME: User account database operations
// ABOUTME: Creates accounts with bcrypt hashes and manages role, active flag and last login
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/models"
)

const userColumns = `id, name, email, password_hash, role, is_active, created_at, last_login_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser stores a new account. An empty password leaves the hash empty,
// which is how locally provisioned CLI users are created.
func CreateUser(ctx context.Context, db *sql.DB, user *models.User, password string) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" {
		return apperr.Validationf("email is required")
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Role != models.RoleUser && user.Role != models.RoleAdmin {
		return apperr.Validationf("invalid role %q", user.Role)
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	user.ID = uuid.New()
	user.IsActive = true
	user.CreatedAt = time.Now().UTC()

	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID.String(), user.Name, user.Email, user.PasswordHash, user.Role, user.IsActive, user.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflictf("email %s is already registered", user.Email)
	}
	return err
}

// CheckPassword reports whether password matches the user's stored hash.
func CheckPassword(user *models.User, password string) bool {
	if user.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func GetUser(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// EnsureUser returns the account for email, creating it on first use.
func EnsureUser(ctx context.Context, db *sql.DB, email, name string) (*models.User, error) {
	u, err := GetUserByEmail(ctx, db, email)
	if err != nil || u != nil {
		return u, err
	}

	u = &models.User{Name: name, Email: email}
	if err := CreateUser(ctx, db, u, ""); err != nil {
		return nil, err
	}
	return u, nil
}

func ListUsers(ctx context.Context, db *sql.DB) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser changes a user's role and/or active flag. Nil arguments are left alone.
func UpdateUser(ctx context.Context, db *sql.DB, id uuid.UUID, role *models.Role, active *bool) (*models.User, error) {
	u, err := GetUser(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFoundf("user %s not found", id)
	}

	if role != nil {
		if *role != models.RoleUser && *role != models.RoleAdmin {
			return nil, apperr.Validationf("invalid role %q", *role)
		}
		u.Role = *role
	}
	if active != nil {
		u.IsActive = *active
	}

	_, err = db.ExecContext(ctx, `UPDATE users SET role = ?, is_active = ? WHERE id = ?`, u.Role, u.IsActive, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func TouchLastLogin(ctx context.Context, db *sql.DB, id uuid.UUID, at time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at.UTC(), id.String())
	return err
}
