// ABOUTME: Tests for user account operations
// ABOUTME: Covers hashing, unique emails, EnsureUser and role updates
package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/models"
)

func TestCreateUserHashesPassword(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := &models.User{Name: "Kim", Email: "  Kim@Example.com "}
	require.NoError(t, CreateUser(ctx, db, u, "s3cret"))

	assert.Equal(t, "kim@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	got, err := GetUserByEmail(ctx, db, "KIM@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, CheckPassword(got, "s3cret"))
	assert.False(t, CheckPassword(got, "wrong"))
	assert.True(t, got.IsActive)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, CreateUser(ctx, db, &models.User{Email: "a@example.com"}, ""))
	err := CreateUser(ctx, db, &models.User{Email: "A@example.com"}, "")

	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first, err := EnsureUser(ctx, db, "me@localhost", "Me")
	require.NoError(t, err)
	second, err := EnsureUser(ctx, db, "me@localhost", "Someone else")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Me", second.Name)
}

func TestGetUserMissing(t *testing.T) {
	db := setupTestDB(t)

	u, err := GetUser(context.Background(), db, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "u@example.com")

	admin := models.RoleAdmin
	inactive := false
	updated, err := UpdateUser(ctx, db, u.ID, &admin, &inactive)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.False(t, updated.IsActive)

	counts, err := CountUsers(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, UserCounts{Total: 1, Active: 0, Admins: 1}, counts)

	bad := models.Role("root")
	_, err = UpdateUser(ctx, db, u.ID, &bad, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = UpdateUser(ctx, db, uuid.New(), &admin, nil)
	assert.True(t, apperr.IsNotFound(err))
}

func TestTouchLastLogin(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "u@example.com")

	at := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, TouchLastLogin(ctx, db, u.ID, at))

	got, err := GetUser(ctx, db, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, at.Equal(*got.LastLoginAt))

	users, err := ListUsers(ctx, db)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
