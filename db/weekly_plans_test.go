// ABOUTME: Tests for weekly plan operations
// ABOUTME: Week normalization, JSON round trips of goals and meetings, upsert semantics
package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/models"
)

func TestWeekStartOf(t *testing.T) {
	ws, err := WeekStartOf("2026-10-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-12", ws)

	ws, err = WeekStartOf("2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-12", ws)

	_, err = WeekStartOf("someday")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpsertWeeklyPlan(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "u@example.com")
	p := createTestPostman(t, db, u, "Kim")

	plan := &models.WeeklyPlan{
		UserID:    u.ID,
		WeekStart: "2026-10-15",
		Goals: [models.MaxPlanGoals]models.PlanGoal{
			{Text: "call three postmen", Status: "doing"},
			{Text: "send a gift"},
		},
		Meetings: []models.MeetingPrep{{PostmanID: &p.ID, TargetName: "Kim", Purpose: "catch up", ScheduledAt: "2026-10-16T12:00"}},
	}
	require.NoError(t, UpsertWeeklyPlan(ctx, db, plan))
	assert.Equal(t, "2026-10-12", plan.WeekStart)
	assert.Equal(t, models.PlanDoing, plan.Goals[0].Status)
	assert.Equal(t, models.PlanTodo, plan.Goals[1].Status)

	got, err := GetWeeklyPlan(ctx, db, u.ID, "2026-10-13")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, plan.ID, got.ID)
	assert.Equal(t, plan.Goals, got.Goals)
	require.Len(t, got.Meetings, 1)
	assert.Equal(t, p.ID, *got.Meetings[0].PostmanID)

	plan.Goals[0].Status = models.PlanDone
	plan.Meetings = nil
	require.NoError(t, UpsertWeeklyPlan(ctx, db, plan))

	got, err = GetWeeklyPlan(ctx, db, u.ID, "2026-10-12")
	require.NoError(t, err)
	assert.Equal(t, 1, got.DoneCount())
	assert.Empty(t, got.Meetings)

	plans, err := ListWeeklyPlans(ctx, db, u.ID, "", 0)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestUpsertWeeklyPlanValidation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "u@example.com")

	bad := &models.WeeklyPlan{UserID: u.ID, WeekStart: "2026-10-12"}
	bad.Goals[2].Status = "LATER"
	assert.ErrorIs(t, UpsertWeeklyPlan(ctx, db, bad), apperr.ErrValidation)

	tooMany := &models.WeeklyPlan{UserID: u.ID, WeekStart: "2026-10-12", Meetings: make([]models.MeetingPrep, 4)}
	assert.ErrorIs(t, UpsertWeeklyPlan(ctx, db, tooMany), apperr.ErrValidation)

	err := UpsertWeeklyPlan(ctx, db, &models.WeeklyPlan{UserID: uuid.New(), WeekStart: "2026-10-12"})
	assert.True(t, apperr.IsNotFound(err))
}

func TestListWeeklyPlansSince(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "u@example.com")

	for _, d := range []string{"2026-09-07", "2026-09-28", "2026-10-12"} {
		require.NoError(t, UpsertWeeklyPlan(ctx, db, &models.WeeklyPlan{UserID: u.ID, WeekStart: d}))
	}

	plans, err := ListWeeklyPlans(ctx, db, uuid.Nil, "2026-09-28", 0)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "2026-10-12", plans[0].WeekStart)
}
