// ABOUTME: Tests for dashboards, admin reporting, calendar feed and graphs
// ABOUTME: Seeds a real SQLite database per test and checks the aggregated output
package viz

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "viz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

type fixture struct {
	db   *sql.DB
	user *models.User
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := setupTestDB(t)
	u := &models.User{Name: "Owner", Email: "owner@example.com"}
	require.NoError(t, db.CreateUser(context.Background(), database, u, ""))
	return &fixture{db: database, user: u, now: time.Now().UTC()}
}

func (f *fixture) postman(t *testing.T, name string, mutate ...func(*models.Postman)) *models.Postman {
	t.Helper()
	p := &models.Postman{UserID: f.user.ID, Name: name}
	for _, m := range mutate {
		m(p)
	}
	require.NoError(t, db.CreatePostman(context.Background(), f.db, p))
	return p
}

func (f *fixture) interact(t *testing.T, p *models.Postman, typ models.InteractionType, category string, daysAgo int) {
	t.Helper()
	in := &models.Interaction{
		UserID:      f.user.ID,
		PostmanID:   p.ID,
		Type:        typ,
		Category:    category,
		Description: "note",
		Date:        f.now.AddDate(0, 0, -daysAgo),
	}
	require.NoError(t, db.CreateInteraction(context.Background(), f.db, in))
}

func (f *fixture) log(t *testing.T, daysAgo int, content string) {
	t.Helper()
	l := &models.DailyLog{
		UserID:  f.user.ID,
		Date:    f.now.AddDate(0, 0, -daysAgo).Format(models.DateLayout),
		Content: content,
	}
	require.NoError(t, db.UpsertDailyLog(context.Background(), f.db, l))
}

func TestScorePostmenRanksBestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	quiet := f.postman(t, "Quiet")
	busy := f.postman(t, "Busy", func(p *models.Postman) { p.Phone = "010" })
	for range 3 {
		f.interact(t, busy, models.InteractionGive, "식사", 2)
		f.interact(t, busy, models.InteractionTake, "소개", 2)
	}

	scored, err := ScorePostmen(ctx, f.db, f.user.ID, f.now)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	assert.Equal(t, busy.ID, scored[0].Postman.ID)
	assert.Equal(t, 30+30+20+2, scored[0].Total)
	assert.Equal(t, quiet.ID, scored[1].Postman.ID)
	assert.Equal(t, 0, scored[1].Total)
}

func TestScorePostmanRejectsOtherUsers(t *testing.T) {
	f := newFixture(t)
	p := f.postman(t, "Mine")

	other := &models.User{Name: "Other", Email: "other@example.com"}
	require.NoError(t, db.CreateUser(context.Background(), f.db, other, ""))

	_, err := ScorePostman(context.Background(), f.db, other.ID, p.ID, f.now)
	require.Error(t, err)

	s, err := ScorePostman(context.Background(), f.db, f.user.ID, p.ID, f.now)
	require.NoError(t, err)
	assert.Equal(t, "Mine", s.Postman.Name)
}

func TestGenerateUserDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kim := f.postman(t, "Kim", func(p *models.Postman) { p.Category = models.CategoryPlus })
	lee := f.postman(t, "Lee")
	f.postman(t, "Park")

	f.interact(t, kim, models.InteractionGive, "식사", 0)
	f.interact(t, kim, models.InteractionGive, "선물", 1)
	f.interact(t, kim, models.InteractionTake, "식사", 3)
	f.interact(t, lee, models.InteractionTake, "소개", 45)

	f.log(t, 0, "today")
	f.log(t, 1, "yesterday")
	f.log(t, 3, "earlier")

	err := db.UpsertWeeklyPlan(ctx, f.db, &models.WeeklyPlan{
		UserID:    f.user.ID,
		WeekStart: f.now.Format(models.DateLayout),
		Goals: [3]models.PlanGoal{
			{Text: "call Kim", Status: models.PlanDone},
			{Text: "send letters"},
		},
	})
	require.NoError(t, err)

	d, err := GenerateUserDashboard(ctx, f.db, f.user.ID, f.now)
	require.NoError(t, err)

	assert.Equal(t, 3, d.Summary.TotalPostmen)
	assert.Equal(t, 2, d.Summary.TotalGive)
	assert.Equal(t, 2, d.Summary.TotalTake)
	assert.Equal(t, 4, d.Summary.TotalInteractions)
	assert.Equal(t, 50, d.Summary.GivePct)

	require.Len(t, d.TopGive, 1)
	assert.Equal(t, "Kim", d.TopGive[0].Name)
	require.Len(t, d.TopTake, 2)
	assert.Equal(t, "Kim", d.TopActive[0].Name)
	assert.Equal(t, 3, d.TopActive[0].Total)

	assert.Equal(t, 1, d.CategoryCount[models.CategoryPlus])
	assert.Equal(t, 2, d.CategoryCount[models.CategoryDefault])
	assert.Equal(t, 3, d.Pipeline[0].Count)

	monthlyTotal := 0
	for _, m := range d.Monthly {
		monthlyTotal += m.Give + m.Take
	}
	assert.Equal(t, 4, monthlyTotal)
	require.Len(t, d.Monthly, 6)
	assert.Equal(t, "식사", d.InteractionCategories[0].Name)
	assert.Equal(t, 2, d.InteractionCategories[0].Count)
	assert.Len(t, d.Latest, 4)

	require.Len(t, d.LogStatus, 7)
	assert.True(t, d.LogStatus[6].HasLog)
	assert.True(t, d.LogStatus[5].HasLog)
	assert.False(t, d.LogStatus[4].HasLog)
	assert.True(t, d.LogStatus[3].HasLog)

	assert.Equal(t, 2, d.Streak.CurrentStreak)
	assert.Equal(t, 2, d.Streak.MaxStreak)

	require.NotNil(t, d.WeekPlan)
	assert.Equal(t, 1, d.WeekPlan.DoneCount)
	assert.Equal(t, 2, d.WeekPlan.TotalCount)
	assert.Equal(t, 50, d.WeekPlan.CompletionRate)

	require.Len(t, d.Neglected, 2)
	assert.Equal(t, "Park", d.Neglected[0].Name, "never-contacted postmen come first")
	assert.Equal(t, -1, d.Neglected[0].DaysSince)
	assert.Equal(t, "Lee", d.Neglected[1].Name)
	assert.Equal(t, 45, d.Neglected[1].DaysSince)

	require.NotEmpty(t, d.TopScored)
	assert.Equal(t, "Kim", d.TopScored[0].Postman.Name)

	out := RenderDashboard(d)
	assert.Contains(t, out, "DASHBOARD")
	assert.Contains(t, out, "Park")
	assert.Contains(t, out, "call Kim")
}

func TestNeglectedPostmenOrdering(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	at := func(days int) *time.Time {
		t := now.AddDate(0, 0, -days)
		return &t
	}
	postmen := []models.Postman{
		{Name: "fresh", LastContact: at(2)},
		{Name: "old", LastContact: at(100)},
		{Name: "never-a"},
		{Name: "month", LastContact: at(30)},
		{Name: "never-b"},
	}

	got := neglectedPostmen(postmen, now)

	names := make([]string, len(got))
	for i, n := range got {
		names[i] = n.Name
	}
	assert.Equal(t, []string{"never-a", "never-b", "old", "month"}, names)
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"johnsmith@example.com", "joh***@example.com"},
		{"abcd@x.io", "abc***@x.io"},
		{"abc@x.io", "a***@x.io"},
		{"a@x.io", "a***@x.io"},
		{"@x.io", "***@x.io"},
		{"not-an-email", "not-an-email"},
		{"김철수님@example.kr", "김철수***@example.kr"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskEmail(tt.in), tt.in)
	}
}

func TestAdminOverviewAndAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := &models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin}
	require.NoError(t, db.CreateUser(ctx, f.db, admin, ""))
	require.NoError(t, db.TouchLastLogin(ctx, f.db, admin.ID, f.now))

	kim := f.postman(t, "Kim", func(p *models.Postman) { p.Stage = models.StageVIP })
	f.interact(t, kim, models.InteractionGive, "식사", 0)
	f.interact(t, kim, models.InteractionGive, "식사", 1)
	f.interact(t, kim, models.InteractionTake, "소개", 2)
	f.log(t, 0, "today")

	o, err := GenerateAdminOverview(ctx, f.db, f.now)
	require.NoError(t, err)
	assert.Equal(t, 2, o.TotalUsers)
	assert.Equal(t, 2, o.ActiveUsers)
	assert.Equal(t, 1, o.TodayActiveUsers)
	assert.Equal(t, 1, o.TotalPostmen)
	assert.Equal(t, 3, o.TotalInteractions)
	assert.Equal(t, 1, o.TotalDailyLogs)
	assert.Equal(t, 2, o.WeeklySignups[6].Count)
	assert.Equal(t, 1, o.StageDistribution[4].Count)
	assert.Equal(t, 50, o.InactiveRate)

	a, err := GenerateAdminAnalytics(ctx, f.db, f.now)
	require.NoError(t, err)
	assert.Equal(t, 2, a.GiveCount)
	assert.Equal(t, 1, a.TakeCount)
	assert.Equal(t, 67, a.GivePct)
	assert.Equal(t, "식사", a.TopCategories[0].Name)
	assert.Equal(t, 0.1, a.AvgDailyInteractions)
	assert.Equal(t, 50, a.ChurnRate)
	assert.Equal(t, 2, a.MonthlySignups[5].Count)
}

func TestUserSummariesAndDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kim := f.postman(t, "Kim")
	f.interact(t, kim, models.InteractionGive, "식사", 0)
	f.interact(t, kim, models.InteractionTake, "식사", 0)
	f.log(t, 0, "a")
	f.log(t, 1, "b")
	f.log(t, 120, "old")

	summaries, err := ListUserSummaries(ctx, f.db, f.now)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, "own***@example.com", s.Email)
	assert.Equal(t, 1, s.Postmen)
	assert.Equal(t, 2, s.Interactions)
	assert.Equal(t, 3, s.DailyLogs)
	assert.Equal(t, 2, s.RecentLogDays)

	d, err := GenerateUserDetail(ctx, f.db, f.user.ID, f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalGive)
	assert.Equal(t, 1, d.TotalTake)
	assert.Len(t, d.LogHeatmap, 2)
	assert.Equal(t, 2, d.Streak.CurrentStreak)
	require.Len(t, d.Monthly, 6)
	assert.Equal(t, 2, d.Monthly[5].Interactions)
}

func TestCalendarEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kim := f.postman(t, "Kim", func(p *models.Postman) { p.Company = "Acme" })
	f.interact(t, kim, models.InteractionGive, "식사", 0)
	f.interact(t, kim, models.InteractionTake, "소개", 20)
	f.log(t, 0, strings.Repeat("가", 150))

	events, err := CalendarEvents(ctx, f.db, f.user.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "[GIVE] Kim - 식사", events[0].Title)
	assert.Equal(t, EventInteraction, events[0].Type)
	assert.Equal(t, "Acme", events[0].PostmanCompany)
	assert.Equal(t, EventDailyLog, events[2].Type)
	assert.Equal(t, 100, len([]rune(events[2].Description)))

	ranged, err := CalendarEvents(ctx, f.db, f.user.ID, f.now.AddDate(0, 0, -7), f.now)
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}

func TestGeneratePipelineGraph(t *testing.T) {
	f := newFixture(t)
	f.postman(t, "Kim", func(p *models.Postman) { p.Stage = models.StageVIP })
	f.postman(t, "Lee")

	out, err := NewGraphGenerator(f.db).GeneratePipelineGraph(context.Background(), f.user.ID)
	require.NoError(t, err)

	assert.Contains(t, out, "stage_first_meeting")
	assert.Contains(t, out, "stage_vip")
	assert.Contains(t, out, "Kim")
	assert.Contains(t, out, "Lee")
}

func TestGeneratePostmanGraph(t *testing.T) {
	f := newFixture(t)
	kim := f.postman(t, "Kim")
	f.interact(t, kim, models.InteractionGive, "식사", 1)
	f.interact(t, kim, models.InteractionTake, "식사", 2)

	out, err := NewGraphGenerator(f.db).GeneratePostmanGraph(context.Background(), f.user.ID, kim.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "G1 T1")
}

func TestSystemReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := db.Backup(ctx, f.db, dir, f.now)
	require.NoError(t, err)
	_, err = db.AppendAdminLog(ctx, f.db, f.user.ID, models.ActionManualBackup, "")
	require.NoError(t, err)

	r, err := GenerateSystemReport(ctx, f.db, dir, f.now.Add(-time.Minute), f.now)
	require.NoError(t, err)
	assert.Len(t, r.Tables, len(db.Tables))
	assert.Positive(t, r.DatabaseBytes)
	assert.Len(t, r.Backups, 1)
	assert.Len(t, r.AdminLogs, 1)
	assert.Equal(t, int64(60), r.Runtime.UptimeSecond)
}
