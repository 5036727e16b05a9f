// ABOUTME: Tests for the postman CLI commands
// ABOUTME: Runs commands against a temp database and inspects captured output
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationcraft/postman/config"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

func setupTestCLI(t *testing.T) (*Env, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	database, err := db.OpenDatabase(filepath.Join(dir, "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	user, err := db.EnsureUser(context.Background(), database, "me@localhost", "Me")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.BackupDir = filepath.Join(dir, "backups")

	var out bytes.Buffer
	env := NewEnv(database, user, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	env.Out = &out
	return env, &out
}

func promote(t *testing.T, env *Env) {
	t.Helper()
	role := models.RoleAdmin
	u, err := db.UpdateUser(context.Background(), env.DB, env.User.ID, &role, nil)
	require.NoError(t, err)
	env.User = u
}

func TestAddAndListPostmen(t *testing.T) {
	env, out := setupTestCLI(t)

	require.NoError(t, AddPostmanCommand(env, []string{"--name", "Kim Minsu", "--company", "Acme", "--stage", "vip"}))
	assert.Contains(t, out.String(), "✓ Postman created: Kim Minsu")
	assert.Contains(t, out.String(), "VIP")

	out.Reset()
	require.NoError(t, ListPostmenCommand(env, nil))
	assert.Contains(t, out.String(), "Kim Minsu")
	assert.Contains(t, out.String(), "Total: 1 postman(s)")

	assert.Error(t, AddPostmanCommand(env, []string{"--company", "NoName"}))
}

func TestResolvePostmanByNameAndPrefix(t *testing.T) {
	env, _ := setupTestCLI(t)
	ctx := context.Background()
	require.NoError(t, AddPostmanCommand(env, []string{"--name", "Lee"}))
	require.NoError(t, AddPostmanCommand(env, []string{"--name", "Park"}))

	p, err := env.resolvePostman(ctx, "lee")
	require.NoError(t, err)
	assert.Equal(t, "Lee", p.Name)

	byPrefix, err := env.resolvePostman(ctx, p.ID.String()[:8])
	require.NoError(t, err)
	assert.Equal(t, p.ID, byPrefix.ID)

	_, err = env.resolvePostman(ctx, "nobody")
	assert.Error(t, err)
}

func TestUpdateAndDeletePostman(t *testing.T) {
	env, out := setupTestCLI(t)
	require.NoError(t, AddPostmanCommand(env, []string{"--name", "Choi"}))

	out.Reset()
	require.NoError(t, UpdatePostmanCommand(env, []string{"--stage", "신뢰구축", "--notes", "golf", "Choi"}))
	assert.Contains(t, out.String(), "신뢰구축")

	p, err := env.resolvePostman(context.Background(), "Choi")
	require.NoError(t, err)
	assert.Equal(t, "golf", p.Notes)

	require.NoError(t, DeletePostmanCommand(env, []string{"Choi"}))
	_, err = env.resolvePostman(context.Background(), "Choi")
	assert.Error(t, err)
}

func TestInteractionCommandsMoveCounters(t *testing.T) {
	env, out := setupTestCLI(t)
	require.NoError(t, AddPostmanCommand(env, []string{"--name", "Jung"}))

	out.Reset()
	require.NoError(t, AddInteractionCommand(env, []string{
		"--postman", "Jung", "--type", "give", "--category", "소개", "--desc", "intro to a VC",
	}))
	assert.Contains(t, out.String(), "Give/Take: 1 / 0")

	out.Reset()
	require.NoError(t, ListInteractionsCommand(env, []string{"--postman", "Jung"}))
	assert.Contains(t, out.String(), "intro to a VC")

	interactions, err := db.ListInteractions(context.Background(), env.DB, db.InteractionFilter{UserID: env.User.ID})
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	require.NoError(t, DeleteInteractionCommand(env, []string{interactions[0].ID.String()}))

	p, err := env.resolvePostman(context.Background(), "Jung")
	require.NoError(t, err)
	assert.Equal(t, 0, p.GiveScore)
}

func TestShowPostmanIncludesScore(t *testing.T) {
	env, out := setupTestCLI(t)
	require.NoError(t, AddPostmanCommand(env, []string{"--name", "Han", "--phone", "010"}))

	out.Reset()
	require.NoError(t, ShowPostmanCommand(env, []string{"Han"}))
	assert.Contains(t, out.String(), "Score:")
	assert.Contains(t, out.String(), "/100")
}

func TestLogWriteAndStreak(t *testing.T) {
	env, out := setupTestCLI(t)
	now := env.Now()

	for i := 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format(models.DateLayout)
		require.NoError(t, WriteLogCommand(env, []string{"--date", date, "--content", "sent letters", "--letters", "2"}))
	}
	assert.Contains(t, out.String(), "Streak: 2 day(s)")

	out.Reset()
	require.NoError(t, ShowLogCommand(env, nil))
	assert.Contains(t, out.String(), "sent letters")
	assert.Contains(t, out.String(), "Letters 2")

	out.Reset()
	require.NoError(t, StreakCommand(env, nil))
	assert.Contains(t, out.String(), "Current streak: 2")

	assert.Error(t, WriteLogCommand(env, []string{"--content", ""}))
}

func TestPlanCommands(t *testing.T) {
	env, out := setupTestCLI(t)
	env.Now = func() time.Time { return time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, SetPlanCommand(env, []string{
		"--goal", "Call three postmen|DONE",
		"--goal", "Send a gift",
		"--meet", "Kim",
	}))
	assert.Contains(t, out.String(), "2024-05-13")

	out.Reset()
	require.NoError(t, ShowPlanCommand(env, nil))
	assert.Contains(t, out.String(), "(1/2 done)")
	assert.Contains(t, out.String(), "[TODO] Send a gift")
	assert.Contains(t, out.String(), "Kim")

	assert.Error(t, SetPlanCommand(env, []string{"--goal", "a", "--goal", "b", "--goal", "c", "--goal", "d"}))
}

func TestDashboardPrintsJSONWhenNotATerminal(t *testing.T) {
	env, out := setupTestCLI(t)
	require.NoError(t, AddPostmanCommand(env, []string{"--name", "Yoon"}))

	out.Reset()
	require.NoError(t, DashboardCommand(env, nil))
	var d map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &d))
	assert.Contains(t, d, "summary")
	assert.Contains(t, d, "neglected")
}

func TestExportImportRoundTrip(t *testing.T) {
	env, out := setupTestCLI(t)
	require.NoError(t, AddPostmanCommand(env, []string{"--name", "Shin", "--company", "Acme"}))

	path := filepath.Join(t.TempDir(), "postmen.csv")
	require.NoError(t, ExportCommand(env, []string{"--output", path}))
	assert.Contains(t, out.String(), "Exported 1 postman(s)")

	other, err := db.EnsureUser(context.Background(), env.DB, "other@localhost", "Other")
	require.NoError(t, err)
	env.User = other

	out.Reset()
	require.NoError(t, ImportCommand(env, []string{path}))
	assert.Contains(t, out.String(), "Imported 1 postman(s), 0 failed")

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestVizCommands(t *testing.T) {
	env, out := setupTestCLI(t)
	require.NoError(t, AddPostmanCommand(env, []string{"--name", "Oh"}))

	out.Reset()
	require.NoError(t, VizGraphPipelineCommand(env, nil))
	assert.Contains(t, out.String(), "digraph")

	require.NoError(t, AddInteractionCommand(env, []string{"--postman", "Oh", "--type", "TAKE", "--category", "정보", "--desc", "market tips"}))
	out.Reset()
	require.NoError(t, CalendarCommand(env, nil))
	assert.Contains(t, out.String(), "[TAKE] Oh - 정보")
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	env, _ := setupTestCLI(t)
	assert.Error(t, AdminOverviewCommand(env, nil))
	assert.Error(t, AdminBackupCommand(env, nil))
}

func TestAdminNoticeAndBackupAreAudited(t *testing.T) {
	env, out := setupTestCLI(t)
	promote(t, env)

	require.NoError(t, AdminNoticeAddCommand(env, []string{"--title", "Hello", "--content", "World"}))
	require.NoError(t, AdminBackupCommand(env, nil))
	assert.Contains(t, out.String(), "Backup written")

	logs, err := db.ListAdminLogs(context.Background(), env.DB, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	actions := []models.AdminAction{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []models.AdminAction{models.ActionCreateNotice, models.ActionManualBackup}, actions)

	out.Reset()
	require.NoError(t, AdminUsersCommand(env, nil))
	assert.True(t, strings.Contains(out.String(), "m***@localhost"), out.String())
}

func TestAdminSystemReportsUptimeSinceStart(t *testing.T) {
	env, out := setupTestCLI(t)
	promote(t, env)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	env.Now = func() time.Time { return now }
	env.StartedAt = now.Add(-90 * time.Minute)

	out.Reset()
	require.NoError(t, AdminSystemCommand(env, nil))
	var report struct {
		Runtime struct {
			UptimeSeconds int64 `json:"uptime_seconds"`
		} `json:"runtime"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, int64(5400), report.Runtime.UptimeSeconds)
}

func TestUserCommands(t *testing.T) {
	env, out := setupTestCLI(t)

	require.NoError(t, AddUserCommand(env, []string{"--email", "New@Example.com", "--name", "New"}))
	assert.Contains(t, out.String(), "new@example.com")

	require.NoError(t, SetUserCommand(env, []string{"--role", "admin", "new@example.com"}))
	u, err := db.GetUserByEmail(context.Background(), env.DB, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	assert.Error(t, SetUserCommand(env, []string{"new@example.com"}))
	assert.Error(t, AddUserCommand(env, []string{"--email", "new@example.com"}))
}
