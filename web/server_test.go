// ABOUTME: End-to-end tests for the JSON API through the chi router
// ABOUTME: Covers identity, ownership, validation, admin gating and uploads
package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationcraft/postman/config"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/metrics"
	"github.com/relationcraft/postman/models"
)

type testEnv struct {
	server *Server
	db     *sql.DB
	user   *models.User
	admin  *models.User
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	database, err := db.OpenDatabase(filepath.Join(dir, "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(dir, "web.db")
	cfg.UploadDir = filepath.Join(dir, "uploads")
	cfg.BackupDir = filepath.Join(dir, "backups")

	ctx := context.Background()
	user := &models.User{Name: "User", Email: "user@example.com"}
	require.NoError(t, db.CreateUser(ctx, database, user, ""))
	admin := &models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin}
	require.NoError(t, db.CreateUser(ctx, database, admin, ""))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{server: NewServer(database, cfg, logger), db: database, user: user, admin: admin}
}

func (e *testEnv) do(t *testing.T, method, path string, as *models.User, body any) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set(UserIDHeader, as.ID.String())
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	var env Envelope
	if ct := rec.Header().Get("Content-Type"); ct == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

// decodeData re-decodes the envelope's data field into dst.
func decodeData(t *testing.T, env Envelope, dst any) {
	t.Helper()
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func (e *testEnv) createPostman(t *testing.T, as *models.User, name string) models.Postman {
	t.Helper()
	rec, env := e.do(t, http.MethodPost, "/api/postmen", as, map[string]any{"name": name, "company": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p models.Postman
	decodeData(t, env, &p)
	return p
}

func TestHealthCheck(t *testing.T) {
	e := setupTestServer(t)
	rec, env := e.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestIdentityIsRequired(t *testing.T) {
	e := setupTestServer(t)

	rec, env := e.do(t, http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(UserIDHeader, uuid.NewString())
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	rec, env = e.do(t, http.MethodGet, "/api/me", e.user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	decodeData(t, env, &me)
	assert.Equal(t, e.user.ID, me.ID)
}

func TestInactiveUserIsForbidden(t *testing.T) {
	e := setupTestServer(t)
	off := false
	_, err := db.UpdateUser(context.Background(), e.db, e.user.ID, nil, &off)
	require.NoError(t, err)

	rec, env := e.do(t, http.MethodGet, "/api/postmen", e.user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "비활성화된 계정입니다", env.Error)
}

func TestPostmanCRUD(t *testing.T) {
	e := setupTestServer(t)
	p := e.createPostman(t, e.user, "Kim")
	assert.Equal(t, models.CategoryDefault, p.Category)
	assert.Equal(t, models.StageFirstMeeting, p.Stage)

	rec, env := e.do(t, http.MethodPut, "/api/postmen/"+p.ID.String(), e.user,
		map[string]any{"stage": "vip", "notes": "met at conference"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Postman
	decodeData(t, env, &updated)
	assert.Equal(t, models.StageVIP, updated.Stage)
	assert.Equal(t, "met at conference", updated.Notes)
	assert.Equal(t, "Acme", updated.Company)

	rec, env = e.do(t, http.MethodGet, "/api/postmen?q=kim", e.user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Postman
	decodeData(t, env, &list)
	assert.Len(t, list, 1)

	rec, _ = e.do(t, http.MethodDelete, "/api/postmen/"+p.ID.String(), e.user, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = e.do(t, http.MethodGet, "/api/postmen/"+p.ID.String(), e.user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOtherUsersPostmenAreHidden(t *testing.T) {
	e := setupTestServer(t)
	p := e.createPostman(t, e.user, "Private")

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/postmen/" + p.ID.String()},
		{http.MethodDelete, "/api/postmen/" + p.ID.String()},
		{http.MethodGet, "/api/postmen/" + p.ID.String() + "/score"},
	} {
		rec, _ := e.do(t, tc.method, tc.path, e.admin, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
	}

	rec, env := e.do(t, http.MethodGet, "/api/postmen", e.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Postman
	decodeData(t, env, &list)
	assert.Empty(t, list)
}

func TestValidationErrorsCarryFieldDetails(t *testing.T) {
	e := setupTestServer(t)

	rec, env := e.do(t, http.MethodPost, "/api/postmen", e.user, map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	details, ok := env.Details.(map[string]any)
	require.True(t, ok, "details should be a field map, got %T", env.Details)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")

	rec, _ = e.do(t, http.MethodPost, "/api/postmen", e.user, map[string]any{"name": "X", "birthday": "31/12/1990"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInteractionsMoveCounters(t *testing.T) {
	e := setupTestServer(t)
	p := e.createPostman(t, e.user, "Lee")

	body := map[string]any{
		"postman_id":  p.ID.String(),
		"type":        "GIVE",
		"category":    "소개",
		"description": "introduced to an investor",
		"date":        "2024-03-01",
	}
	rec, env := e.do(t, http.MethodPost, "/api/interactions", e.user, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var in models.Interaction
	decodeData(t, env, &in)
	assert.Equal(t, "2024-03-01", in.Date.Format(models.DateLayout))

	body["type"] = "take"
	rec, _ = e.do(t, http.MethodPost, "/api/interactions", e.user, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got, err := db.GetPostman(context.Background(), e.db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.GiveScore)
	assert.Equal(t, 1, got.TakeScore)

	rec, _ = e.do(t, http.MethodDelete, "/api/interactions/"+in.ID.String(), e.user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got, err = db.GetPostman(context.Background(), e.db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.GiveScore)
	assert.Equal(t, 1, got.TakeScore)

	rec, env = e.do(t, http.MethodGet, "/api/interactions?postman_id="+p.ID.String(), e.user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Interaction
	decodeData(t, env, &list)
	assert.Len(t, list, 1)
}

func TestInteractionOnForeignPostmanIsNotFound(t *testing.T) {
	e := setupTestServer(t)
	p := e.createPostman(t, e.user, "Lee")

	rec, _ := e.do(t, http.MethodPost, "/api/interactions", e.admin, map[string]any{
		"postman_id":  p.ID.String(),
		"type":        "GIVE",
		"category":    "소개",
		"description": "x",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDailyLogAndStreak(t *testing.T) {
	e := setupTestServer(t)
	today := e.server.today()

	rec, _ := e.do(t, http.MethodPut, "/api/daily-logs", e.user, map[string]any{
		"date":         today,
		"content":      "wrote three letters",
		"letters_sent": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := e.do(t, http.MethodGet, "/api/daily-logs/"+today, e.user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var l models.DailyLog
	decodeData(t, env, &l)
	assert.Equal(t, "wrote three letters", l.Content)

	rec, _ = e.do(t, http.MethodGet, "/api/daily-logs/2000-01-01", e.user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = e.do(t, http.MethodGet, "/api/daily-logs/streak", e.user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var streak metrics.StreakResult
	decodeData(t, env, &streak)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 1, streak.MaxStreak)
}

func TestDashboardAndGraphs(t *testing.T) {
	e := setupTestServer(t)
	p := e.createPostman(t, e.user, "Park")

	rec, env := e.do(t, http.MethodGet, "/api/dashboard", e.user, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.Success)

	rec, _ = e.do(t, http.MethodGet, "/api/graph/pipeline", e.user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "graphviz")
	assert.Contains(t, rec.Body.String(), "digraph")

	rec, _ = e.do(t, http.MethodGet, "/api/postmen/"+p.ID.String()+"/graph", e.user, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	e := setupTestServer(t)

	rec, env := e.do(t, http.MethodGet, "/api/admin/overview", e.user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "관리자 권한이 필요합니다", env.Error)

	for _, path := range []string{
		"/api/admin/overview",
		"/api/admin/analytics",
		"/api/admin/users",
		"/api/admin/users/" + e.user.ID.String(),
		"/api/admin/system",
		"/api/admin/logs",
	} {
		rec, _ := e.do(t, http.MethodGet, path, e.admin, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAdminUpdateUserIsAudited(t *testing.T) {
	e := setupTestServer(t)

	rec, env := e.do(t, http.MethodPut, "/api/admin/users/"+e.user.ID.String(), e.admin,
		map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var u models.User
	decodeData(t, env, &u)
	assert.False(t, u.IsActive)

	rec, _ = e.do(t, http.MethodPut, "/api/admin/users/"+e.admin.ID.String(), e.admin,
		map[string]any{"role": "user"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = e.do(t, http.MethodPut, "/api/admin/users/"+e.user.ID.String(), e.admin,
		map[string]any{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	logs, err := db.ListAdminLogs(context.Background(), e.db, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionUserUpdate, logs[0].Action)
	assert.Contains(t, logs[0].Detail, e.user.ID.String())
}

func TestAdminNoticeLifecycle(t *testing.T) {
	e := setupTestServer(t)

	rec, env := e.do(t, http.MethodPost, "/api/admin/notices", e.admin,
		map[string]any{"title": "Maintenance", "content": "Sunday 2am"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var n models.Notice
	decodeData(t, env, &n)
	assert.True(t, n.IsActive)

	rec, env = e.do(t, http.MethodGet, "/api/notices", e.user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var active []models.Notice
	decodeData(t, env, &active)
	assert.Len(t, active, 1)

	rec, _ = e.do(t, http.MethodPut, "/api/admin/notices/"+n.ID.String(), e.admin, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = e.do(t, http.MethodGet, "/api/notices", e.user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, env, &active)
	assert.Empty(t, active)

	rec, _ = e.do(t, http.MethodDelete, "/api/admin/notices/"+n.ID.String(), e.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	logs, err := db.ListAdminLogs(context.Background(), e.db, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestAdminBackup(t *testing.T) {
	e := setupTestServer(t)

	rec, env := e.do(t, http.MethodPost, "/api/admin/system/backup", e.admin, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var info db.BackupInfo
	decodeData(t, env, &info)
	assert.NotEmpty(t, info.Name)
	assert.Positive(t, info.Size)

	backups, err := db.ListBackups(e.server.cfg.BackupDir)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func uploadRequest(t *testing.T, as *models.User, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(UserIDHeader, as.ID.String())
	return req
}

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestUploadAcceptsImagesOnly(t *testing.T) {
	e := setupTestServer(t)

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, uploadRequest(t, e.user, "notes.txt", []byte("plain text, not an image")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	e.server.ServeHTTP(rec, uploadRequest(t, e.user, "face.png", pngHeader))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var res uploadResult
	decodeData(t, env, &res)
	assert.Equal(t, ".png", filepath.Ext(res.Name))

	get := httptest.NewRecorder()
	e.server.ServeHTTP(get, httptest.NewRequest(http.MethodGet, res.URL, nil))
	assert.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, pngHeader, get.Body.Bytes())
}

func TestUploadIsRateLimited(t *testing.T) {
	e := setupTestServer(t)
	e.server.limiter = NewKeyedRateLimiter(0.001, 1)

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, uploadRequest(t, e.user, "a.png", pngHeader))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	e.server.ServeHTTP(rec, uploadRequest(t, e.user, "b.png", pngHeader))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestExportThenImportRoundTrip(t *testing.T) {
	e := setupTestServer(t)
	e.createPostman(t, e.user, "Choi")

	rec, _ := e.do(t, http.MethodGet, "/api/postmen/export", e.user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "postmen.csv")
	require.NoError(t, err)
	_, err = part.Write(rec.Body.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/postmen/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(UserIDHeader, e.admin.ID.String())
	imp := httptest.NewRecorder()
	e.server.ServeHTTP(imp, req)
	require.Equal(t, http.StatusOK, imp.Code, imp.Body.String())

	n, err := db.CountPostmen(context.Background(), e.db, e.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
