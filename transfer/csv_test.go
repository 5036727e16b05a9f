// ABOUTME: Tests for postman CSV export and import
// ABOUTME: Exports then re-imports into a fresh user and checks row-level error reporting
package transfer

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

func setup(t *testing.T) (*sql.DB, *models.User) {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	u, err := db.EnsureUser(context.Background(), database, "me@example.com", "Me")
	require.NoError(t, err)
	return database, u
}

func TestExportFormat(t *testing.T) {
	database, u := setup(t)
	ctx := context.Background()

	last := time.Date(2026, 10, 1, 15, 0, 0, 0, time.UTC)
	require.NoError(t, db.CreatePostmanWithHistory(ctx, database, &models.Postman{
		UserID: u.ID, Name: "이순신", Company: `Navy "Turtle" Co`, GiveScore: 3, TakeScore: 1,
		LastContact: &last, Notes: "line one\nline two",
	}))
	require.NoError(t, db.CreatePostman(ctx, database, &models.Postman{UserID: u.ID, Name: "강감찬", Category: models.CategoryPlus}))

	var buf bytes.Buffer
	n, err := Export(ctx, database, &buf, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\uFEFF이름,회사,직책,전화번호,이메일,구분,Give점수,Take점수,최근연락일,메모\n"))

	lines := strings.Split(strings.TrimPrefix(out, "\uFEFF"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"강감찬","","","","","포스트맨PLUS","0","0","",""`, lines[1])
	assert.Equal(t, `"이순신","Navy ""Turtle"" Co","","","","포스트맨","3","1","2026-10-01","line one line two"`, lines[2])
}

func TestExportImportRoundTrip(t *testing.T) {
	database, u := setup(t)
	ctx := context.Background()

	last := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.CreatePostmanWithHistory(ctx, database, &models.Postman{
		UserID: u.ID, Name: "Kim", Phone: "010-1111-2222", Email: "kim@example.com",
		GiveScore: 4, TakeScore: 2, LastContact: &last, Notes: "likes tea",
	}))

	var buf bytes.Buffer
	_, err := Export(ctx, database, &buf, u.ID)
	require.NoError(t, err)

	other, err := db.EnsureUser(ctx, database, "other@example.com", "Other")
	require.NoError(t, err)

	res, err := Import(ctx, database, &buf, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Zero(t, res.FailCount)

	imported, err := db.ListPostmen(ctx, database, db.PostmanFilter{UserID: other.ID})
	require.NoError(t, err)
	require.Len(t, imported, 1)
	p := imported[0]
	assert.Equal(t, "Kim", p.Name)
	assert.Equal(t, "010-1111-2222", p.Phone)
	assert.Equal(t, 4, p.GiveScore)
	assert.Equal(t, 2, p.TakeScore)
	require.NotNil(t, p.LastContact)
	assert.True(t, last.Equal(*p.LastContact))
	assert.Equal(t, "likes tea", p.Notes)

	gives, err := db.CountInteractions(ctx, database, db.InteractionFilter{PostmanID: p.ID, Type: models.InteractionGive})
	require.NoError(t, err)
	assert.Equal(t, 4, gives)
}

func TestImportedCountersMatchInteractions(t *testing.T) {
	database, u := setup(t)
	ctx := context.Background()

	csv := "이름,회사,직책,전화번호,이메일,구분,Give점수,Take점수,최근연락일,메모\n" +
		"김철수,,,,,,5,2,,\n" +
		"박영희,,,,,,0,1,2026-09-01,\n"
	res, err := Import(ctx, database, strings.NewReader(csv), u.ID)
	require.NoError(t, err)
	require.Equal(t, 2, res.SuccessCount)

	drift, err := db.ReconcileCounters(ctx, database, true)
	require.NoError(t, err)
	assert.Empty(t, drift)

	imported, err := db.ListPostmen(ctx, database, db.PostmanFilter{UserID: u.ID, Order: db.OrderName})
	require.NoError(t, err)
	require.Len(t, imported, 2)
	kim := imported[0]
	assert.Equal(t, "김철수", kim.Name)
	assert.Equal(t, 5, kim.GiveScore)
	assert.Equal(t, 2, kim.TakeScore)
	assert.Nil(t, kim.LastContact)

	history, err := db.ListInteractions(ctx, database, db.InteractionFilter{PostmanID: imported[1].ID})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, db.ImportCategory, history[0].Category)
	assert.Equal(t, "2026-09-01", history[0].Date.Format(models.DateLayout))

	_, err = db.ReconcileCounters(ctx, database, false)
	require.NoError(t, err)
	after, err := db.GetPostman(ctx, database, kim.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.GiveScore, "reconcile keeps imported counters")
}

func TestImportRejectsHugeCounters(t *testing.T) {
	database, u := setup(t)
	csv := "이름,회사,직책,전화번호,이메일,구분,Give점수,Take점수,최근연락일,메모\n" +
		"김철수,,,,,,100000,0,,\n"
	res, err := Import(context.Background(), database, strings.NewReader(csv), u.ID)
	require.NoError(t, err)
	assert.Zero(t, res.SuccessCount)
	assert.Equal(t, 1, res.FailCount)
}

func TestImportReportsRowErrors(t *testing.T) {
	database, u := setup(t)

	input := strings.Join([]string{
		"이름,회사,직책,전화번호,이메일,구분,Give점수,Take점수,최근연락일,메모",
		`"Alice","A Co","","","","","x","-3","",""`,
		`"","nameless"`,
		`"Bob","","","","","골드","0","0","",""`,
		`"Carol","","","","","","1","1","not a date",""`,
		`Dave`,
	}, "\n")

	res, err := Import(context.Background(), database, strings.NewReader(input), u.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 3, res.FailCount)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "3번째 줄: 이름이 없습니다", res.Errors[0])
	assert.True(t, strings.HasPrefix(res.Errors[1], "4번째 줄: 처리 중 오류 발생"))
	assert.True(t, strings.HasPrefix(res.Errors[2], "5번째 줄: 최근연락일"))

	alice, err := db.ListPostmen(context.Background(), database, db.PostmanFilter{UserID: u.ID, Query: "alice"})
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Zero(t, alice[0].GiveScore)
	assert.Zero(t, alice[0].TakeScore)
}

func TestImportCapsErrorList(t *testing.T) {
	database, u := setup(t)

	var b strings.Builder
	b.WriteString("이름\n")
	for range 15 {
		b.WriteString(`""` + "\n")
	}

	res, err := Import(context.Background(), database, strings.NewReader(b.String()), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, res.FailCount)
	assert.Len(t, res.Errors, 10)
}

func TestImportRequiresData(t *testing.T) {
	database, u := setup(t)

	_, err := Import(context.Background(), database, strings.NewReader("\uFEFF이름,회사\n"), u.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Import(context.Background(), database, strings.NewReader(""), u.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "postman_2026-10-15.csv", ExportFilename(time.Date(2026, 10, 15, 23, 0, 0, 0, time.UTC)))
}
