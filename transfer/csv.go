// ABOUTME: CSV export and import of a user's postmen
// ABOUTME: Spreadsheet-friendly format with a UTF-8 BOM and Korean column headers
package transfer

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

// Header is the first line of every export and the expected import layout.
var Header = []string{"이름", "회사", "직책", "전화번호", "이메일", "구분", "Give점수", "Take점수", "최근연락일", "메모"}

const (
	bom          = "\uFEFF"
	maxRowErrors = 10
)

// ExportFilename names an export taken at now.
func ExportFilename(now time.Time) string {
	return "postman_" + now.UTC().Format(models.DateLayout) + ".csv"
}

// Export writes every postman of userID, ordered by name.
func Export(ctx context.Context, database *sql.DB, w io.Writer, userID uuid.UUID) (int, error) {
	postmen, err := db.ListPostmen(ctx, database, db.PostmanFilter{UserID: userID, Order: db.OrderName})
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(bom)
	bw.WriteString(strings.Join(Header, ","))
	for _, p := range postmen {
		lastContact := ""
		if p.LastContact != nil {
			lastContact = p.LastContact.UTC().Format(models.DateLayout)
		}
		fields := []string{
			p.Name,
			p.Company,
			p.Position,
			p.Phone,
			p.Email,
			string(p.Category),
			strconv.Itoa(p.GiveScore),
			strconv.Itoa(p.TakeScore),
			lastContact,
			flatten(p.Notes),
		}
		bw.WriteByte('\n')
		for i, f := range fields {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(quote(f))
		}
	}
	return len(postmen), bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

type ImportResult struct {
	SuccessCount int      `json:"successCount"`
	FailCount    int      `json:"failCount"`
	Errors       []string `json:"errors"`
}

func (r *ImportResult) fail(line int, msg string) {
	r.FailCount++
	if len(r.Errors) < maxRowErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("%d번째 줄: %s", line, msg))
	}
}

// Import creates one postman per data row for userID. Row failures are
// counted and reported by line number; they do not stop the import.
func Import(ctx context.Context, database *sql.DB, r io.Reader, userID uuid.UUID) (*ImportResult, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, []byte(bom)) {
		br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperr.Validationf("CSV 파일에 데이터가 없습니다")
		}
		return nil, apperr.Validationf("invalid CSV header: %v", err)
	}

	res := &ImportResult{Errors: []string{}}
	rows := 0
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			rows++
			res.fail(perr.StartLine, "CSV 형식 오류")
			continue
		}
		if err != nil {
			return res, err
		}
		rows++

		line, _ := cr.FieldPos(0)
		p, msg := rowToPostman(record, userID)
		if p == nil {
			res.fail(line, msg)
			continue
		}
		if err := db.CreatePostmanWithHistory(ctx, database, p); err != nil {
			res.fail(line, "처리 중 오류 발생 ("+err.Error()+")")
			continue
		}
		res.SuccessCount++
	}

	if rows == 0 {
		return nil, apperr.Validationf("CSV 파일에 데이터가 없습니다")
	}
	return res, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}

// rowToPostman maps one record; on failure it returns nil and a message.
func rowToPostman(record []string, userID uuid.UUID) (*models.Postman, string) {
	name := field(record, 0)
	if name == "" {
		return nil, "이름이 없습니다"
	}

	p := &models.Postman{
		UserID:    userID,
		Name:      name,
		Company:   field(record, 1),
		Position:  field(record, 2),
		Phone:     field(record, 3),
		Email:     field(record, 4),
		Category:  models.Category(field(record, 5)),
		GiveScore: atoiOrZero(field(record, 6)),
		TakeScore: atoiOrZero(field(record, 7)),
		Notes:     field(record, 9),
	}
	if p.GiveScore > maxImportedScore || p.TakeScore > maxImportedScore {
		return nil, fmt.Sprintf("Give/Take 점수는 %d 이하여야 합니다", maxImportedScore)
	}

	if s := field(record, 8); s != "" {
		t, err := parseContactDate(s)
		if err != nil {
			return nil, fmt.Sprintf("최근연락일 형식 오류 (%s)", s)
		}
		p.LastContact = &t
	}
	return p, ""
}

// maxImportedScore bounds the interactions synthesized for one imported row.
const maxImportedScore = 1000

// atoiOrZero reads a counter, treating blanks, garbage and negatives as zero.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseContactDate(s string) (time.Time, error) {
	for _, layout := range []string{models.DateLayout, time.RFC3339, "2006/01/02", "2006.01.02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
