// ABOUTME: Shared plumbing for the postman CLI commands
// ABOUTME: Holds the command environment, postman lookup and output helpers
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/config"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

// Env is what every command runs against: one database, acting as one user.
type Env struct {
	DB     *sql.DB
	User   *models.User
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer
	Now    func() time.Time
	// StartedAt is when the process started; uptime is measured from it.
	StartedAt time.Time
}

func NewEnv(database *sql.DB, user *models.User, cfg *config.Config, logger *slog.Logger) *Env {
	return &Env{
		DB:     database,
		User:   user,
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
		Now:    time.Now,

		StartedAt: time.Now(),
	}
}

func (e *Env) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.Out, format, args...)
}

func (e *Env) println(args ...any) {
	_, _ = fmt.Fprintln(e.Out, args...)
}

func (e *Env) today() string {
	return e.Now().Format(models.DateLayout)
}

// interactive reports whether output goes to a terminal.
func (e *Env) interactive() bool {
	f, ok := e.Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (e *Env) printJSON(v any) error {
	enc := json.NewEncoder(e.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *Env) requireAdmin() error {
	if e.User.Role != models.RoleAdmin {
		return apperr.Forbiddenf("%s is not an admin (promote with: postman user set %s --role admin)", e.User.Email, e.User.Email)
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// resolvePostman finds one of the user's postmen by full id, id prefix or
// exact name.
func (e *Env) resolvePostman(ctx context.Context, ref string) (*models.Postman, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("postman id or name is required")
	}

	if id, err := uuid.Parse(ref); err == nil {
		p, err := db.GetPostman(ctx, e.DB, id)
		if err != nil {
			return nil, err
		}
		if p == nil || p.UserID != e.User.ID {
			return nil, apperr.NotFoundf("postman %s not found", ref)
		}
		return p, nil
	}

	postmen, err := db.ListPostmen(ctx, e.DB, db.PostmanFilter{UserID: e.User.ID})
	if err != nil {
		return nil, err
	}
	var matches []models.Postman
	for _, p := range postmen {
		if strings.HasPrefix(p.ID.String(), strings.ToLower(ref)) || strings.EqualFold(p.Name, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, apperr.NotFoundf("postman %s not found", ref)
	case 1:
		return &matches[0], nil
	default:
		return nil, apperr.Validationf("%q matches %d postmen; use the id", ref, len(matches))
	}
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ", ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func formatDay(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(models.DateLayout)
}

// writeOutput writes data to path, or to the command output when path is empty.
func (e *Env) writeOutput(path, data string) error {
	if path != "" {
		return os.WriteFile(path, []byte(data), 0644)
	}
	e.println(data)
	return nil
}
