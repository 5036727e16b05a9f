// ABOUTME: Administrator CLI commands
// ABOUTME: Usage reports, notices, backups and the audit log; mutations are audited
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/viz"
)

func (e *Env) audit(ctx context.Context, action models.AdminAction, detail map[string]any) {
	raw, err := json.Marshal(detail)
	if err != nil {
		e.Logger.Error("Failed to encode audit detail", "action", action, "error", err)
		return
	}
	if _, err := db.AppendAdminLog(ctx, e.DB, e.User.ID, action, string(raw)); err != nil {
		e.Logger.Error("Failed to write admin log", "action", action, "error", err)
	}
}

// AdminOverviewCommand prints the usage overview.
func AdminOverviewCommand(env *Env, _ []string) error {
	if err := env.requireAdmin(); err != nil {
		return err
	}
	o, err := viz.GenerateAdminOverview(context.Background(), env.DB, env.Now())
	if err != nil {
		return err
	}

	env.printf("Users:        %d (%d active, %d today)\n", o.TotalUsers, o.ActiveUsers, o.TodayActiveUsers)
	env.printf("Postmen:      %d\n", o.TotalPostmen)
	env.printf("Interactions: %d\n", o.TotalInteractions)
	env.printf("Daily logs:   %d\n", o.TotalDailyLogs)
	env.printf("Inactive:     %d%%\n\n", o.InactiveRate)

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DAY\tSIGNUPS\tACTIVE")
	for i := range o.WeeklySignups {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", o.WeeklySignups[i].Date, o.WeeklySignups[i].Count, o.WeeklyActive[i].Count)
	}
	return w.Flush()
}

// AdminAnalyticsCommand prints long-range analytics as JSON.
func AdminAnalyticsCommand(env *Env, _ []string) error {
	if err := env.requireAdmin(); err != nil {
		return err
	}
	a, err := viz.GenerateAdminAnalytics(context.Background(), env.DB, env.Now())
	if err != nil {
		return err
	}
	return env.printJSON(a)
}

// AdminUsersCommand lists per-user usage with masked emails.
func AdminUsersCommand(env *Env, _ []string) error {
	if err := env.requireAdmin(); err != nil {
		return err
	}
	users, err := viz.ListUserSummaries(context.Background(), env.DB, env.Now())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EMAIL\tROLE\tACTIVE\tPOSTMEN\tINTERACTIONS\tLOGS(30d)\tPLAN%\tID")
	for _, u := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%d\t%d\t%d%%\t%s\n",
			u.Email, u.Role, u.IsActive, u.Postmen, u.Interactions, u.RecentLogDays, u.WeeklyCompletionRate, shortID(u.ID))
	}
	return w.Flush()
}

// AdminUserCommand prints one user's detail report as JSON.
func AdminUserCommand(env *Env, args []string) error {
	if err := env.requireAdmin(); err != nil {
		return err
	}
	ctx := context.Background()
	u, err := env.findUser(ctx, firstArg(args))
	if err != nil {
		return err
	}
	d, err := viz.GenerateUserDetail(ctx, env.DB, u.ID, env.Now())
	if err != nil {
		return err
	}
	return env.printJSON(d)
}

// AdminNoticeAddCommand publishes a notice.
func AdminNoticeAddCommand(env *Env, args []string) error {
	if err := env.requireAdmin(); err != nil {
		return err
	}
	fs := newFlagSet("admin notice add")
	title := fs.String("title", "", "Title (required)")
	content := fs.String("content", "", "Body (required)")
	inactive := fs.Bool("inactive", false, "Create hidden")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	n := &models.Notice{Title: *title, Content: *content, IsActive: !*inactive}
	if err := db.CreateNotice(ctx, env.DB, n); err != nil {
		return fmt.Errorf("failed to create notice: %w", err)
	}
	env.audit(ctx, models.ActionCreateNotice, map[string]any{"notice_id": n.ID, "title": n.Title})
	env.printf("✓ Notice created: %s (ID: %s)\n", n.Title, n.ID)
	return nil
}

// AdminNoticeListCommand lists every notice.
func AdminNoticeListCommand(env *Env, _ []string) error {
	if err := env.requireAdmin(); err != nil {
		return err
	}
	notices, err := db.ListNotices(context.Background(), env.DB, false, 0)
	if err != nil {
		return err
	}
	if len(notices) == 0 {
		env.println("No notices")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CREATED\tACTIVE\tTITLE\tID")
	for _, n := range notices {
		_, _ = fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", n.CreatedAt.Local().Format(models.DateLayout), n.IsActive, n.Title, n.ID)
	}
	return w.Flush()
}

// AdminNoticeSetCommand edits a notice. Flags come before the id.
func AdminNoticeSetCommand(env *Env, args []string) error {
	if err := env.requireAdmin(); err != nil {
		return err
	}
	fs := newFlagSet("admin notice set")
	var title, content *string
	var active *bool
	fs.Func("title", "New title", func(v string) error { title = &v; return nil })
	fs.Func("content", "New body", func(v string) error { content = &v; return nil })
	fs.Func("active", "true or false", func(v string) error {
		b := v == "true" || v == "1" || v == "yes"
		active = &b
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid notice ID: %w", err)
	}

	ctx := context.Background()
	n, err := db.UpdateNotice(ctx, env.DB, id, title, content, active)
	if err != nil {
		return fmt.Errorf("failed to update notice: %w", err)
	}
	env.audit(ctx, models.ActionUpdateNotice, map[string]any{"notice_id": id})
	env.printf("✓ Notice updated: %s (active %t)\n", n.Title, n.IsActive)
	return nil
}

// AdminNoticeDeleteCommand deletes a notice.
func AdminNoticeDeleteCommand(env *Env, args []string) error {
	if err := env.requireAdmin(); err != nil {
		return err
	}
	id, err := uuid.Parse(firstArg(args))
	if err != nil {
		return fmt.Errorf("invalid notice ID: %w", err)
	}
	ctx := context.Background()
	if err := db.DeleteNotice(ctx, env.DB, id); err != nil {
		return fmt.Errorf("failed to delete notice: %w", err)
	}
	env.audit(ctx, models.ActionDeleteNotice, map[string]any{"notice_id": id})
	env.printf("✓ Notice deleted: %s\n", id)
	return nil
}

// AdminSystemCommand prints the system report as JSON.
func AdminSystemCommand(env *Env, _ []string) error {
	if err := env.requireAdmin(); err != nil {
		return err
	}
	report, err := viz.GenerateSystemReport(context.Background(), env.DB, env.Config.BackupDir, env.StartedAt, env.Now())
	if err != nil {
		return err
	}
	return env.printJSON(report)
}

// AdminBackupCommand writes a compressed database snapshot.
func AdminBackupCommand(env *Env, _ []string) error {
	if err := env.requireAdmin(); err != nil {
		return err
	}
	ctx := context.Background()
	info, err := db.Backup(ctx, env.DB, env.Config.BackupDir, env.Now())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	env.audit(ctx, models.ActionManualBackup, map[string]any{"name": info.Name, "size": info.Size})
	env.printf("✓ Backup written: %s (%d bytes)\n", info.Path, info.Size)
	return nil
}

// AdminLogsCommand lists the audit log.
func AdminLogsCommand(env *Env, args []string) error {
	if err := env.requireAdmin(); err != nil {
		return err
	}
	fs := newFlagSet("admin logs")
	limit := fs.Int("limit", 20, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logs, err := db.ListAdminLogs(context.Background(), env.DB, *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tACTION\tADMIN\tDETAIL")
	for _, l := range logs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Action, shortID(l.AdminID), l.Detail)
	}
	return w.Flush()
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
