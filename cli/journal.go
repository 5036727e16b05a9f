// ABOUTME: Daily log and weekly plan CLI commands
// ABOUTME: Writes journal entries, shows streaks and manages the three weekly goals
package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/metrics"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/viz"
)

// WriteLogCommand writes (or replaces) the daily log for a date.
func WriteLogCommand(env *Env, args []string) error {
	fs := newFlagSet("log write")
	date := fs.String("date", "", "Date (YYYY-MM-DD, default today)")
	content := fs.String("content", "", "Journal entry (required)")
	goals := fs.String("goals", "", "Goals for the day")
	achievements := fs.String("achievements", "", "What got done")
	letters := fs.Int("letters", 0, "Letters or messages sent")
	calls := fs.Int("calls", 0, "Calls made")
	social := fs.Int("social", 0, "Social media touches")
	gifts := fs.Int("gifts", 0, "Gifts sent")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *date == "" {
		*date = env.today()
	}

	ctx := context.Background()
	l := &models.DailyLog{
		UserID:        env.User.ID,
		Date:          *date,
		Content:       *content,
		Goals:         *goals,
		Achievements:  *achievements,
		LettersSent:   *letters,
		Calls:         *calls,
		SocialTouches: *social,
		GiftsSent:     *gifts,
	}
	if err := db.UpsertDailyLog(ctx, env.DB, l); err != nil {
		return fmt.Errorf("failed to write log: %w", err)
	}

	streak, err := viz.UserStreaks(ctx, env.DB, env.User.ID, env.Now())
	if err != nil {
		return err
	}
	env.printf("✓ Daily log saved for %s\n", l.Date)
	env.printf("  Streak: %d day(s) (best %d)\n", streak.CurrentStreak, streak.MaxStreak)
	return nil
}

// ShowLogCommand prints the log for a date, today by default.
func ShowLogCommand(env *Env, args []string) error {
	fs := newFlagSet("log show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	date := fs.Arg(0)
	if date == "" {
		date = env.today()
	}

	l, err := db.GetDailyLog(context.Background(), env.DB, env.User.ID, date)
	if err != nil {
		return err
	}
	if l == nil {
		env.printf("No log for %s\n", date)
		return nil
	}

	env.printf("%s\n\n%s\n", l.Date, l.Content)
	if l.Goals != "" {
		env.printf("\nGoals: %s\n", l.Goals)
	}
	if l.Achievements != "" {
		env.printf("Achievements: %s\n", l.Achievements)
	}
	env.printf("\nLetters %d · Calls %d · Social %d · Gifts %d\n", l.LettersSent, l.Calls, l.SocialTouches, l.GiftsSent)
	return nil
}

// ListLogsCommand lists recent daily logs.
func ListLogsCommand(env *Env, args []string) error {
	fs := newFlagSet("log list")
	limit := fs.Int("limit", 30, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logs, err := db.ListDailyLogs(context.Background(), env.DB, env.User.ID, *limit)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		env.println("No daily logs yet")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tLETTERS\tCALLS\tSOCIAL\tGIFTS\tCONTENT")
	for _, l := range logs {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
			l.Date, l.LettersSent, l.Calls, l.SocialTouches, l.GiftsSent, preview(l.Content, 40))
	}
	return w.Flush()
}

// StreakCommand prints the current and longest streaks.
func StreakCommand(env *Env, _ []string) error {
	streak, err := viz.UserStreaks(context.Background(), env.DB, env.User.ID, env.Now())
	if err != nil {
		return err
	}
	env.printf("🔥 Current streak: %d day(s)\n", streak.CurrentStreak)
	env.printf("🏆 Longest streak: %d day(s)\n", streak.MaxStreak)
	return nil
}

// SetPlanCommand writes the weekly plan. Each --goal is "text" or "text|STATUS".
func SetPlanCommand(env *Env, args []string) error {
	fs := newFlagSet("plan set")
	week := fs.String("week", "", "Any date in the week (default today)")
	var goals, meetings stringList
	fs.Var(&goals, "goal", "Goal as text or text|TODO|DOING|DONE (repeat up to 3 times)")
	fs.Var(&meetings, "meet", "Meeting target name (repeat up to 3 times)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *week == "" {
		*week = env.today()
	}
	if len(goals) > models.MaxPlanGoals {
		return fmt.Errorf("at most %d goals per week", models.MaxPlanGoals)
	}

	ctx := context.Background()
	plan, err := db.GetWeeklyPlan(ctx, env.DB, env.User.ID, *week)
	if err != nil {
		return err
	}
	if plan == nil {
		plan = &models.WeeklyPlan{UserID: env.User.ID}
	}
	plan.WeekStart = *week

	for i, g := range goals {
		text, status, _ := strings.Cut(g, "|")
		plan.Goals[i] = models.PlanGoal{Text: strings.TrimSpace(text), Status: models.PlanStatus(status)}
	}
	if len(meetings) > 0 {
		plan.Meetings = plan.Meetings[:0]
		for _, m := range meetings {
			plan.Meetings = append(plan.Meetings, models.MeetingPrep{TargetName: m})
		}
	}

	if err := db.UpsertWeeklyPlan(ctx, env.DB, plan); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	env.printf("✓ Plan saved for week of %s\n", plan.WeekStart)
	return nil
}

// ShowPlanCommand prints the plan for the week containing a date.
func ShowPlanCommand(env *Env, args []string) error {
	fs := newFlagSet("plan show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	date := fs.Arg(0)
	if date == "" {
		date = env.today()
	}

	plan, err := db.GetWeeklyPlan(context.Background(), env.DB, env.User.ID, date)
	if err != nil {
		return err
	}
	if plan == nil {
		env.printf("No plan for the week of %s\n", date)
		return nil
	}

	env.printf("Week of %s (%d/%d done)\n", plan.WeekStart, plan.DoneCount(), len(plan.PlannedGoals()))
	for i, g := range plan.Goals {
		if g.Text == "" {
			continue
		}
		env.printf("  %d. [%s] %s\n", i+1, g.Status, g.Text)
	}
	if len(plan.Meetings) > 0 {
		env.println("\nMeetings:")
		for _, m := range plan.Meetings {
			env.printf("  - %s %s\n", m.TargetName, m.ScheduledAt)
		}
	}
	return nil
}

// ListPlansCommand lists recent weekly plans with completion.
func ListPlansCommand(env *Env, args []string) error {
	fs := newFlagSet("plan list")
	limit := fs.Int("limit", 12, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	plans, err := db.ListWeeklyPlans(context.Background(), env.DB, env.User.ID, "", *limit)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		env.println("No weekly plans yet")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WEEK\tDONE\tRATE")
	for _, p := range plans {
		done, total := p.DoneCount(), len(p.PlannedGoals())
		_, _ = fmt.Fprintf(w, "%s\t%d/%d\t%d%%\n", p.WeekStart, done, total, metrics.Pct(done, total))
	}
	return w.Flush()
}

func preview(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
