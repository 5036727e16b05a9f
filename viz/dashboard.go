// ABOUTME: Per-user dashboard statistics and terminal rendering
// ABOUTME: Give/take totals, rankings, monthly series, log status, plans and neglected postmen
package viz

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/metrics"
	"github.com/relationcraft/postman/models"
)

const (
	rankingSize         = 5
	dashboardMonths     = 6
	topCategoryCount    = 8
	latestInteractions  = 10
	logStatusDays       = 7
	neglectedAfterDays  = 30
	neglectedListLength = 5
)

type DashboardSummary struct {
	TotalPostmen      int `json:"total_postmen"`
	TotalGive         int `json:"total_give"`
	TotalTake         int `json:"total_take"`
	TotalInteractions int `json:"total_interactions"`
	GivePct           int `json:"give_pct"`
	TakePct           int `json:"take_pct"`
}

type RankedPostman struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Company string    `json:"company,omitempty"`
	Give    int       `json:"give"`
	Take    int       `json:"take"`
	Total   int       `json:"total"`
}

type MonthlyGiveTake struct {
	Month string `json:"month"`
	Label string `json:"label"`
	Give  int    `json:"give"`
	Take  int    `json:"take"`
}

type DayLogStatus struct {
	Date   string `json:"date"`
	Label  string `json:"label"`
	HasLog bool   `json:"has_log"`
}

type WeekPlanSummary struct {
	WeekStart      string            `json:"week_start"`
	Goals          []models.PlanGoal `json:"goals"`
	DoneCount      int               `json:"done_count"`
	TotalCount     int               `json:"total_count"`
	CompletionRate int               `json:"completion_rate"`
}

type NeglectedPostman struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Company     string     `json:"company,omitempty"`
	LastContact *time.Time `json:"last_contact,omitempty"`
	DaysSince   int        `json:"days_since"` // -1 when never contacted
}

type Dashboard struct {
	Summary               DashboardSummary        `json:"summary"`
	TopGive               []RankedPostman         `json:"top_give"`
	TopTake               []RankedPostman         `json:"top_take"`
	TopActive             []RankedPostman         `json:"top_active"`
	CategoryCount         map[models.Category]int `json:"category_count"`
	Pipeline              []metrics.StageCount    `json:"pipeline"`
	Monthly               []MonthlyGiveTake       `json:"monthly"`
	InteractionCategories []metrics.Bucket        `json:"interaction_categories"`
	Latest                []models.Interaction    `json:"latest"`
	LogStatus             []DayLogStatus          `json:"log_status"`
	WeekPlan              *WeekPlanSummary        `json:"week_plan,omitempty"`
	Neglected             []NeglectedPostman      `json:"neglected"`
	Streak                metrics.StreakResult    `json:"streak"`
	TopScored             []ScoredPostman         `json:"top_scored"`
}

// GenerateUserDashboard builds the dashboard for one user as of now.
func GenerateUserDashboard(ctx context.Context, database *sql.DB, userID uuid.UUID, now time.Time) (*Dashboard, error) {
	postmen, err := db.ListPostmen(ctx, database, db.PostmanFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch postmen: %w", err)
	}

	d := &Dashboard{CategoryCount: make(map[models.Category]int)}

	stages := make([]models.Stage, len(postmen))
	for i, p := range postmen {
		d.Summary.TotalGive += p.GiveScore
		d.Summary.TotalTake += p.TakeScore
		d.CategoryCount[p.Category]++
		stages[i] = p.Stage
	}
	d.Summary.TotalPostmen = len(postmen)
	d.Summary.TotalInteractions = d.Summary.TotalGive + d.Summary.TotalTake
	d.Summary.GivePct, d.Summary.TakePct = metrics.GiveTakeRatio(d.Summary.TotalGive, d.Summary.TotalTake)
	d.Pipeline = metrics.StageDistribution(stages)

	d.TopGive = rankPostmen(postmen, func(p models.Postman) int { return p.GiveScore })
	d.TopTake = rankPostmen(postmen, func(p models.Postman) int { return p.TakeScore })
	d.TopActive = rankPostmen(postmen, func(p models.Postman) int { return p.TotalScore() })
	d.Neglected = neglectedPostmen(postmen, now)

	months := metrics.MonthBuckets(now, dashboardMonths)
	recent, err := db.ListInteractions(ctx, database, db.InteractionFilter{UserID: userID, From: months[0].Start})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interactions: %w", err)
	}
	d.Monthly, d.InteractionCategories = monthlySeries(months, recent)

	d.Latest, err = db.ListInteractions(ctx, database, db.InteractionFilter{UserID: userID, Limit: latestInteractions})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest interactions: %w", err)
	}

	days := metrics.DayBuckets(now, logStatusDays)
	logDates, err := db.ListLogDates(ctx, database, userID, db.DateRange{From: days[0].Key, To: days[len(days)-1].Key})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch log dates: %w", err)
	}
	logged := make(map[string]bool, len(logDates))
	for _, t := range logDates {
		logged[t.Format(models.DateLayout)] = true
	}
	for _, day := range days {
		d.LogStatus = append(d.LogStatus, DayLogStatus{Date: day.Key, Label: day.Label, HasLog: logged[day.Key]})
	}

	plan, err := db.GetWeeklyPlan(ctx, database, userID, now.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weekly plan: %w", err)
	}
	if plan != nil {
		d.WeekPlan = summarizePlan(plan)
	}

	if d.Streak, err = UserStreaks(ctx, database, userID, now); err != nil {
		return nil, err
	}

	scored, err := ScorePostmen(ctx, database, userID, now)
	if err != nil {
		return nil, err
	}
	d.TopScored = scored[:min(rankingSize, len(scored))]

	return d, nil
}

// rankPostmen returns the top postmen by key, keeping list order among equals.
// Postmen with a zero key are left out.
func rankPostmen(postmen []models.Postman, key func(models.Postman) int) []RankedPostman {
	var ranked []RankedPostman
	for _, p := range postmen {
		if key(p) == 0 {
			continue
		}
		ranked = append(ranked, RankedPostman{
			ID:      p.ID,
			Name:    p.Name,
			Company: p.Company,
			Give:    p.GiveScore,
			Take:    p.TakeScore,
			Total:   key(p),
		})
	}
	slices.SortStableFunc(ranked, func(a, b RankedPostman) int { return cmp.Compare(b.Total, a.Total) })
	return ranked[:min(rankingSize, len(ranked))]
}

// neglectedPostmen lists postmen not contacted for 30+ days, never-contacted first,
// then oldest contact first.
func neglectedPostmen(postmen []models.Postman, now time.Time) []NeglectedPostman {
	cutoff := now.AddDate(0, 0, -neglectedAfterDays)
	var out []NeglectedPostman
	for _, p := range postmen {
		n := NeglectedPostman{ID: p.ID, Name: p.Name, Company: p.Company, LastContact: p.LastContact, DaysSince: -1}
		if p.LastContact != nil {
			if p.LastContact.After(cutoff) {
				continue
			}
			n.DaysSince = int(now.Sub(*p.LastContact).Hours() / 24)
		}
		out = append(out, n)
	}
	slices.SortStableFunc(out, func(a, b NeglectedPostman) int {
		switch {
		case a.LastContact == nil && b.LastContact == nil:
			return 0
		case a.LastContact == nil:
			return -1
		case b.LastContact == nil:
			return 1
		}
		return a.LastContact.Compare(*b.LastContact)
	})
	return out[:min(neglectedListLength, len(out))]
}

func monthlySeries(months []metrics.Period, interactions []models.Interaction) ([]MonthlyGiveTake, []metrics.Bucket) {
	series := make([]MonthlyGiveTake, len(months))
	for i, m := range months {
		series[i] = MonthlyGiveTake{Month: m.Key, Label: m.Label}
	}

	categories := make([]string, 0, len(interactions))
	for _, in := range interactions {
		categories = append(categories, in.Category)
		for i, m := range months {
			if !m.Contains(in.Date) {
				continue
			}
			if in.Type == models.InteractionGive {
				series[i].Give++
			} else {
				series[i].Take++
			}
			break
		}
	}
	return series, metrics.TopN(metrics.Histogram(categories), topCategoryCount)
}

func summarizePlan(plan *models.WeeklyPlan) *WeekPlanSummary {
	goals := plan.PlannedGoals()
	done := plan.DoneCount()
	return &WeekPlanSummary{
		WeekStart:      plan.WeekStart,
		Goals:          goals,
		DoneCount:      done,
		TotalCount:     len(goals),
		CompletionRate: metrics.Pct(done, len(goals)),
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	giveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	takeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// RenderDashboard formats a dashboard for the terminal.
func RenderDashboard(d *Dashboard) string {
	var out strings.Builder

	out.WriteString(titleStyle.Render("━━━ 포스트맨 DASHBOARD ━━━") + "\n\n")

	out.WriteString(sectionStyle.Render("SUMMARY") + "\n")
	fmt.Fprintf(&out, "  %d postmen  %s  %s  (%d interactions)\n\n",
		d.Summary.TotalPostmen,
		giveStyle.Render(fmt.Sprintf("Give %d (%d%%)", d.Summary.TotalGive, d.Summary.GivePct)),
		takeStyle.Render(fmt.Sprintf("Take %d (%d%%)", d.Summary.TotalTake, d.Summary.TakePct)),
		d.Summary.TotalInteractions)

	out.WriteString(sectionStyle.Render("PIPELINE") + "\n")
	maxCount := 0
	for _, s := range d.Pipeline {
		maxCount = max(maxCount, s.Count)
	}
	for _, s := range d.Pipeline {
		fmt.Fprintf(&out, "  %-8s %s %d\n", s.Label, bar(s.Count, maxCount, 20), s.Count)
	}
	out.WriteString("\n")

	out.WriteString(sectionStyle.Render("LAST 6 MONTHS") + "\n")
	for _, m := range d.Monthly {
		fmt.Fprintf(&out, "  %4s  %s %s\n", m.Label,
			giveStyle.Render(fmt.Sprintf("G%-3d", m.Give)),
			takeStyle.Render(fmt.Sprintf("T%-3d", m.Take)))
	}
	out.WriteString("\n")

	out.WriteString(sectionStyle.Render("DAILY LOG") + "\n  ")
	for _, day := range d.LogStatus {
		mark := dimStyle.Render("○")
		if day.HasLog {
			mark = giveStyle.Render("●")
		}
		fmt.Fprintf(&out, "%s%s ", day.Label, mark)
	}
	fmt.Fprintf(&out, "\n  streak %d days (best %d)\n\n", d.Streak.CurrentStreak, d.Streak.MaxStreak)

	if d.WeekPlan != nil {
		out.WriteString(sectionStyle.Render("THIS WEEK") + "\n")
		for _, g := range d.WeekPlan.Goals {
			fmt.Fprintf(&out, "  [%s] %s\n", g.Status, g.Text)
		}
		fmt.Fprintf(&out, "  %d/%d done (%d%%)\n\n", d.WeekPlan.DoneCount, d.WeekPlan.TotalCount, d.WeekPlan.CompletionRate)
	}

	if len(d.TopScored) > 0 {
		out.WriteString(sectionStyle.Render("TOP RELATIONSHIPS") + "\n")
		for _, s := range d.TopScored {
			fmt.Fprintf(&out, "  %3d  %s\n", s.Total, s.Postman.Name)
		}
		out.WriteString("\n")
	}

	if len(d.Neglected) > 0 {
		out.WriteString(sectionStyle.Render("NEEDS ATTENTION") + "\n")
		for _, n := range d.Neglected {
			since := "never contacted"
			if n.DaysSince >= 0 {
				since = fmt.Sprintf("%d days ago", n.DaysSince)
			}
			fmt.Fprintf(&out, "  %s %s %s\n", warnStyle.Render("⚠"), n.Name, dimStyle.Render(since))
		}
	}

	return out.String()
}

func bar(n, maxN, width int) string {
	if maxN == 0 {
		return strings.Repeat("░", width)
	}
	filled := n * width / maxN
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
