// ABOUTME: Cross-user reporting for administrators
// ABOUTME: Overview, analytics, per-user summaries with masked emails and user detail drill-down
package viz

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/metrics"
	"github.com/relationcraft/postman/models"
)

const (
	overviewDays     = 7
	activityWindow   = 30
	analyticsMonths  = 6
	topCategories    = 5
	userPlanWindow   = 8
	heatmapDays      = 90
	detailTrendWeeks = 8
	detailMonths     = 6
)

type DayCount struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type AdminOverview struct {
	TotalUsers        int                  `json:"total_users"`
	ActiveUsers       int                  `json:"active_users"`
	TodayActiveUsers  int                  `json:"today_active_users"`
	TotalPostmen      int                  `json:"total_postmen"`
	TotalInteractions int                  `json:"total_interactions"`
	TotalDailyLogs    int                  `json:"total_daily_logs"`
	WeeklySignups     []DayCount           `json:"weekly_signups"`
	WeeklyActive      []DayCount           `json:"weekly_active"`
	StageDistribution []metrics.StageCount `json:"stage_distribution"`
	InactiveRate      int                  `json:"inactive_rate"`
}

// GenerateAdminOverview summarizes usage across every account.
func GenerateAdminOverview(ctx context.Context, database *sql.DB, now time.Time) (*AdminOverview, error) {
	users, err := db.ListUsers(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	o := &AdminOverview{TotalUsers: len(users)}
	for _, u := range users {
		if u.IsActive {
			o.ActiveUsers++
		}
	}

	if o.TotalPostmen, err = db.CountPostmen(ctx, database, uuid.Nil); err != nil {
		return nil, err
	}
	if o.TotalInteractions, err = db.CountInteractions(ctx, database, db.InteractionFilter{}); err != nil {
		return nil, err
	}
	if o.TotalDailyLogs, err = db.CountDailyLogs(ctx, database, uuid.Nil, db.DateRange{}); err != nil {
		return nil, err
	}

	days := metrics.DayBuckets(now, overviewDays)
	signups := metrics.CountInBuckets(days, userCreatedTimes(users))
	for i, day := range days {
		active, err := db.ActiveUserIDs(ctx, database, day.Start, day.End)
		if err != nil {
			return nil, fmt.Errorf("failed to count active users: %w", err)
		}
		o.WeeklySignups = append(o.WeeklySignups, DayCount{Date: day.Key, Label: day.Label, Count: signups[i]})
		o.WeeklyActive = append(o.WeeklyActive, DayCount{Date: day.Key, Label: day.Label, Count: len(active)})
	}
	o.TodayActiveUsers = o.WeeklyActive[len(o.WeeklyActive)-1].Count

	stages, err := db.CountPostmenByStage(ctx, database, uuid.Nil)
	if err != nil {
		return nil, err
	}
	o.StageDistribution = stageCounts(stages)

	recent := recentLogins(users, now)
	o.InactiveRate = metrics.Pct(len(users)-recent, len(users))

	return o, nil
}

type MonthCount struct {
	Month string `json:"month"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type MonthActivity struct {
	Month        string `json:"month"`
	Label        string `json:"label"`
	Interactions int    `json:"interactions"`
	Logs         int    `json:"logs"`
}

type AdminAnalytics struct {
	TotalUsers           int                  `json:"total_users"`
	TotalPostmen         int                  `json:"total_postmen"`
	TotalInteractions    int                  `json:"total_interactions"`
	TotalDailyLogs       int                  `json:"total_daily_logs"`
	TotalWeeklyPlans     int                  `json:"total_weekly_plans"`
	GiveCount            int                  `json:"give_count"`
	TakeCount            int                  `json:"take_count"`
	GivePct              int                  `json:"give_pct"`
	TakePct              int                  `json:"take_pct"`
	MonthlySignups       []MonthCount         `json:"monthly_signups"`
	MonthlyActivity      []MonthActivity      `json:"monthly_activity"`
	TopCategories        []metrics.Bucket     `json:"top_categories"`
	StageDistribution    []metrics.StageCount `json:"stage_distribution"`
	AvgDailyInteractions float64              `json:"avg_daily_interactions"`
	AvgDailyLogs         float64              `json:"avg_daily_logs"`
	WeeklyCompletionRate int                  `json:"weekly_completion_rate"`
	ChurnRate            int                  `json:"churn_rate"`
}

// GenerateAdminAnalytics computes long-range trends across every account.
func GenerateAdminAnalytics(ctx context.Context, database *sql.DB, now time.Time) (*AdminAnalytics, error) {
	users, err := db.ListUsers(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	a := &AdminAnalytics{TotalUsers: len(users)}

	if a.TotalPostmen, err = db.CountPostmen(ctx, database, uuid.Nil); err != nil {
		return nil, err
	}
	if a.GiveCount, err = db.CountInteractions(ctx, database, db.InteractionFilter{Type: models.InteractionGive}); err != nil {
		return nil, err
	}
	if a.TakeCount, err = db.CountInteractions(ctx, database, db.InteractionFilter{Type: models.InteractionTake}); err != nil {
		return nil, err
	}
	a.TotalInteractions = a.GiveCount + a.TakeCount
	a.GivePct, a.TakePct = metrics.GiveTakeRatio(a.GiveCount, a.TakeCount)
	if a.TotalDailyLogs, err = db.CountDailyLogs(ctx, database, uuid.Nil, db.DateRange{}); err != nil {
		return nil, err
	}

	plans, err := db.ListWeeklyPlans(ctx, database, uuid.Nil, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly plans: %w", err)
	}
	a.TotalWeeklyPlans = len(plans)
	done, total := metrics.PlanCompletion(plans)
	a.WeeklyCompletionRate = metrics.Pct(done, total)

	months := metrics.MonthBuckets(now, analyticsMonths)
	signups := metrics.CountInBuckets(months, userCreatedTimes(users))
	for i, m := range months {
		a.MonthlySignups = append(a.MonthlySignups, MonthCount{Month: m.Key, Label: m.Label, Count: signups[i]})
	}
	if a.MonthlyActivity, err = monthlyActivity(ctx, database, uuid.Nil, months); err != nil {
		return nil, err
	}

	categories, err := db.InteractionCategoryCounts(ctx, database, db.InteractionFilter{})
	if err != nil {
		return nil, err
	}
	a.TopCategories = metrics.TopN(categories, topCategories)

	stages, err := db.CountPostmenByStage(ctx, database, uuid.Nil)
	if err != nil {
		return nil, err
	}
	a.StageDistribution = stageCounts(stages)

	windowStart := now.AddDate(0, 0, -activityWindow)
	recentInteractions, err := db.CountInteractions(ctx, database, db.InteractionFilter{From: windowStart})
	if err != nil {
		return nil, err
	}
	recentLogs, err := db.CountDailyLogs(ctx, database, uuid.Nil, db.DateRange{From: windowStart.Format(models.DateLayout)})
	if err != nil {
		return nil, err
	}
	a.AvgDailyInteractions = metrics.Round1(float64(recentInteractions) / activityWindow)
	a.AvgDailyLogs = metrics.Round1(float64(recentLogs) / activityWindow)

	a.ChurnRate = 100 - metrics.Pct(recentLogins(users, now), len(users))
	if len(users) == 0 {
		a.ChurnRate = 0
	}

	return a, nil
}

type UserSummary struct {
	ID                   uuid.UUID            `json:"id"`
	Name                 string               `json:"name"`
	Email                string               `json:"email"`
	Role                 models.Role          `json:"role"`
	IsActive             bool                 `json:"is_active"`
	CreatedAt            time.Time            `json:"created_at"`
	LastLoginAt          *time.Time           `json:"last_login_at,omitempty"`
	Postmen              int                  `json:"postmen"`
	Interactions         int                  `json:"interactions"`
	DailyLogs            int                  `json:"daily_logs"`
	WeeklyPlans          int                  `json:"weekly_plans"`
	RecentLogDays        int                  `json:"recent_log_days"`
	WeeklyCompletionRate int                  `json:"weekly_completion_rate"`
	Pipeline             []metrics.StageCount `json:"pipeline"`
}

// ListUserSummaries returns one usage summary per account, newest account first.
// Emails are masked.
func ListUserSummaries(ctx context.Context, database *sql.DB, now time.Time) ([]UserSummary, error) {
	users, err := db.ListUsers(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]UserSummary, 0, len(users))
	for i := range users {
		s, err := summarizeUser(ctx, database, &users[i], now)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

func summarizeUser(ctx context.Context, database *sql.DB, u *models.User, now time.Time) (*UserSummary, error) {
	s := &UserSummary{
		ID:          u.ID,
		Name:        u.Name,
		Email:       MaskEmail(u.Email),
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}

	var err error
	if s.Postmen, err = db.CountPostmen(ctx, database, u.ID); err != nil {
		return nil, err
	}
	if s.Interactions, err = db.CountInteractions(ctx, database, db.InteractionFilter{UserID: u.ID}); err != nil {
		return nil, err
	}
	if s.DailyLogs, err = db.CountDailyLogs(ctx, database, u.ID, db.DateRange{}); err != nil {
		return nil, err
	}
	recentFrom := now.AddDate(0, 0, -activityWindow).Format(models.DateLayout)
	if s.RecentLogDays, err = db.CountDailyLogs(ctx, database, u.ID, db.DateRange{From: recentFrom}); err != nil {
		return nil, err
	}

	plans, err := db.ListWeeklyPlans(ctx, database, u.ID, "", 0)
	if err != nil {
		return nil, err
	}
	s.WeeklyPlans = len(plans)
	done, total := metrics.PlanCompletion(plans[:min(userPlanWindow, len(plans))])
	s.WeeklyCompletionRate = metrics.Pct(done, total)

	stages, err := db.CountPostmenByStage(ctx, database, u.ID)
	if err != nil {
		return nil, err
	}
	s.Pipeline = stageCounts(stages)

	return s, nil
}

type WeekTrend struct {
	Week  string `json:"week"`
	Total int    `json:"total"`
	Done  int    `json:"done"`
	Rate  int    `json:"rate"`
}

type UserDetail struct {
	UserSummary
	TotalGive   int                  `json:"total_give"`
	TotalTake   int                  `json:"total_take"`
	Monthly     []MonthActivity      `json:"monthly"`
	WeeklyTrend []WeekTrend          `json:"weekly_trend"`
	LogHeatmap  []string             `json:"log_heatmap"`
	Streak      metrics.StreakResult `json:"streak"`
}

// GenerateUserDetail drills into a single account.
func GenerateUserDetail(ctx context.Context, database *sql.DB, userID uuid.UUID, now time.Time) (*UserDetail, error) {
	u, err := db.GetUser(ctx, database, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFoundf("user %s not found", userID)
	}

	summary, err := summarizeUser(ctx, database, u, now)
	if err != nil {
		return nil, err
	}
	d := &UserDetail{UserSummary: *summary}

	if d.TotalGive, err = db.CountInteractions(ctx, database, db.InteractionFilter{UserID: userID, Type: models.InteractionGive}); err != nil {
		return nil, err
	}
	if d.TotalTake, err = db.CountInteractions(ctx, database, db.InteractionFilter{UserID: userID, Type: models.InteractionTake}); err != nil {
		return nil, err
	}

	if d.Monthly, err = monthlyActivity(ctx, database, userID, metrics.MonthBuckets(now, detailMonths)); err != nil {
		return nil, err
	}

	plans, err := db.ListWeeklyPlans(ctx, database, userID, "", detailTrendWeeks)
	if err != nil {
		return nil, err
	}
	for i := len(plans) - 1; i >= 0; i-- {
		total := len(plans[i].PlannedGoals())
		done := plans[i].DoneCount()
		d.WeeklyTrend = append(d.WeeklyTrend, WeekTrend{
			Week:  plans[i].WeekStart,
			Total: total,
			Done:  done,
			Rate:  metrics.Pct(done, total),
		})
	}

	heatFrom := now.AddDate(0, 0, -heatmapDays).Format(models.DateLayout)
	dates, err := db.ListLogDates(ctx, database, userID, db.DateRange{From: heatFrom})
	if err != nil {
		return nil, err
	}
	d.LogHeatmap = make([]string, len(dates))
	for i, t := range dates {
		d.LogHeatmap[i] = t.Format(models.DateLayout)
	}

	if d.Streak, err = UserStreaks(ctx, database, userID, now); err != nil {
		return nil, err
	}
	return d, nil
}

// MaskEmail hides most of the local part: three characters stay visible when
// the local part is longer than three, otherwise one.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	runes := []rune(local)
	keep := 1
	if len(runes) > 3 {
		keep = 3
	}
	keep = min(keep, len(runes))
	return string(runes[:keep]) + "***@" + domain
}

func monthlyActivity(ctx context.Context, database *sql.DB, userID uuid.UUID, months []metrics.Period) ([]MonthActivity, error) {
	out := make([]MonthActivity, 0, len(months))
	for _, m := range months {
		interactions, err := db.CountInteractions(ctx, database, db.InteractionFilter{UserID: userID, From: m.Start, To: m.End})
		if err != nil {
			return nil, fmt.Errorf("failed to count interactions for %s: %w", m.Key, err)
		}
		logs, err := db.CountDailyLogs(ctx, database, userID, db.DateRange{
			From: m.Start.Format(models.DateLayout),
			To:   m.End.AddDate(0, 0, -1).Format(models.DateLayout),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to count logs for %s: %w", m.Key, err)
		}
		out = append(out, MonthActivity{Month: m.Key, Label: m.Label, Interactions: interactions, Logs: logs})
	}
	return out, nil
}

func stageCounts(counts map[models.Stage]int) []metrics.StageCount {
	out := make([]metrics.StageCount, len(models.Stages))
	for i, s := range models.Stages {
		out[i] = metrics.StageCount{Stage: s, Label: s.Label(), Count: counts[s]}
	}
	return out
}

func userCreatedTimes(users []models.User) []time.Time {
	times := make([]time.Time, len(users))
	for i, u := range users {
		times[i] = u.CreatedAt
	}
	return times
}

// recentLogins counts users who logged in within the activity window.
func recentLogins(users []models.User, now time.Time) int {
	cutoff := now.AddDate(0, 0, -activityWindow)
	return len(slices.DeleteFunc(slices.Clone(users), func(u models.User) bool {
		return u.LastLoginAt == nil || u.LastLoginAt.Before(cutoff)
	}))
}
