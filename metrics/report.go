// ABOUTME: Aggregation helpers for dashboards: time buckets, percentages and rankings
// ABOUTME: Pure functions over already-loaded rows so callers control the queries
package metrics

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/relationcraft/postman/models"
)

// Period is a half-open time range [Start, End).
type Period struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// MonthBuckets returns the n calendar months ending with now's month, oldest first.
func MonthBuckets(now time.Time, n int) []Period {
	y, m, _ := now.Date()
	periods := make([]Period, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		periods = append(periods, Period{
			Key:   start.Format("2006-01"),
			Label: fmt.Sprintf("%d월", int(start.Month())),
			Start: start,
			End:   start.AddDate(0, 1, 0),
		})
	}
	return periods
}

var koreanWeekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// DayBuckets returns the n calendar days ending today, oldest first.
func DayBuckets(now time.Time, n int) []Period {
	y, m, d := now.Date()
	periods := make([]Period, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := time.Date(y, m, d-i, 0, 0, 0, 0, now.Location())
		periods = append(periods, Period{
			Key:   start.Format(models.DateLayout),
			Label: koreanWeekdays[start.Weekday()],
			Start: start,
			End:   start.AddDate(0, 0, 1),
		})
	}
	return periods
}

// CountInBuckets counts how many times fall into each period.
func CountInBuckets(periods []Period, times []time.Time) []int {
	counts := make([]int, len(periods))
	for _, t := range times {
		for i, p := range periods {
			if p.Contains(t) {
				counts[i]++
				break
			}
		}
	}
	return counts
}

// Pct is round(part/whole*100), or 0 when whole is 0.
func Pct(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// Round1 rounds to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func Histogram(keys []string) map[string]int {
	h := make(map[string]int)
	for _, k := range keys {
		h[k]++
	}
	return h
}

type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TopN returns the n largest histogram entries, ties broken by name.
// n <= 0 returns every entry.
func TopN(hist map[string]int, n int) []Bucket {
	buckets := make([]Bucket, 0, len(hist))
	for k, v := range hist {
		buckets = append(buckets, Bucket{Name: k, Count: v})
	}
	slices.SortFunc(buckets, func(a, b Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if n > 0 && len(buckets) > n {
		buckets = buckets[:n]
	}
	return buckets
}

type StageCount struct {
	Stage models.Stage `json:"stage"`
	Label string       `json:"label"`
	Count int          `json:"count"`
}

// StageDistribution tallies stages in pipeline order, including empty stages.
func StageDistribution(stages []models.Stage) []StageCount {
	counts := make(map[models.Stage]int, len(models.Stages))
	for _, s := range stages {
		counts[s]++
	}
	out := make([]StageCount, len(models.Stages))
	for i, s := range models.Stages {
		out[i] = StageCount{Stage: s, Label: s.Label(), Count: counts[s]}
	}
	return out
}

// GiveTakeRatio splits give and take into percentages of their sum.
func GiveTakeRatio(give, take int) (givePct, takePct int) {
	total := give + take
	return Pct(give, total), Pct(take, total)
}

// WeekStart returns midnight of the Monday that begins t's ISO week.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// PlanCompletion counts DONE goals against all planned goals across plans.
func PlanCompletion(plans []models.WeeklyPlan) (done, total int) {
	for i := range plans {
		total += len(plans[i].PlannedGoals())
		done += plans[i].DoneCount()
	}
	return done, total
}
