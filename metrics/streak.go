// ABOUTME: Daily-log streak calculation over distinct calendar days
// ABOUTME: Current run anchored at today plus the longest run ever recorded
package metrics

import (
	"fmt"
	"slices"
	"time"
)

type StreakResult struct {
	CurrentStreak int `json:"current_streak"`
	MaxStreak     int `json:"max_streak"`
}

// Streaks computes consecutive-day runs over the days a user wrote a daily log.
//
// days must be sorted newest first with one entry per calendar day; Streaks
// panics otherwise. The current streak only counts when today has a log:
// a missing entry for today yields 0 even if yesterday ended a long run.
func Streaks(days []time.Time, now time.Time) StreakResult {
	nums := make([]int64, len(days))
	for i, d := range days {
		nums[i] = dayNumber(d)
		if i > 0 && nums[i] >= nums[i-1] {
			panic(fmt.Sprintf("metrics: log days not strictly descending at index %d (%s after %s)",
				i, d.Format("2006-01-02"), days[i-1].Format("2006-01-02")))
		}
	}

	var res StreakResult

	today := dayNumber(now)
	for i, n := range nums {
		if n != today-int64(i) {
			break
		}
		res.CurrentStreak++
	}

	run := 0
	for i, n := range nums {
		if i > 0 && nums[i-1]-n == 1 {
			run++
		} else {
			run = 1
		}
		res.MaxStreak = max(res.MaxStreak, run)
	}

	return res
}

// NormalizeDays returns the distinct calendar days of times, newest first,
// in the shape Streaks expects.
func NormalizeDays(times []time.Time) []time.Time {
	seen := make(map[int64]bool, len(times))
	out := make([]time.Time, 0, len(times))
	for _, t := range times {
		n := dayNumber(t)
		if seen[n] {
			continue
		}
		seen[n] = true
		y, m, d := t.Date()
		out = append(out, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}
	slices.SortFunc(out, func(a, b time.Time) int { return b.Compare(a) })
	return out
}

// dayNumber is the count of days since the Unix epoch for t's calendar date
// in t's own location.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
