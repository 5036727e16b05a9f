// ABOUTME: Tests for daily-log streaks
// ABOUTME: Covers gaps, empty input, timezone anchoring and input contract panics
package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(offset int) time.Time {
	y, m, d := fixedNow.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
}

func TestStreaksConsecutiveFromToday(t *testing.T) {
	res := Streaks([]time.Time{day(0), day(1), day(2)}, fixedNow)
	assert.Equal(t, StreakResult{CurrentStreak: 3, MaxStreak: 3}, res)
}

func TestStreaksWithGap(t *testing.T) {
	res := Streaks([]time.Time{day(0), day(1), day(4), day(5)}, fixedNow)
	assert.Equal(t, StreakResult{CurrentStreak: 2, MaxStreak: 2}, res)
}

func TestStreaksEmpty(t *testing.T) {
	assert.Equal(t, StreakResult{}, Streaks(nil, fixedNow))
}

func TestStreaksSingleEntry(t *testing.T) {
	assert.Equal(t, StreakResult{CurrentStreak: 1, MaxStreak: 1}, Streaks([]time.Time{day(0)}, fixedNow))
	assert.Equal(t, StreakResult{CurrentStreak: 0, MaxStreak: 1}, Streaks([]time.Time{day(1)}, fixedNow))
}

func TestStreaksRequireTodayForCurrent(t *testing.T) {
	res := Streaks([]time.Time{day(1), day(2), day(3)}, fixedNow)
	assert.Equal(t, 0, res.CurrentStreak)
	assert.Equal(t, 3, res.MaxStreak)
}

func TestStreaksLongestRunInThePast(t *testing.T) {
	days := []time.Time{day(0), day(10), day(11), day(12), day(13), day(20)}
	res := Streaks(days, fixedNow)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 4, res.MaxStreak)
}

func TestStreaksUsesNowCalendarDay(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	// 01:00 KST on the 16th is still the 15th in UTC.
	now := time.Date(2026, 10, 16, 1, 0, 0, 0, kst)
	days := []time.Time{
		time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 2, Streaks(days, now).CurrentStreak)
}

func TestStreaksPanicsOnBadInput(t *testing.T) {
	assert.Panics(t, func() { Streaks([]time.Time{day(2), day(1)}, fixedNow) }, "ascending order")
	assert.Panics(t, func() { Streaks([]time.Time{day(1), day(1)}, fixedNow) }, "duplicate day")
}

func TestNormalizeDays(t *testing.T) {
	in := []time.Time{
		day(3).Add(15 * time.Hour),
		day(0).Add(9 * time.Hour),
		day(3).Add(2 * time.Hour),
		day(1),
	}

	out := NormalizeDays(in)

	assert.Equal(t, []time.Time{day(0), day(1), day(3)}, out)
	assert.NotPanics(t, func() { Streaks(out, fixedNow) })
}
