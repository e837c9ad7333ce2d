package week

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRangeMondayStart(t *testing.T) {
	// 2026-08-26 is a Wednesday.
	start, end := Range(date(2026, time.August, 26), 1)

	assert.Equal(t, date(2026, time.August, 24), start) // Monday
	assert.Equal(t, date(2026, time.August, 30), end)   // Sunday
	assert.Equal(t, 6, int(end.Sub(start).Hours()/24))
}

func TestRangeSundayStart(t *testing.T) {
	// Same Wednesday, Sunday-anchored weeks.
	start, end := Range(date(2026, time.August, 26), 0)

	assert.Equal(t, date(2026, time.August, 23), start)
	assert.Equal(t, date(2026, time.August, 29), end)
}

func TestRangeOnBoundaryDays(t *testing.T) {
	// A Monday maps to itself with a Monday anchor.
	start, end := Range(date(2026, time.August, 24), 1)
	assert.Equal(t, date(2026, time.August, 24), start)
	assert.Equal(t, date(2026, time.August, 30), end)

	// A Sunday belongs to the week that started the previous Monday.
	start, _ = Range(date(2026, time.August, 30), 1)
	assert.Equal(t, date(2026, time.August, 24), start)
}

func TestRangeStableWithinWindow(t *testing.T) {
	anchor, _ := Range(date(2026, time.August, 24), 1)
	for i := 0; i < 7; i++ {
		start, end := Range(anchor.AddDate(0, 0, i), 1)
		assert.Equal(t, anchor, start)
		assert.Equal(t, anchor.AddDate(0, 0, 6), end)
	}
}

func TestRangeContainsInput(t *testing.T) {
	for day := 0; day < 14; day++ {
		for anchor := 0; anchor < 7; anchor++ {
			d := date(2026, time.February, 1).AddDate(0, 0, day)
			start, end := Range(d, anchor)
			assert.False(t, d.Before(start), "date before window start")
			assert.False(t, d.After(end), "date after window end")
		}
	}
}

func TestRangeIgnoresTimeOfDayAndZone(t *testing.T) {
	loc := time.FixedZone("UTC+13", 13*3600)
	late := time.Date(2026, time.August, 26, 23, 45, 0, 0, loc)

	start, _ := Range(late, 1)
	assert.Equal(t, date(2026, time.August, 24), start)
}

func TestStreakWalksBackUntilMiss(t *testing.T) {
	now := date(2026, time.August, 26)
	challengeStart := date(2026, time.June, 1)

	w0, _ := Range(now, 1)
	met := map[string]bool{
		Key(w0):                  true,
		Key(w0.AddDate(0, 0, -7)):  true,
		Key(w0.AddDate(0, 0, -14)): false,
		Key(w0.AddDate(0, 0, -21)): true,
	}

	assert.Equal(t, 2, Streak(met, now, challengeStart, 1))
}

func TestStreakZeroWhenCurrentWeekUnmet(t *testing.T) {
	now := date(2026, time.August, 26)
	w0, _ := Range(now, 1)

	met := map[string]bool{
		Key(w0.AddDate(0, 0, -7)):  true,
		Key(w0.AddDate(0, 0, -14)): true,
	}

	assert.Equal(t, 0, Streak(met, now, date(2026, time.June, 1), 1))
}

func TestStreakCountsInProgressWeek(t *testing.T) {
	now := date(2026, time.August, 26) // mid-week
	w0, _ := Range(now, 1)

	met := map[string]bool{Key(w0): true}

	assert.Equal(t, 1, Streak(met, now, date(2026, time.August, 1), 1))
}

func TestStreakStopsAtChallengeStart(t *testing.T) {
	now := date(2026, time.August, 26)
	w0, _ := Range(now, 1)

	// Every conceivable week is met; only weeks overlapping the
	// challenge should count.
	met := map[string]bool{}
	for i := 0; i < 52; i++ {
		met[Key(w0.AddDate(0, 0, -7*i))] = true
	}

	challengeStart := date(2026, time.August, 12) // two windows back
	assert.Equal(t, 3, Streak(met, now, challengeStart, 1))
}

func TestKeyFormat(t *testing.T) {
	assert.Equal(t, "2026-08-24", Key(date(2026, time.August, 24)))
}
