package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"strideClubAPI/internal/stats"
)

func slugs(defs []Definition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Slug)
	}
	return out
}

func TestEvaluateFirstActivity(t *testing.T) {
	snap := stats.Snapshot{TotalActivities: 1, TotalDistanceKm: 5}

	newly := Evaluate(snap, map[string]bool{})

	assert.Equal(t, []string{"first_steps"}, slugs(newly))
}

func TestEvaluateSkipsEarned(t *testing.T) {
	snap := stats.Snapshot{TotalActivities: 12, TotalDistanceKm: 50}

	earned := map[string]bool{
		"first_steps":    true,
		"ten_sessions":   true,
		"marathon_total": true,
	}

	newly := Evaluate(snap, earned)
	assert.Empty(t, newly)
}

func TestEvaluateIdempotent(t *testing.T) {
	snap := stats.Snapshot{
		TotalActivities: 60,
		TotalDistanceKm: 120,
		CurrentStreak:   6,
		WeeksCompleted:  8,
	}

	earned := map[string]bool{}
	first := Evaluate(snap, earned)
	assert.NotEmpty(t, first)

	for _, d := range first {
		earned[d.Slug] = true
	}

	second := Evaluate(snap, earned)
	assert.Empty(t, second)
}

func TestEvaluateDistanceThresholds(t *testing.T) {
	below := stats.Snapshot{TotalActivities: 5, TotalDistanceKm: 42.1}
	assert.NotContains(t, slugs(Evaluate(below, nil)), "marathon_total")

	at := stats.Snapshot{TotalActivities: 5, TotalDistanceKm: 42.2}
	assert.Contains(t, slugs(Evaluate(at, nil)), "marathon_total")
}

func TestEvaluateStreakLadder(t *testing.T) {
	snap := stats.Snapshot{TotalActivities: 1, CurrentStreak: 5}

	got := slugs(Evaluate(snap, map[string]bool{"first_steps": true}))

	assert.Contains(t, got, "streak_3")
	assert.Contains(t, got, "streak_5")
	assert.NotContains(t, got, "streak_10")
}

func TestEvaluatePhotoFinish(t *testing.T) {
	notLastDay := stats.Snapshot{TotalActivities: 1, WeekTargetMet: true}
	assert.NotContains(t, slugs(Evaluate(notLastDay, nil)), "photo_finish")

	lastDay := stats.Snapshot{TotalActivities: 1, WeekTargetMet: true, LastDayOfWeek: true}
	assert.Contains(t, slugs(Evaluate(lastDay, nil)), "photo_finish")
}

func TestEvaluateComeback(t *testing.T) {
	snap := stats.Snapshot{TotalActivities: 1, PrevWeekMissed: true, WeekTargetMet: true}
	assert.Contains(t, slugs(Evaluate(snap, nil)), "comeback")

	noMiss := stats.Snapshot{TotalActivities: 1, PrevWeekMissed: false, WeekTargetMet: true}
	assert.NotContains(t, slugs(Evaluate(noMiss, nil)), "comeback")
}

func TestEvaluateSocialCounts(t *testing.T) {
	snap := stats.Snapshot{CheersGiven: 20, CheersReceived: 19}

	got := slugs(Evaluate(snap, nil))
	assert.Contains(t, got, "cheerleader")
	assert.NotContains(t, got, "crowd_favorite")
}

func TestCatalogSlugsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Catalog {
		assert.False(t, seen[d.Slug], "duplicate slug %s", d.Slug)
		seen[d.Slug] = true
		assert.NotNil(t, d.Satisfied, "predicate missing for %s", d.Slug)
	}
}
