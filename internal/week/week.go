package week

import "time"

// Range returns the closed 7-day calendar window containing date,
// anchored to weekStartDay (0 = Sunday, matching time.Weekday).
// Both bounds are UTC dates with no time-of-day component, so the same
// input always yields the same window regardless of server timezone.
func Range(date time.Time, weekStartDay int) (start, end time.Time) {
	d := Truncate(date)
	distance := (int(d.Weekday()) - weekStartDay + 7) % 7
	start = d.AddDate(0, 0, -distance)
	end = start.AddDate(0, 0, 6)
	return start, end
}

// Truncate drops the time-of-day component and pins the date to UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Key formats a week-start date as the canonical lookup key used by
// streak computation and weekly_results rows.
func Key(t time.Time) string {
	return t.Format("2006-01-02")
}

// Streak counts consecutive weeks with the target met, ending at the
// window containing now and walking backward. The current week counts
// as soon as its target is met, even while the week is in progress.
// The walk stops at the first missing or unmet week, or once the
// cursor's window ends before the challenge start date.
func Streak(met map[string]bool, now, challengeStart time.Time, weekStartDay int) int {
	cursor, _ := Range(now, weekStartDay)
	startDate := Truncate(challengeStart)

	streak := 0
	for {
		if cursor.AddDate(0, 0, 6).Before(startDate) {
			break
		}
		if !met[Key(cursor)] {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -7)
	}
	return streak
}
