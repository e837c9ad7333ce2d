package badge

import (
	"time"

	"github.com/google/uuid"

	"strideClubAPI/internal/stats"
)

type Category string

const (
	CategoryMilestone   Category = "milestone"
	CategoryDistance    Category = "distance"
	CategoryStreak      Category = "streak"
	CategoryConsistency Category = "consistency"
	CategorySocial      Category = "social"
	CategorySpecial     Category = "special"
)

// Definition couples a badge's display metadata with its eligibility
// predicate. Keeping both in one table means the catalog rows seeded
// into the database can never drift from the logic that awards them.
type Definition struct {
	Slug        string
	Name        string
	Icon        string
	Description string
	Category    Category
	Satisfied   func(s stats.Snapshot) bool
}

type Badge struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	Name        string    `json:"name" db:"name"`
	Icon        string    `json:"icon" db:"icon"`
	Description string    `json:"description" db:"description"`
	Category    Category  `json:"category" db:"category"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type UserBadge struct {
	ID       uuid.UUID `json:"id" db:"id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	BadgeID  uuid.UUID `json:"badge_id" db:"badge_id"`
	EarnedAt time.Time `json:"earned_at" db:"earned_at"`
}

type BadgeWithStatus struct {
	Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// Catalog is the fixed badge table. Order here is display order.
var Catalog = []Definition{
	{
		Slug: "first_steps", Name: "First Steps", Icon: "👟",
		Description: "Log your first activity", Category: CategoryMilestone,
		Satisfied:   func(s stats.Snapshot) bool { return s.TotalActivities >= 1 },
	},
	{
		Slug: "ten_sessions", Name: "Regular", Icon: "🏃",
		Description: "Log 10 activities", Category: CategoryMilestone,
		Satisfied:   func(s stats.Snapshot) bool { return s.TotalActivities >= 10 },
	},
	{
		Slug: "fifty_sessions", Name: "Committed", Icon: "🎽",
		Description: "Log 50 activities", Category: CategoryMilestone,
		Satisfied:   func(s stats.Snapshot) bool { return s.TotalActivities >= 50 },
	},
	{
		Slug: "marathon_total", Name: "Marathoner", Icon: "🏅",
		Description: "Cover a marathon distance in total (42.2 km)", Category: CategoryDistance,
		Satisfied:   func(s stats.Snapshot) bool { return s.TotalDistanceKm >= 42.2 },
	},
	{
		Slug: "century_club", Name: "Century Club", Icon: "💯",
		Description: "Cover 100 km in total", Category: CategoryDistance,
		Satisfied:   func(s stats.Snapshot) bool { return s.TotalDistanceKm >= 100 },
	},
	{
		Slug: "road_warrior", Name: "Road Warrior", Icon: "🛣️",
		Description: "Cover 500 km in total", Category: CategoryDistance,
		Satisfied:   func(s stats.Snapshot) bool { return s.TotalDistanceKm >= 500 },
	},
	{
		Slug: "streak_3", Name: "Warming Up", Icon: "🔥",
		Description: "Hit the weekly target 3 weeks in a row", Category: CategoryStreak,
		Satisfied:   func(s stats.Snapshot) bool { return s.CurrentStreak >= 3 },
	},
	{
		Slug: "streak_5", Name: "On Fire", Icon: "🔥",
		Description: "Hit the weekly target 5 weeks in a row", Category: CategoryStreak,
		Satisfied:   func(s stats.Snapshot) bool { return s.CurrentStreak >= 5 },
	},
	{
		Slug: "streak_10", Name: "Unstoppable", Icon: "⚡",
		Description: "Hit the weekly target 10 weeks in a row", Category: CategoryStreak,
		Satisfied:   func(s stats.Snapshot) bool { return s.CurrentStreak >= 10 },
	},
	{
		Slug: "month_strong", Name: "Month Strong", Icon: "📆",
		Description: "Complete 4 weekly targets", Category: CategoryConsistency,
		Satisfied:   func(s stats.Snapshot) bool { return s.WeeksCompleted >= 4 },
	},
	{
		Slug: "season_veteran", Name: "Season Veteran", Icon: "🗓️",
		Description: "Complete 12 weekly targets", Category: CategoryConsistency,
		Satisfied:   func(s stats.Snapshot) bool { return s.WeeksCompleted >= 12 },
	},
	{
		Slug: "every_single_day", Name: "Every Single Day", Icon: "✅",
		Description: "Be active all 7 days of a week", Category: CategoryConsistency,
		Satisfied:   func(s stats.Snapshot) bool { return s.ActiveDaysThisWeek >= 7 },
	},
	{
		Slug: "triple_threat", Name: "Triple Threat", Icon: "🥇",
		Description: "Run, walk and jog within one week", Category: CategoryConsistency,
		Satisfied:   func(s stats.Snapshot) bool { return s.ActivityTypesThisWeek >= 3 },
	},
	{
		Slug: "cheerleader", Name: "Cheerleader", Icon: "📣",
		Description: "Give 20 cheers to teammates", Category: CategorySocial,
		Satisfied:   func(s stats.Snapshot) bool { return s.CheersGiven >= 20 },
	},
	{
		Slug: "crowd_favorite", Name: "Crowd Favorite", Icon: "🙌",
		Description: "Receive 20 cheers from teammates", Category: CategorySocial,
		Satisfied:   func(s stats.Snapshot) bool { return s.CheersReceived >= 20 },
	},
	{
		Slug: "photo_finish", Name: "Photo Finish", Icon: "🏁",
		Description: "Hit the weekly target on the last day of the week", Category: CategorySpecial,
		Satisfied:   func(s stats.Snapshot) bool { return s.LastDayOfWeek && s.WeekTargetMet },
	},
	{
		Slug: "comeback", Name: "Comeback", Icon: "💪",
		Description: "Hit the target the week after missing one", Category: CategorySpecial,
		Satisfied:   func(s stats.Snapshot) bool { return s.PrevWeekMissed && s.WeekTargetMet },
	},
}

// Evaluate returns the catalog entries whose predicate holds and whose
// slug is not already in earned. Predicates are independent of each
// other and never retract an award, so re-running with the same inputs
// and earned set yields nothing new.
func Evaluate(s stats.Snapshot, earned map[string]bool) []Definition {
	var newly []Definition
	for _, def := range Catalog {
		if earned[def.Slug] {
			continue
		}
		if def.Satisfied(s) {
			newly = append(newly, def)
		}
	}
	return newly
}
