package stats

// Snapshot is the input to badge evaluation. It is rebuilt from the
// database every time an activity or cheer changes.
type Snapshot struct {
	TotalActivities       int     `json:"total_activities"`
	TotalDistanceKm       float64 `json:"total_distance_km"`
	CurrentStreak         int     `json:"current_streak"`
	WeeksCompleted        int     `json:"weeks_completed"`
	CheersGiven           int     `json:"cheers_given"`
	CheersReceived        int     `json:"cheers_received"`
	ActiveDaysThisWeek    int     `json:"active_days_this_week"`
	ActivityTypesThisWeek int     `json:"activity_types_this_week"`
	WeekDistanceKm        float64 `json:"week_distance_km"`
	WeekTargetMet         bool    `json:"week_target_met"`
	PrevWeekMissed        bool    `json:"prev_week_missed"`
	LastDayOfWeek         bool    `json:"last_day_of_week"`
}

type UserStats struct {
	KmThisWeek      float64 `json:"km_this_week"`
	WeeklyTargetKm  float64 `json:"weekly_target_km"`
	WeekTargetMet   bool    `json:"week_target_met"`
	CurrentStreak   int     `json:"current_streak"`
	WeeksCompleted  int     `json:"weeks_completed"`
	TotalActivities int     `json:"total_activities"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	BadgesCount     int     `json:"badges_count"`
	Rank            int     `json:"rank"`
}
