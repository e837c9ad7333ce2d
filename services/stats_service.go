package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"strideClubAPI/internal/challenge"
	"strideClubAPI/internal/leaderboard"
	"strideClubAPI/internal/stats"
	"strideClubAPI/internal/week"
	"strideClubAPI/internal/weekly"
)

type StatsService struct {
	db         *pgxpool.Pool
	challenges *ChallengeService
}

func NewStatsService(db *pgxpool.Pool, challenges *ChallengeService) *StatsService {
	return &StatsService{db: db, challenges: challenges}
}

// BuildSnapshot assembles the badge-engine input for one user from
// scratch. It is called after every activity or cheer mutation.
func (s *StatsService) BuildSnapshot(ctx context.Context, userID uuid.UUID, ch *challenge.Challenge) (stats.Snapshot, error) {
	var snap stats.Snapshot
	now := time.Now().UTC()
	weekStart, weekEnd := week.Range(now, ch.WeekStartDay)
	prevWeekStart := weekStart.AddDate(0, 0, -7)

	totalsQuery := `
	SELECT COUNT(*), COALESCE(SUM(distance_km), 0)
	FROM activities
	WHERE user_id = $1 AND challenge_id = $2
	`
	err := s.db.QueryRow(ctx, totalsQuery, userID, ch.ID).Scan(&snap.TotalActivities, &snap.TotalDistanceKm)
	if err != nil {
		return snap, fmt.Errorf("failed to get activity totals: %w", err)
	}

	weekQuery := `
	SELECT
		COALESCE(SUM(distance_km), 0),
		COUNT(DISTINCT date),
		COUNT(DISTINCT activity_type)
	FROM activities
	WHERE user_id = $1 AND challenge_id = $2
		AND date >= $3 AND date <= $4
	`
	err = s.db.QueryRow(ctx, weekQuery, userID, ch.ID, weekStart, weekEnd).Scan(
		&snap.WeekDistanceKm,
		&snap.ActiveDaysThisWeek,
		&snap.ActivityTypesThisWeek,
	)
	if err != nil {
		return snap, fmt.Errorf("failed to get current week stats: %w", err)
	}

	met, err := s.metTargetByWeek(ctx, userID, ch.ID)
	if err != nil {
		return snap, err
	}

	snap.WeekTargetMet = met[week.Key(weekStart)]
	snap.PrevWeekMissed = !met[week.Key(prevWeekStart)] && !prevWeekStart.AddDate(0, 0, 6).Before(week.Truncate(ch.StartDate))
	snap.LastDayOfWeek = week.Truncate(now).Equal(weekEnd)
	snap.CurrentStreak = week.Streak(met, now, ch.StartDate, ch.WeekStartDay)

	for _, m := range met {
		if m {
			snap.WeeksCompleted++
		}
	}

	cheersQuery := `
	SELECT
		(SELECT COUNT(*) FROM activity_cheers WHERE user_id = $1),
		(SELECT COUNT(*) FROM activity_cheers ac
			JOIN activity_feed af ON af.id = ac.feed_item_id
			WHERE af.user_id = $1)
	`
	err = s.db.QueryRow(ctx, cheersQuery, userID).Scan(&snap.CheersGiven, &snap.CheersReceived)
	if err != nil {
		return snap, fmt.Errorf("failed to get cheer counts: %w", err)
	}

	return snap, nil
}

// metTargetByWeek loads the user's weekly results as a week-start keyed
// lookup for streak computation.
func (s *StatsService) metTargetByWeek(ctx context.Context, userID, challengeID uuid.UUID) (map[string]bool, error) {
	rows, err := s.db.Query(ctx, `
	SELECT week_start, met_target
	FROM weekly_results
	WHERE user_id = $1 AND challenge_id = $2
	`, userID, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weekly results: %w", err)
	}
	defer rows.Close()

	met := make(map[string]bool)
	for rows.Next() {
		var weekStart time.Time
		var metTarget bool
		if err := rows.Scan(&weekStart, &metTarget); err != nil {
			return nil, fmt.Errorf("failed to scan weekly result: %w", err)
		}
		met[week.Key(weekStart)] = metTarget
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weekly results: %w", err)
	}

	return met, nil
}

func (s *StatsService) GetUserStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	ch, err := s.challenges.ActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := s.BuildSnapshot(ctx, userID, ch)
	if err != nil {
		return nil, err
	}

	result := &stats.UserStats{
		KmThisWeek:      snap.WeekDistanceKm,
		WeeklyTargetKm:  ch.WeeklyTargetKm,
		WeekTargetMet:   snap.WeekTargetMet,
		CurrentStreak:   snap.CurrentStreak,
		WeeksCompleted:  snap.WeeksCompleted,
		TotalActivities: snap.TotalActivities,
		TotalDistanceKm: snap.TotalDistanceKm,
	}

	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_badges WHERE user_id = $1`, userID).Scan(&result.BadgesCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count badges: %w", err)
	}

	rankQuery := `
	WITH totals AS (
		SELECT u.id, COALESCE(SUM(a.distance_km), 0) AS total_km
		FROM users u
		LEFT JOIN activities a ON a.user_id = u.id AND a.challenge_id = $2
		GROUP BY u.id
	),
	ranked AS (
		SELECT id, RANK() OVER (ORDER BY total_km DESC) AS rank
		FROM totals
	)
	SELECT rank FROM ranked WHERE id = $1
	`
	err = s.db.QueryRow(ctx, rankQuery, userID, ch.ID).Scan(&result.Rank)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate rank: %w", err)
	}

	return result, nil
}

// GetWeeklyLeaderboard ranks all members by this week's logged
// distance. The current week window comes from the same calculator the
// aggregator uses, so display and rollups can never disagree.
func (s *StatsService) GetWeeklyLeaderboard(ctx context.Context, clerkID string) (*leaderboard.Leaderboard, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	ch, err := s.challenges.ActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	weekStart, weekEnd := week.Range(time.Now().UTC(), ch.WeekStartDay)

	query := `
	SELECT
		u.id AS user_id,
		u.username,
		u.image_url,
		COALESCE(SUM(a.distance_km), 0) AS km_this_week,
		RANK() OVER (ORDER BY COALESCE(SUM(a.distance_km), 0) DESC) AS rank
	FROM users u
	LEFT JOIN activities a ON a.user_id = u.id
		AND a.challenge_id = $1
		AND a.date >= $2 AND a.date <= $3
	WHERE u.is_active = true
	GROUP BY u.id, u.username, u.image_url
	ORDER BY km_this_week DESC, u.username
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, query, ch.ID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.LeaderboardEntry
	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.ImageURL,
			&entry.KmThisWeek,
			&entry.Rank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		entries = append(entries, entry)
	}

	// A requester ranked below the page still gets their own row.
	userPosition := pagePosition(entries, userID)
	if userPosition == nil {
		userPosition, err = s.weeklyPosition(ctx, userID, ch.ID, weekStart, weekEnd)
		if err != nil {
			return nil, err
		}
	}

	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   len(entries),
	}, nil
}

// pagePosition finds the requester inside an already-fetched page.
func pagePosition(entries []*leaderboard.LeaderboardEntry, userID uuid.UUID) *leaderboard.LeaderboardEntry {
	for _, entry := range entries {
		if entry.UserID == userID {
			return entry
		}
	}
	return nil
}

// weeklyPosition ranks the requester against the full member set when
// they fall outside the served page. Returns nil for inactive users.
func (s *StatsService) weeklyPosition(ctx context.Context, userID, challengeID uuid.UUID, weekStart, weekEnd time.Time) (*leaderboard.LeaderboardEntry, error) {
	query := `
	WITH totals AS (
		SELECT u.id, u.username, u.image_url, COALESCE(SUM(a.distance_km), 0) AS km_this_week
		FROM users u
		LEFT JOIN activities a ON a.user_id = u.id
			AND a.challenge_id = $2
			AND a.date >= $3 AND a.date <= $4
		WHERE u.is_active = true
		GROUP BY u.id, u.username, u.image_url
	),
	ranked AS (
		SELECT id, username, image_url, km_this_week,
			RANK() OVER (ORDER BY km_this_week DESC) AS rank
		FROM totals
	)
	SELECT id, username, image_url, km_this_week, rank
	FROM ranked
	WHERE id = $1
	`

	entry := &leaderboard.LeaderboardEntry{}
	err := s.db.QueryRow(ctx, query, userID, challengeID, weekStart, weekEnd).Scan(
		&entry.UserID,
		&entry.Username,
		&entry.ImageURL,
		&entry.KmThisWeek,
		&entry.Rank,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get leaderboard position: %w", err)
	}

	return entry, nil
}

func (s *StatsService) GetOverallLeaderboard(ctx context.Context, clerkID string) (*leaderboard.Leaderboard, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	ch, err := s.challenges.ActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		u.id AS user_id,
		u.username,
		u.image_url,
		COALESCE(SUM(a.distance_km), 0) AS total_km,
		RANK() OVER (ORDER BY COALESCE(SUM(a.distance_km), 0) DESC) AS rank
	FROM users u
	LEFT JOIN activities a ON a.user_id = u.id AND a.challenge_id = $1
	WHERE u.is_active = true
	GROUP BY u.id, u.username, u.image_url
	ORDER BY total_km DESC, u.username
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, query, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.LeaderboardEntry
	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.ImageURL,
			&entry.TotalKm,
			&entry.Rank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		entries = append(entries, entry)
	}

	userPosition := pagePosition(entries, userID)
	if userPosition == nil {
		userPosition, err = s.overallPosition(ctx, userID, ch.ID)
		if err != nil {
			return nil, err
		}
	}

	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   len(entries),
	}, nil
}

func (s *StatsService) overallPosition(ctx context.Context, userID, challengeID uuid.UUID) (*leaderboard.LeaderboardEntry, error) {
	query := `
	WITH totals AS (
		SELECT u.id, u.username, u.image_url, COALESCE(SUM(a.distance_km), 0) AS total_km
		FROM users u
		LEFT JOIN activities a ON a.user_id = u.id AND a.challenge_id = $2
		WHERE u.is_active = true
		GROUP BY u.id, u.username, u.image_url
	),
	ranked AS (
		SELECT id, username, image_url, total_km,
			RANK() OVER (ORDER BY total_km DESC) AS rank
		FROM totals
	)
	SELECT id, username, image_url, total_km, rank
	FROM ranked
	WHERE id = $1
	`

	entry := &leaderboard.LeaderboardEntry{}
	err := s.db.QueryRow(ctx, query, userID, challengeID).Scan(
		&entry.UserID,
		&entry.Username,
		&entry.ImageURL,
		&entry.TotalKm,
		&entry.Rank,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get leaderboard position: %w", err)
	}

	return entry, nil
}

func (s *StatsService) GetWeeklyResults(ctx context.Context, clerkID string) ([]*weekly.Result, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	ch, err := s.challenges.ActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, challenge_id, week_start, week_end, total_km, met_target, overridden_by_admin, created_at, updated_at
	FROM weekly_results
	WHERE user_id = $1 AND challenge_id = $2
	ORDER BY week_start DESC
	`

	rows, err := s.db.Query(ctx, query, userID, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weekly results: %w", err)
	}
	defer rows.Close()

	var results []*weekly.Result
	for rows.Next() {
		r := &weekly.Result{}
		err := rows.Scan(
			&r.ID,
			&r.UserID,
			&r.ChallengeID,
			&r.WeekStart,
			&r.WeekEnd,
			&r.TotalKm,
			&r.MetTarget,
			&r.OverriddenByAdmin,
			&r.CreatedAt,
			&r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekly result: %w", err)
		}
		results = append(results, r)
	}

	if results == nil {
		results = []*weekly.Result{}
	}

	return results, nil
}

// OverrideWeeklyResult lets an admin freeze a week's met_target. Once
// the override flag is set, recomputes preserve met_target verbatim.
func (s *StatsService) OverrideWeeklyResult(ctx context.Context, adminClerkID string, req *weekly.OverrideRequest) (*weekly.Result, error) {
	_, isAdmin, err := isAdminByClerkID(ctx, s.db, adminClerkID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, fmt.Errorf("admin access required")
	}

	targetUserID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id")
	}

	weekStartDate, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		return nil, fmt.Errorf("invalid week_start, expected YYYY-MM-DD")
	}

	ch, err := s.challenges.ActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	// Normalize to the window the given date falls in, so a mid-week
	// date still lands on the right row.
	weekStart, weekEnd := week.Range(weekStartDate, ch.WeekStartDay)

	query := `
	INSERT INTO weekly_results (id, user_id, challenge_id, week_start, week_end, total_km, met_target, overridden_by_admin, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, 0, $6, true, NOW(), NOW())
	ON CONFLICT (user_id, challenge_id, week_start)
	DO UPDATE SET
		met_target = $6,
		overridden_by_admin = true,
		updated_at = NOW()
	RETURNING id, user_id, challenge_id, week_start, week_end, total_km, met_target, overridden_by_admin, created_at, updated_at
	`

	r := &weekly.Result{}
	err = s.db.QueryRow(ctx, query, uuid.New(), targetUserID, ch.ID, weekStart, weekEnd, req.MetTarget).Scan(
		&r.ID,
		&r.UserID,
		&r.ChallengeID,
		&r.WeekStart,
		&r.WeekEnd,
		&r.TotalKm,
		&r.MetTarget,
		&r.OverriddenByAdmin,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("weekly result not found")
		}
		return nil, fmt.Errorf("failed to override weekly result: %w", err)
	}

	return r, nil
}
