package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"strideClubAPI/internal/activity"
	"strideClubAPI/internal/challenge"
	"strideClubAPI/internal/feed"
	"strideClubAPI/internal/notification"
	"strideClubAPI/internal/personalbest"
	"strideClubAPI/internal/week"
	"strideClubAPI/internal/weekly"
)

type ActivityService struct {
	db            *pgxpool.Pool
	challenges    *ChallengeService
	stats         *StatsService
	badges        *BadgeService
	feeds         *FeedService
	notifications *NotificationService
}

func NewActivityService(db *pgxpool.Pool, challenges *ChallengeService, statsService *StatsService, badges *BadgeService, feeds *FeedService, notifications *NotificationService) *ActivityService {
	return &ActivityService{
		db:            db,
		challenges:    challenges,
		stats:         statsService,
		badges:        badges,
		feeds:         feeds,
		notifications: notifications,
	}
}

func parseActivityDate(raw string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date, expected YYYY-MM-DD")
	}
	return week.Truncate(d), nil
}

func (s *ActivityService) CreateActivity(ctx context.Context, clerkID string, req *activity.CreateActivityRequest) (*activity.Activity, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if req.DistanceKm <= 0 {
		return nil, fmt.Errorf("distance must be positive")
	}
	if !activity.ValidManualType(req.ActivityType) {
		return nil, fmt.Errorf("activity type must be one of run, walk, jog")
	}

	date, err := parseActivityDate(req.Date)
	if err != nil {
		return nil, err
	}

	ch, err := s.challenges.ActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	act := &activity.Activity{
		ID:           uuid.New(),
		UserID:       userID,
		ChallengeID:  ch.ID,
		Date:         date,
		DistanceKm:   req.DistanceKm,
		DurationMin:  req.DurationMin,
		ActivityType: req.ActivityType,
		ProofURL:     req.ProofURL,
	}

	query := `
	INSERT INTO activities (id, user_id, challenge_id, date, distance_km, duration_min, activity_type, proof_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	RETURNING created_at, updated_at
	`

	err = s.db.QueryRow(ctx, query,
		act.ID, act.UserID, act.ChallengeID, act.Date,
		act.DistanceKm, act.DurationMin, act.ActivityType, act.ProofURL,
	).Scan(&act.CreatedAt, &act.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	if err := s.feeds.AddEvent(ctx, userID, feed.EventActivity, map[string]any{
		"activity_id":   act.ID,
		"activity_type": act.ActivityType,
		"distance_km":   act.DistanceKm,
		"date":          week.Key(act.Date),
	}); err != nil {
		log.Printf("CreateActivity: feed event failed: %v", err)
	}

	s.cascade(ctx, userID, ch, act, act.Date)

	return act, nil
}

// ImportActivity stores an externally sourced activity (Strava). The
// provider's object id is recorded so re-delivered webhook events
// import at most one copy; callers must check ExistsByExternalID first
// and the unique index backstops them.
func (s *ActivityService) ImportActivity(ctx context.Context, userID uuid.UUID, externalID string, date time.Time, distanceKm float64, durationMin *int, activityType string) (*activity.Activity, error) {
	ch, err := s.challenges.ActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	act := &activity.Activity{
		ID:           uuid.New(),
		UserID:       userID,
		ChallengeID:  ch.ID,
		Date:         week.Truncate(date),
		DistanceKm:   distanceKm,
		DurationMin:  durationMin,
		ActivityType: strings.ToLower(activityType),
		ExternalID:   &externalID,
	}

	query := `
	INSERT INTO activities (id, user_id, challenge_id, date, distance_km, duration_min, activity_type, external_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	ON CONFLICT (external_id) DO NOTHING
	RETURNING created_at, updated_at
	`

	err = s.db.QueryRow(ctx, query,
		act.ID, act.UserID, act.ChallengeID, act.Date,
		act.DistanceKm, act.DurationMin, act.ActivityType, act.ExternalID,
	).Scan(&act.CreatedAt, &act.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict: already imported.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to import activity: %w", err)
	}

	if err := s.feeds.AddEvent(ctx, userID, feed.EventActivity, map[string]any{
		"activity_id":   act.ID,
		"activity_type": act.ActivityType,
		"distance_km":   act.DistanceKm,
		"date":          week.Key(act.Date),
		"source":        "strava",
	}); err != nil {
		log.Printf("ImportActivity: feed event failed: %v", err)
	}

	s.cascade(ctx, userID, ch, act, act.Date)

	return act, nil
}

func (s *ActivityService) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM activities WHERE external_id = $1)`, externalID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check external id: %w", err)
	}
	return exists, nil
}

func (s *ActivityService) UpdateActivity(ctx context.Context, clerkID string, activityID string, req *activity.UpdateActivityRequest) (*activity.Activity, error) {
	actorID, isAdmin, err := isAdminByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	actUUID, err := uuid.Parse(activityID)
	if err != nil {
		return nil, fmt.Errorf("invalid activity id")
	}

	existing, err := s.getActivity(ctx, actUUID)
	if err != nil {
		return nil, err
	}

	if existing.UserID != actorID && !isAdmin {
		return nil, fmt.Errorf("not allowed to edit this activity")
	}

	newDate := existing.Date
	if req.Date != "" {
		newDate, err = parseActivityDate(req.Date)
		if err != nil {
			return nil, err
		}
	}

	newDistance := existing.DistanceKm
	if req.DistanceKm > 0 {
		newDistance = req.DistanceKm
	}

	newType := existing.ActivityType
	if req.ActivityType != "" {
		if !activity.ValidManualType(req.ActivityType) {
			return nil, fmt.Errorf("activity type must be one of run, walk, jog")
		}
		newType = req.ActivityType
	}

	newDuration := existing.DurationMin
	if req.DurationMin != nil {
		newDuration = req.DurationMin
	}

	newProof := existing.ProofURL
	if req.ProofURL != nil {
		newProof = req.ProofURL
	}

	query := `
	UPDATE activities
	SET date = $2, distance_km = $3, duration_min = $4, activity_type = $5, proof_url = $6, updated_at = NOW()
	WHERE id = $1
	RETURNING id, user_id, challenge_id, date, distance_km, duration_min, activity_type, proof_url, external_id, created_at, updated_at
	`

	act := &activity.Activity{}
	err = s.db.QueryRow(ctx, query, actUUID, newDate, newDistance, newDuration, newType, newProof).Scan(
		&act.ID, &act.UserID, &act.ChallengeID, &act.Date,
		&act.DistanceKm, &act.DurationMin, &act.ActivityType, &act.ProofURL,
		&act.ExternalID, &act.CreatedAt, &act.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	ch, err := s.challenges.ActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	// A date edit can move the activity across a week boundary; the
	// vacated week's rollup has to be recomputed too or it goes stale.
	dates := []time.Time{act.Date}
	oldStart, _ := week.Range(existing.Date, ch.WeekStartDay)
	newStart, _ := week.Range(act.Date, ch.WeekStartDay)
	if !oldStart.Equal(newStart) {
		dates = append(dates, existing.Date)
	}

	s.cascade(ctx, existing.UserID, ch, act, dates...)

	return act, nil
}

func (s *ActivityService) DeleteActivity(ctx context.Context, clerkID string, activityID string) error {
	actorID, isAdmin, err := isAdminByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	actUUID, err := uuid.Parse(activityID)
	if err != nil {
		return fmt.Errorf("invalid activity id")
	}

	existing, err := s.getActivity(ctx, actUUID)
	if err != nil {
		return err
	}

	if existing.UserID != actorID && !isAdmin {
		return fmt.Errorf("not allowed to delete this activity")
	}

	result, err := s.db.Exec(ctx, `DELETE FROM activities WHERE id = $1`, actUUID)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("activity not found")
	}

	ch, err := s.challenges.ActiveChallenge(ctx)
	if err != nil {
		return err
	}

	// Recompute with the deleted activity's date, not today: the row
	// may have lived in a past week.
	s.cascade(ctx, existing.UserID, ch, nil, existing.Date)

	return nil
}

func (s *ActivityService) ListActivities(ctx context.Context, clerkID string, limit int) ([]*activity.Activity, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 100
	}

	query := `
	SELECT id, user_id, challenge_id, date, distance_km, duration_min, activity_type, proof_url, external_id, created_at, updated_at
	FROM activities
	WHERE user_id = $1
	ORDER BY date DESC, created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	defer rows.Close()

	var activities []*activity.Activity
	for rows.Next() {
		act := &activity.Activity{}
		err := rows.Scan(
			&act.ID, &act.UserID, &act.ChallengeID, &act.Date,
			&act.DistanceKm, &act.DurationMin, &act.ActivityType, &act.ProofURL,
			&act.ExternalID, &act.CreatedAt, &act.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, act)
	}

	if activities == nil {
		activities = []*activity.Activity{}
	}

	return activities, nil
}

func (s *ActivityService) getActivity(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	act := &activity.Activity{}
	err := s.db.QueryRow(ctx, `
	SELECT id, user_id, challenge_id, date, distance_km, duration_min, activity_type, proof_url, external_id, created_at, updated_at
	FROM activities
	WHERE id = $1
	`, id).Scan(
		&act.ID, &act.UserID, &act.ChallengeID, &act.Date,
		&act.DistanceKm, &act.DurationMin, &act.ActivityType, &act.ProofURL,
		&act.ExternalID, &act.CreatedAt, &act.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("activity not found")
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return act, nil
}

// recomputeWeeklyResult re-sums the window containing date and upserts
// the rollup row. The whole read-sum-upsert sequence runs in one
// transaction so concurrent recomputes for the same week converge to
// the last writer's full re-sum. Returns whether met_target flipped to
// true.
func (s *ActivityService) recomputeWeeklyResult(ctx context.Context, userID uuid.UUID, ch *challenge.Challenge, date time.Time) (bool, error) {
	weekStart, weekEnd := week.Range(date, ch.WeekStartDay)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var total float64
	err = tx.QueryRow(ctx, `
	SELECT COALESCE(SUM(distance_km), 0)
	FROM activities
	WHERE user_id = $1 AND challenge_id = $2
		AND date >= $3 AND date <= $4
	`, userID, ch.ID, weekStart, weekEnd).Scan(&total)
	if err != nil {
		return false, fmt.Errorf("failed to sum week distance: %w", err)
	}

	var existingMet, overridden, hadRow bool
	err = tx.QueryRow(ctx, `
	SELECT met_target, overridden_by_admin
	FROM weekly_results
	WHERE user_id = $1 AND challenge_id = $2 AND week_start = $3
	FOR UPDATE
	`, userID, ch.ID, weekStart).Scan(&existingMet, &overridden)
	switch {
	case err == nil:
		hadRow = true
	case errors.Is(err, pgx.ErrNoRows):
		// First activity in this window.
	default:
		return false, fmt.Errorf("failed to read weekly result: %w", err)
	}

	// An admin override freezes met_target; only the total refreshes.
	metTarget := weekly.MetTarget(total, ch.WeeklyTargetKm, overridden, existingMet)

	_, err = tx.Exec(ctx, `
	INSERT INTO weekly_results (id, user_id, challenge_id, week_start, week_end, total_km, met_target, overridden_by_admin, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, false, NOW(), NOW())
	ON CONFLICT (user_id, challenge_id, week_start)
	DO UPDATE SET
		total_km = $6,
		met_target = $7,
		updated_at = NOW()
	`, uuid.New(), userID, ch.ID, weekStart, weekEnd, total, metTarget)
	if err != nil {
		return false, fmt.Errorf("failed to upsert weekly result: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit weekly result: %w", err)
	}

	flipped := metTarget && (!hadRow || !existingMet)
	return flipped, nil
}

// cascade runs the post-mutation chain: weekly rollups for every
// affected date, personal bests, then badge evaluation against a fresh
// snapshot. act is nil for deletes. Failures are logged, not returned:
// the activity write already committed and every step here is
// recomputed from scratch on the next mutation anyway.
func (s *ActivityService) cascade(ctx context.Context, userID uuid.UUID, ch *challenge.Challenge, act *activity.Activity, dates ...time.Time) {
	now := time.Now().UTC()
	currentStart, _ := week.Range(now, ch.WeekStartDay)

	currentWeekFlipped := false
	for _, d := range dates {
		flipped, err := s.recomputeWeeklyResult(ctx, userID, ch, d)
		if err != nil {
			log.Printf("cascade: weekly recompute failed for %s on %s: %v", userID, week.Key(d), err)
			return
		}
		weekStart, _ := week.Range(d, ch.WeekStartDay)
		if flipped && weekStart.Equal(currentStart) {
			currentWeekFlipped = true
		}
	}

	if act != nil {
		s.checkPersonalBests(ctx, userID, ch, act)
	}

	snap, err := s.stats.BuildSnapshot(ctx, userID, ch)
	if err != nil {
		log.Printf("cascade: snapshot failed for %s: %v", userID, err)
		return
	}

	if currentWeekFlipped {
		if err := s.feeds.AddEvent(ctx, userID, feed.EventStreak, map[string]any{
			"streak":     snap.CurrentStreak,
			"week_start": week.Key(currentStart),
			"total_km":   snap.WeekDistanceKm,
			"target_km":  ch.WeeklyTargetKm,
		}); err != nil {
			log.Printf("cascade: streak feed event failed: %v", err)
		}

		s.notifications.NotifyUser(ctx, userID, notification.TypeWeekComplete,
			"Weekly target hit!",
			fmt.Sprintf("You covered %.1f km this week, target was %.1f km.", snap.WeekDistanceKm, ch.WeeklyTargetKm),
			map[string]any{"week_start": week.Key(currentStart), "streak": snap.CurrentStreak},
		)

		switch snap.CurrentStreak {
		case 3, 5, 10:
			s.notifications.NotifyUser(ctx, userID, notification.TypeStreakMilestone,
				"Streak milestone!",
				fmt.Sprintf("%d weeks in a row. Keep it rolling.", snap.CurrentStreak),
				map[string]any{"streak": snap.CurrentStreak},
			)
		}
	}

	if err := s.badges.CheckAndAward(ctx, userID, snap); err != nil {
		log.Printf("cascade: badge award failed for %s: %v", userID, err)
	}
}

// checkPersonalBests records strictly-greater improvements for the
// longest single activity and the best week totals.
func (s *ActivityService) checkPersonalBests(ctx context.Context, userID uuid.UUID, ch *challenge.Challenge, act *activity.Activity) {
	s.recordBest(ctx, userID, ch, personalbest.RecordLongestActivity, act.DistanceKm, &act.ID)

	weekStart, weekEnd := week.Range(act.Date, ch.WeekStartDay)
	var weekTotal float64
	err := s.db.QueryRow(ctx, `
	SELECT COALESCE(SUM(distance_km), 0)
	FROM activities
	WHERE user_id = $1 AND challenge_id = $2
		AND date >= $3 AND date <= $4
	`, userID, ch.ID, weekStart, weekEnd).Scan(&weekTotal)
	if err != nil {
		log.Printf("checkPersonalBests: failed to sum week: %v", err)
		return
	}

	s.recordBest(ctx, userID, ch, personalbest.RecordBestWeek, weekTotal, nil)
}

func (s *ActivityService) recordBest(ctx context.Context, userID uuid.UUID, ch *challenge.Challenge, recordType personalbest.RecordType, value float64, activityID *uuid.UUID) {
	if value <= 0 {
		return
	}

	// The WHERE clause makes the overwrite strictly-greater-only.
	result, err := s.db.Exec(ctx, `
	INSERT INTO personal_bests (id, user_id, challenge_id, record_type, value, activity_id, achieved_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	ON CONFLICT (user_id, challenge_id, record_type)
	DO UPDATE SET
		value = $5,
		activity_id = $6,
		achieved_at = NOW(),
		updated_at = NOW()
	WHERE personal_bests.value < $5
	`, uuid.New(), userID, ch.ID, recordType, value, activityID)
	if err != nil {
		log.Printf("recordBest: upsert failed for %s: %v", recordType, err)
		return
	}

	if result.RowsAffected() == 0 {
		return
	}

	if err := s.feeds.AddEvent(ctx, userID, feed.EventPB, map[string]any{
		"record_type": recordType,
		"value":       value,
	}); err != nil {
		log.Printf("recordBest: feed event failed: %v", err)
	}
}

func (s *ActivityService) GetPersonalBests(ctx context.Context, clerkID string) ([]*personalbest.PersonalBest, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, challenge_id, record_type, value, activity_id, achieved_at, updated_at
	FROM personal_bests
	WHERE user_id = $1
	ORDER BY record_type
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch personal bests: %w", err)
	}
	defer rows.Close()

	var bests []*personalbest.PersonalBest
	for rows.Next() {
		pb := &personalbest.PersonalBest{}
		err := rows.Scan(&pb.ID, &pb.UserID, &pb.ChallengeID, &pb.RecordType, &pb.Value, &pb.ActivityID, &pb.AchievedAt, &pb.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan personal best: %w", err)
		}
		bests = append(bests, pb)
	}

	if bests == nil {
		bests = []*personalbest.PersonalBest{}
	}

	return bests, nil
}
