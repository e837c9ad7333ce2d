package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"strideClubAPI/internal/feed"
)

type FeedService struct {
	db         *pgxpool.Pool
	stats      *StatsService
	challenges *ChallengeService
	badges     *BadgeService
}

func NewFeedService(db *pgxpool.Pool, statsService *StatsService, challenges *ChallengeService) *FeedService {
	return &FeedService{db: db, stats: statsService, challenges: challenges}
}

// SetBadgeService breaks the construction cycle between feed and badge
// services; cheers trigger badge evaluation for both sides.
func (s *FeedService) SetBadgeService(badges *BadgeService) {
	s.badges = badges
}

// AddEvent appends one entry to the activity feed. Feed rows are never
// updated or deleted afterwards.
func (s *FeedService) AddEvent(ctx context.Context, userID uuid.UUID, eventType feed.EventType, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal feed payload: %w", err)
	}

	_, err = s.db.Exec(ctx, `
	INSERT INTO activity_feed (id, user_id, event_type, payload, created_at)
	VALUES ($1, $2, $3, $4, NOW())
	`, uuid.New(), userID, eventType, raw)
	if err != nil {
		return fmt.Errorf("failed to insert feed event: %w", err)
	}

	return nil
}

func (s *FeedService) GetFeed(ctx context.Context, clerkID string, limit int) ([]*feed.Item, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
	SELECT
		af.id,
		af.user_id,
		u.username,
		u.image_url,
		af.event_type,
		af.payload,
		af.created_at,
		COUNT(ac.id) AS cheer_count,
		BOOL_OR(ac.user_id = $1) AS cheered_by_me
	FROM activity_feed af
	JOIN users u ON u.id = af.user_id
	LEFT JOIN activity_cheers ac ON ac.feed_item_id = af.id
	GROUP BY af.id, af.user_id, u.username, u.image_url, af.event_type, af.payload, af.created_at
	ORDER BY af.created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer rows.Close()

	var items []*feed.Item
	for rows.Next() {
		item := &feed.Item{}
		var cheeredByMe *bool

		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Username,
			&item.UserImageURL,
			&item.EventType,
			&item.Payload,
			&item.CreatedAt,
			&item.CheerCount,
			&cheeredByMe,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed item: %w", err)
		}

		if cheeredByMe != nil {
			item.CheeredByMe = *cheeredByMe
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed: %w", err)
	}

	if items == nil {
		items = []*feed.Item{}
	}

	return items, nil
}

// Cheer records one cheer per user per feed item. Duplicate cheers are
// a no-op so webhook-style re-delivery cannot double count.
func (s *FeedService) Cheer(ctx context.Context, clerkID string, feedItemID string) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	itemUUID, err := uuid.Parse(feedItemID)
	if err != nil {
		return fmt.Errorf("invalid feed item id")
	}

	var ownerID uuid.UUID
	err = s.db.QueryRow(ctx, `SELECT user_id FROM activity_feed WHERE id = $1`, itemUUID).Scan(&ownerID)
	if err != nil {
		return fmt.Errorf("feed item not found")
	}

	if ownerID == userID {
		return fmt.Errorf("cannot cheer your own post")
	}

	result, err := s.db.Exec(ctx, `
	INSERT INTO activity_cheers (id, user_id, feed_item_id, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, feed_item_id) DO NOTHING
	`, uuid.New(), userID, itemUUID)
	if err != nil {
		return fmt.Errorf("failed to add cheer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return nil
	}

	// Cheer counts feed the social badges on both sides.
	s.evaluateBadges(ctx, userID)
	s.evaluateBadges(ctx, ownerID)

	return nil
}

func (s *FeedService) Uncheer(ctx context.Context, clerkID string, feedItemID string) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	itemUUID, err := uuid.Parse(feedItemID)
	if err != nil {
		return fmt.Errorf("invalid feed item id")
	}

	result, err := s.db.Exec(ctx, `
	DELETE FROM activity_cheers
	WHERE user_id = $1 AND feed_item_id = $2
	`, userID, itemUUID)
	if err != nil {
		return fmt.Errorf("failed to remove cheer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("cheer not found")
	}

	return nil
}

func (s *FeedService) evaluateBadges(ctx context.Context, userID uuid.UUID) {
	if s.badges == nil {
		return
	}

	ch, err := s.challenges.ActiveChallenge(ctx)
	if err != nil {
		log.Printf("evaluateBadges: failed to get challenge: %v", err)
		return
	}

	snap, err := s.stats.BuildSnapshot(ctx, userID, ch)
	if err != nil {
		log.Printf("evaluateBadges: failed to build snapshot for %s: %v", userID, err)
		return
	}

	if err := s.badges.CheckAndAward(ctx, userID, snap); err != nil {
		log.Printf("evaluateBadges: award failed for %s: %v", userID, err)
	}
}
