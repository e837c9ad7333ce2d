package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"strideClubAPI/internal/badge"
	"strideClubAPI/internal/feed"
	"strideClubAPI/internal/notification"
	"strideClubAPI/internal/stats"
)

type BadgeService struct {
	db            *pgxpool.Pool
	feeds         *FeedService
	notifications *NotificationService
}

func NewBadgeService(db *pgxpool.Pool, feeds *FeedService, notifications *NotificationService) *BadgeService {
	return &BadgeService{
		db:            db,
		feeds:         feeds,
		notifications: notifications,
	}
}

// SeedCatalog upserts the in-code badge catalog into the badges table
// so catalog rows and predicates cannot drift. Run once at startup.
func (s *BadgeService) SeedCatalog(ctx context.Context) error {
	query := `
	INSERT INTO badges (id, slug, name, icon, description, category, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	ON CONFLICT (slug)
	DO UPDATE SET
		name = $3,
		icon = $4,
		description = $5,
		category = $6
	`

	for _, def := range badge.Catalog {
		if _, err := s.db.Exec(ctx, query, uuid.New(), def.Slug, def.Name, def.Icon, def.Description, def.Category); err != nil {
			return fmt.Errorf("failed to seed badge %s: %w", def.Slug, err)
		}
	}

	return nil
}

// CheckAndAward evaluates the full predicate table against the
// snapshot and records every newly satisfied badge. Awards are
// insert-once and never revoked; re-running with unchanged inputs is a
// no-op, so the cascade is safe to retry.
func (s *BadgeService) CheckAndAward(ctx context.Context, userID uuid.UUID, snap stats.Snapshot) error {
	earned, err := s.earnedSlugs(ctx, userID)
	if err != nil {
		return err
	}

	newly := badge.Evaluate(snap, earned)
	for _, def := range newly {
		if err := s.award(ctx, userID, def); err != nil {
			log.Printf("CheckAndAward: failed to award %s to %s: %v", def.Slug, userID, err)
			return err
		}
	}

	return nil
}

func (s *BadgeService) earnedSlugs(ctx context.Context, userID uuid.UUID) (map[string]bool, error) {
	rows, err := s.db.Query(ctx, `
	SELECT b.slug
	FROM user_badges ub
	JOIN badges b ON b.id = ub.badge_id
	WHERE ub.user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch earned badges: %w", err)
	}
	defer rows.Close()

	earned := make(map[string]bool)
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("failed to scan badge slug: %w", err)
		}
		earned[slug] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badge slugs: %w", err)
	}

	return earned, nil
}

func (s *BadgeService) award(ctx context.Context, userID uuid.UUID, def badge.Definition) error {
	var badgeID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM badges WHERE slug = $1`, def.Slug).Scan(&badgeID)
	if err != nil {
		return fmt.Errorf("badge %s missing from catalog table: %w", def.Slug, err)
	}

	// ON CONFLICT guards against a concurrent cascade awarding the
	// same badge; only the row that actually inserted emits events.
	result, err := s.db.Exec(ctx, `
	INSERT INTO user_badges (id, user_id, badge_id, earned_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, badge_id) DO NOTHING
	`, uuid.New(), userID, badgeID)
	if err != nil {
		return fmt.Errorf("failed to insert user badge: %w", err)
	}

	if result.RowsAffected() == 0 {
		return nil
	}

	payload := map[string]any{
		"slug": def.Slug,
		"name": def.Name,
		"icon": def.Icon,
	}
	if err := s.feeds.AddEvent(ctx, userID, feed.EventBadge, payload); err != nil {
		log.Printf("award: failed to add feed event for %s: %v", def.Slug, err)
	}

	s.notifications.NotifyUser(ctx, userID, notification.TypeBadgeEarned,
		"Badge earned!",
		fmt.Sprintf("%s %s: %s", def.Icon, def.Name, def.Description),
		payload,
	)

	log.Printf("award: user %s earned badge %s", userID, def.Slug)
	return nil
}

// GetBadges returns the full catalog with the user's earned status.
func (s *BadgeService) GetBadges(ctx context.Context, clerkID string) ([]*badge.BadgeWithStatus, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		b.id,
		b.slug,
		b.name,
		b.icon,
		b.description,
		b.category,
		b.created_at,
		CASE WHEN ub.id IS NOT NULL THEN true ELSE false END as earned,
		ub.earned_at
	FROM badges b
	LEFT JOIN user_badges ub ON b.id = ub.badge_id AND ub.user_id = $1
	ORDER BY earned DESC, b.category, b.slug
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badges: %w", err)
	}
	defer rows.Close()

	var badges []*badge.BadgeWithStatus

	for rows.Next() {
		b := &badge.BadgeWithStatus{}
		err := rows.Scan(
			&b.ID,
			&b.Slug,
			&b.Name,
			&b.Icon,
			&b.Description,
			&b.Category,
			&b.CreatedAt,
			&b.Earned,
			&b.EarnedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}

		badges = append(badges, b)
	}

	return badges, nil
}
