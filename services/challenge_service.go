package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skip2/go-qrcode"

	"strideClubAPI/internal/challenge"
)

type ChallengeService struct {
	db *pgxpool.Pool
}

func NewChallengeService(db *pgxpool.Pool) *ChallengeService {
	return &ChallengeService{db: db}
}

// ActiveChallenge returns the active challenge: the earliest one by
// start date. If none exists yet it is created lazily with defaults
// (Monday week start, 15 km weekly target) so a fresh deployment works
// without seeding.
func (s *ChallengeService) ActiveChallenge(ctx context.Context) (*challenge.Challenge, error) {
	query := `
	SELECT id, name, description, start_date, week_start_day, weekly_target_km, created_at
	FROM challenges
	ORDER BY start_date ASC
	LIMIT 1
	`

	ch := &challenge.Challenge{}
	err := s.db.QueryRow(ctx, query).Scan(
		&ch.ID,
		&ch.Name,
		&ch.Description,
		&ch.StartDate,
		&ch.WeekStartDay,
		&ch.WeeklyTargetKm,
		&ch.CreatedAt,
	)

	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	insert := `
	INSERT INTO challenges (id, name, description, start_date, week_start_day, weekly_target_km, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	RETURNING id, name, description, start_date, week_start_day, weekly_target_km, created_at
	`

	err = s.db.QueryRow(
		ctx,
		insert,
		uuid.New(),
		"Team Stride Challenge",
		"Hit the weekly distance target together",
		time.Now().UTC(),
		1, // Monday
		15.0,
	).Scan(
		&ch.ID,
		&ch.Name,
		&ch.Description,
		&ch.StartDate,
		&ch.WeekStartDay,
		&ch.WeeklyTargetKm,
		&ch.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create default challenge: %w", err)
	}

	return ch, nil
}

func shareLink(code string) string {
	return fmt.Sprintf("strideclub://join?inviteCode=%s", code)
}

// GenerateInvite builds a QR deep link teammates can scan to join.
func (s *ChallengeService) GenerateInvite(ctx context.Context, clerkID string) (*challenge.InviteResponse, error) {
	if _, err := userIDByClerkID(ctx, s.db, clerkID); err != nil {
		return nil, err
	}

	ch, err := s.ActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	inviteCode := ch.ID.String()
	link := shareLink(inviteCode)

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate qr code: %w", err)
	}

	return &challenge.InviteResponse{
		InviteCode:   inviteCode,
		ShareLink:    link,
		QrCodeBase64: base64.StdEncoding.EncodeToString(png),
		ExpiresAt:    time.Now().UTC().Add(72 * time.Hour),
	}, nil
}
