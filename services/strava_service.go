package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"

	"strideClubAPI/internal/strava"
)

const stravaAPIBase = "https://www.strava.com/api/v3"

// refreshLead is how close to expiry we proactively refresh a token.
const refreshLead = 5 * time.Minute

type StravaService struct {
	db         *pgxpool.Pool
	activities *ActivityService
	oauth      *oauth2.Config
	httpClient *http.Client
}

func NewStravaService(db *pgxpool.Pool, activities *ActivityService) *StravaService {
	return &StravaService{
		db:         db,
		activities: activities,
		oauth: &oauth2.Config{
			ClientID:     os.Getenv("STRAVA_CLIENT_ID"),
			ClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("STRAVA_REDIRECT_URL"),
			Scopes:       []string{"read,activity:read"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://www.strava.com/oauth/authorize",
				TokenURL: "https://www.strava.com/oauth/token",
			},
		},
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// AuthorizeURL returns the Strava consent URL. The state parameter
// carries the Clerk user id so the callback can attach the connection
// to the right account.
func (s *StravaService) AuthorizeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// HandleCallback exchanges the authorization code and stores the
// connection. Strava returns the athlete object alongside the token.
func (s *StravaService) HandleCallback(ctx context.Context, clerkID, code string) (*strava.Connection, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange strava code: %w", err)
	}

	athleteID, err := athleteIDFromToken(token)
	if err != nil {
		return nil, err
	}

	conn := &strava.Connection{}
	err = s.db.QueryRow(ctx, `
	INSERT INTO strava_connections (id, user_id, athlete_id, access_token, refresh_token, expires_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	ON CONFLICT (user_id)
	DO UPDATE SET
		athlete_id = $3,
		access_token = $4,
		refresh_token = $5,
		expires_at = $6,
		updated_at = NOW()
	RETURNING id, user_id, athlete_id, access_token, refresh_token, expires_at, created_at, updated_at
	`, uuid.New(), userID, athleteID, token.AccessToken, token.RefreshToken, token.Expiry).Scan(
		&conn.ID, &conn.UserID, &conn.AthleteID,
		&conn.AccessToken, &conn.RefreshToken, &conn.ExpiresAt,
		&conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store strava connection: %w", err)
	}

	log.Printf("HandleCallback: connected strava athlete %d for user %s", athleteID, userID)
	return conn, nil
}

func athleteIDFromToken(token *oauth2.Token) (int64, error) {
	athlete, ok := token.Extra("athlete").(map[string]any)
	if !ok {
		return 0, fmt.Errorf("strava token response missing athlete")
	}
	id, ok := athlete["id"].(float64)
	if !ok {
		return 0, fmt.Errorf("strava athlete missing id")
	}
	return int64(id), nil
}

func (s *StravaService) GetConnection(ctx context.Context, clerkID string) (*strava.Connection, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	conn := &strava.Connection{}
	err = s.db.QueryRow(ctx, `
	SELECT id, user_id, athlete_id, access_token, refresh_token, expires_at, created_at, updated_at
	FROM strava_connections
	WHERE user_id = $1
	`, userID).Scan(
		&conn.ID, &conn.UserID, &conn.AthleteID,
		&conn.AccessToken, &conn.RefreshToken, &conn.ExpiresAt,
		&conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no strava connection")
		}
		return nil, fmt.Errorf("failed to get strava connection: %w", err)
	}

	return conn, nil
}

func (s *StravaService) DeleteConnection(ctx context.Context, clerkID string) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `DELETE FROM strava_connections WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete strava connection: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no strava connection")
	}

	return nil
}

func (s *StravaService) connectionByAthlete(ctx context.Context, athleteID int64) (*strava.Connection, error) {
	conn := &strava.Connection{}
	err := s.db.QueryRow(ctx, `
	SELECT id, user_id, athlete_id, access_token, refresh_token, expires_at, created_at, updated_at
	FROM strava_connections
	WHERE athlete_id = $1
	`, athleteID).Scan(
		&conn.ID, &conn.UserID, &conn.AthleteID,
		&conn.AccessToken, &conn.RefreshToken, &conn.ExpiresAt,
		&conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no connection for athlete %d", athleteID)
		}
		return nil, fmt.Errorf("failed to get connection by athlete: %w", err)
	}
	return conn, nil
}

// validToken returns a usable access token for the connection,
// refreshing and persisting it when it is about to expire.
func (s *StravaService) validToken(ctx context.Context, conn *strava.Connection) (string, error) {
	if time.Until(conn.ExpiresAt) > refreshLead {
		return conn.AccessToken, nil
	}

	src := s.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		Expiry:       conn.ExpiresAt,
	})

	token, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("no valid token: %w", err)
	}

	_, err = s.db.Exec(ctx, `
	UPDATE strava_connections
	SET access_token = $2, refresh_token = $3, expires_at = $4, updated_at = NOW()
	WHERE id = $1
	`, conn.ID, token.AccessToken, token.RefreshToken, token.Expiry)
	if err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	return token.AccessToken, nil
}

// ProcessWebhookEvent handles one Strava push event. Only activity
// create events import; everything else is acknowledged and dropped so
// Strava does not retry.
func (s *StravaService) ProcessWebhookEvent(ctx context.Context, event *strava.WebhookEvent) error {
	if event.ObjectType != "activity" || event.AspectType != "create" {
		log.Printf("ProcessWebhookEvent: ignoring %s/%s event", event.ObjectType, event.AspectType)
		return nil
	}

	externalID := fmt.Sprintf("strava:%d", event.ObjectID)

	exists, err := s.activities.ExistsByExternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if exists {
		log.Printf("ProcessWebhookEvent: activity %d already imported", event.ObjectID)
		return nil
	}

	conn, err := s.connectionByAthlete(ctx, event.OwnerID)
	if err != nil {
		// Unknown athlete: the user never connected, or disconnected.
		log.Printf("ProcessWebhookEvent: %v", err)
		return nil
	}

	payload, err := s.fetchActivity(ctx, conn, event.ObjectID)
	if err != nil {
		return err
	}

	durationMin := payload.MovingTime / 60
	_, err = s.activities.ImportActivity(
		ctx,
		conn.UserID,
		externalID,
		payload.StartDateLocal,
		payload.Distance/1000.0,
		&durationMin,
		payload.Type,
	)
	if err != nil {
		return err
	}

	log.Printf("ProcessWebhookEvent: imported strava activity %d for user %s", event.ObjectID, conn.UserID)
	return nil
}

func (s *StravaService) fetchActivity(ctx context.Context, conn *strava.Connection, activityID int64) (*strava.ActivityPayload, error) {
	accessToken, err := s.validToken(ctx, conn)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/activities/%d", stravaAPIBase, activityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build strava request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch strava activity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("strava api returned %d for activity %d", resp.StatusCode, activityID)
	}

	payload := &strava.ActivityPayload{}
	if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
		return nil, fmt.Errorf("failed to decode strava activity: %w", err)
	}

	return payload, nil
}
