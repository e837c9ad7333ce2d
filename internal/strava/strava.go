package strava

import (
	"time"

	"github.com/google/uuid"
)

type Connection struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	AthleteID    int64     `json:"athlete_id" db:"athlete_id"`
	AccessToken  string    `json:"-" db:"access_token"`
	RefreshToken string    `json:"-" db:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// WebhookEvent is Strava's push notification payload.
type WebhookEvent struct {
	ObjectType     string `json:"object_type"` // "activity" | "athlete"
	AspectType     string `json:"aspect_type"` // "create" | "update" | "delete"
	ObjectID       int64  `json:"object_id"`
	OwnerID        int64  `json:"owner_id"`
	SubscriptionID int64  `json:"subscription_id"`
	EventTime      int64  `json:"event_time"`
}

// ActivityPayload is the subset of Strava's activity resource we import.
type ActivityPayload struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Distance       float64   `json:"distance"` // meters
	MovingTime     int       `json:"moving_time"`
	Type           string    `json:"type"`
	StartDateLocal time.Time `json:"start_date_local"`
}
