package activity

import (
	"time"

	"github.com/google/uuid"
)

// Manual entry is restricted to this closed set. Imported activities
// keep whatever type the provider reports (Ride, Hike, ...).
const (
	TypeRun  = "run"
	TypeWalk = "walk"
	TypeJog  = "jog"
)

func ValidManualType(t string) bool {
	return t == TypeRun || t == TypeWalk || t == TypeJog
}

type Activity struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID  uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	Date         time.Time  `json:"date" db:"date"`
	DistanceKm   float64    `json:"distance_km" db:"distance_km"`
	DurationMin  *int       `json:"duration_min" db:"duration_min"`
	ActivityType string     `json:"activity_type" db:"activity_type"`
	ProofURL     *string    `json:"proof_url" db:"proof_url"`
	ExternalID   *string    `json:"external_id" db:"external_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateActivityRequest struct {
	Date         string  `json:"date" validate:"required"` // YYYY-MM-DD
	DistanceKm   float64 `json:"distance_km" validate:"required"`
	DurationMin  *int    `json:"duration_min"`
	ActivityType string  `json:"activity_type" validate:"required"`
	ProofURL     *string `json:"proof_url"`
}

type UpdateActivityRequest struct {
	Date         string  `json:"date"`
	DistanceKm   float64 `json:"distance_km"`
	DurationMin  *int    `json:"duration_min"`
	ActivityType string  `json:"activity_type"`
	ProofURL     *string `json:"proof_url"`
}
