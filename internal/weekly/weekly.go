package weekly

import (
	"time"

	"github.com/google/uuid"
)

// Result is one (user, challenge, week_start) rollup row. If
// OverriddenByAdmin is set, MetTarget is authoritative and recomputes
// must not touch it.
type Result struct {
	ID                uuid.UUID `json:"id" db:"id"`
	UserID            uuid.UUID `json:"user_id" db:"user_id"`
	ChallengeID       uuid.UUID `json:"challenge_id" db:"challenge_id"`
	WeekStart         time.Time `json:"week_start" db:"week_start"`
	WeekEnd           time.Time `json:"week_end" db:"week_end"`
	TotalKm           float64   `json:"total_km" db:"total_km"`
	MetTarget         bool      `json:"met_target" db:"met_target"`
	OverriddenByAdmin bool      `json:"overridden_by_admin" db:"overridden_by_admin"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// MetTarget decides a rollup row's met_target after a re-sum. An admin
// override freezes the stored flag; otherwise the target counts as met
// at exactly the target value (non-strict).
func MetTarget(totalKm, targetKm float64, overridden, storedMet bool) bool {
	if overridden {
		return storedMet
	}
	return totalKm >= targetKm
}

type OverrideRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	WeekStart string `json:"week_start" validate:"required"` // YYYY-MM-DD
	MetTarget bool   `json:"met_target"`
}
