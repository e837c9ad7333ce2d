package personalbest

import (
	"time"

	"github.com/google/uuid"
)

type RecordType string

const (
	RecordLongestActivity RecordType = "longest_activity"
	RecordBestWeek        RecordType = "best_week"
)

// PersonalBest holds the current best value for one record type.
// It is overwritten only when a strictly greater value is observed.
type PersonalBest struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	RecordType  RecordType `json:"record_type" db:"record_type"`
	Value       float64    `json:"value" db:"value"`
	ActivityID  *uuid.UUID `json:"activity_id" db:"activity_id"`
	AchievedAt  time.Time  `json:"achieved_at" db:"achieved_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
