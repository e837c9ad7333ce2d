package feed

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventActivity EventType = "activity"
	EventBadge    EventType = "badge"
	EventPB       EventType = "pb"
	EventStreak   EventType = "streak"
)

// Item is an append-only log entry. Rows are never mutated after
// insertion; cheer counts come from a join, not an update.
type Item struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	Username     string          `json:"username"`
	UserImageURL string          `json:"user_image_url"`
	EventType    EventType       `json:"event_type" db:"event_type"`
	Payload      json.RawMessage `json:"payload" db:"payload"`
	CheerCount   int             `json:"cheer_count"`
	CheeredByMe  bool            `json:"cheered_by_me"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

type CheerRequest struct {
	FeedItemID string `json:"feed_item_id" validate:"required"`
}
