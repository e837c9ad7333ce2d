package challenge

import (
	"time"

	"github.com/google/uuid"
)

type Challenge struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	StartDate      time.Time `json:"start_date" db:"start_date"`
	WeekStartDay   int       `json:"week_start_day" db:"week_start_day"` // 0 = Sunday
	WeeklyTargetKm float64   `json:"weekly_target_km" db:"weekly_target_km"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type InviteResponse struct {
	InviteCode   string    `json:"invite_code"`
	ShareLink    string    `json:"share_link"`
	QrCodeBase64 string    `json:"qr_code_base64"`
	ExpiresAt    time.Time `json:"expires_at"`
}
