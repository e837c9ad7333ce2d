package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(hourly, daily int) (*Limiter, *time.Time) {
	l := New(hourly, daily)
	now := time.Date(2026, time.August, 26, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowUnderCap(t *testing.T) {
	l, _ := newTestLimiter(3, 10)

	assert.True(t, l.Allow("user-a"))
	assert.True(t, l.Allow("user-a"))
	assert.True(t, l.Allow("user-a"))
	assert.False(t, l.Allow("user-a"))
}

func TestKeysIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, 10)

	assert.True(t, l.Allow("user-a"))
	assert.False(t, l.Allow("user-a"))
	assert.True(t, l.Allow("user-b"))
}

func TestHourlyWindowResets(t *testing.T) {
	l, now := newTestLimiter(2, 100)

	assert.True(t, l.Allow("u"))
	assert.True(t, l.Allow("u"))
	assert.False(t, l.Allow("u"))

	*now = now.Add(59 * time.Minute)
	assert.False(t, l.Allow("u"))

	*now = now.Add(2 * time.Minute)
	assert.True(t, l.Allow("u"))
}

func TestDailyCapOutlastsHourlyResets(t *testing.T) {
	l, now := newTestLimiter(2, 3)

	assert.True(t, l.Allow("u"))
	assert.True(t, l.Allow("u"))

	*now = now.Add(time.Hour)
	assert.True(t, l.Allow("u"))
	// Hourly window is fresh but the daily cap is spent.
	assert.False(t, l.Allow("u"))

	*now = now.Add(24 * time.Hour)
	assert.True(t, l.Allow("u"))
}

func TestRejectedRequestsNotCounted(t *testing.T) {
	l, now := newTestLimiter(1, 100)

	assert.True(t, l.Allow("u"))
	for i := 0; i < 50; i++ {
		assert.False(t, l.Allow("u"))
	}

	// Only the accepted request counted, so one slot opens after the
	// hour rolls over.
	*now = now.Add(time.Hour)
	assert.True(t, l.Allow("u"))
}
