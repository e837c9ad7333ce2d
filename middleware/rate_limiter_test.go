package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvFallbacks(t *testing.T) {
	t.Setenv("RATE_TEST_FLOAT", "")
	assert.Equal(t, 5.0, parseEnvFloat("RATE_TEST_FLOAT", 5.0))

	t.Setenv("RATE_TEST_FLOAT", "not-a-number")
	assert.Equal(t, 5.0, parseEnvFloat("RATE_TEST_FLOAT", 5.0))

	t.Setenv("RATE_TEST_FLOAT", "2.5")
	assert.Equal(t, 2.5, parseEnvFloat("RATE_TEST_FLOAT", 5.0))

	t.Setenv("RATE_TEST_INT", "-3")
	assert.Equal(t, 30, parseEnvInt("RATE_TEST_INT", 30))

	t.Setenv("RATE_TEST_INT", "12")
	assert.Equal(t, 12, parseEnvInt("RATE_TEST_INT", 30))

	t.Setenv("RATE_TEST_DUR", "90s")
	assert.Equal(t, 90*time.Second, parseEnvDuration("RATE_TEST_DUR", time.Minute))

	t.Setenv("RATE_TEST_DUR", "junk")
	assert.Equal(t, time.Minute, parseEnvDuration("RATE_TEST_DUR", time.Minute))
}

func TestClientKeyPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:4455"
	assert.Equal(t, "10.0.0.9", clientKey(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientKey(req))
}

func TestRateLimitMiddlewareCapsBurst(t *testing.T) {
	// Near-zero refill so the burst alone decides the outcome.
	t.Setenv("HTTP_RATE_RPS", "0.001")
	t.Setenv("HTTP_RATE_BURST", "2")

	h := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1:1111"))
	assert.Equal(t, http.StatusOK, send("198.51.100.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1:1111"))

	// A different client gets its own bucket.
	assert.Equal(t, http.StatusOK, send("198.51.100.2:2222"))
}
