package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyWebhookEchoesChallenge(t *testing.T) {
	t.Setenv("STRAVA_VERIFY_TOKEN", "expected-token")
	h := NewStravaHandler(nil)

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/strava?hub.mode=subscribe&hub.verify_token=expected-token&hub.challenge=abc123", nil)
	rec := httptest.NewRecorder()

	h.VerifyWebhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "abc123", body["hub.challenge"])
}

func TestVerifyWebhookRejectsBadToken(t *testing.T) {
	t.Setenv("STRAVA_VERIFY_TOKEN", "expected-token")
	h := NewStravaHandler(nil)

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/strava?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=abc123", nil)
	rec := httptest.NewRecorder()

	h.VerifyWebhook(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVerifyWebhookRejectsWrongMode(t *testing.T) {
	t.Setenv("STRAVA_VERIFY_TOKEN", "expected-token")
	h := NewStravaHandler(nil)

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/strava?hub.mode=unsubscribe&hub.verify_token=expected-token&hub.challenge=abc123", nil)
	rec := httptest.NewRecorder()

	h.VerifyWebhook(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
