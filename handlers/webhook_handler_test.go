package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signClerkPayload(t *testing.T, secret, id, timestamp string, body []byte) string {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	assert.NoError(t, err)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(fmt.Sprintf("%s.%s.%s", id, timestamp, string(body))))
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyClerkSignatureValid(t *testing.T) {
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("test-signing-key"))
	t.Setenv("CLERK_WEBHOOK_SECRET", secret)

	body := []byte(`{"type":"user.created","data":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", nil)
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", "1724670000")
	req.Header.Set("svix-signature", signClerkPayload(t, secret, "msg_1", "1724670000", body))

	assert.True(t, verifyClerkSignature(req, body))
}

func TestVerifyClerkSignatureTampered(t *testing.T) {
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("test-signing-key"))
	t.Setenv("CLERK_WEBHOOK_SECRET", secret)

	body := []byte(`{"type":"user.created","data":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", nil)
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", "1724670000")
	req.Header.Set("svix-signature", signClerkPayload(t, secret, "msg_1", "1724670000", body))

	assert.False(t, verifyClerkSignature(req, []byte(`{"type":"user.deleted"}`)))
}

func TestVerifyClerkSignatureMissingHeaders(t *testing.T) {
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("test-signing-key"))
	t.Setenv("CLERK_WEBHOOK_SECRET", secret)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", nil)
	assert.False(t, verifyClerkSignature(req, []byte(`{}`)))
}

func TestVerifyClerkSignatureMultipleSignatures(t *testing.T) {
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("test-signing-key"))
	t.Setenv("CLERK_WEBHOOK_SECRET", secret)

	body := []byte(`{"type":"user.updated","data":{}}`)
	good := signClerkPayload(t, secret, "msg_2", "1724670001", body)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", nil)
	req.Header.Set("svix-id", "msg_2")
	req.Header.Set("svix-timestamp", "1724670001")
	req.Header.Set("svix-signature", "v1,bm90LXRoZS1zaWduYXR1cmU= "+good)

	assert.True(t, verifyClerkSignature(req, body))
}
