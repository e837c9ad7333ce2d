package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"strideClubAPI/internal/strava"
	"strideClubAPI/middleware"
	"strideClubAPI/services"
)

type StravaHandler struct {
	stravaService *services.StravaService
}

func NewStravaHandler(stravaService *services.StravaService) *StravaHandler {
	return &StravaHandler{stravaService: stravaService}
}

// Connect returns the Strava consent URL. The Clerk user id rides in
// the OAuth state parameter because Strava's browser redirect back to
// the callback cannot carry our Authorization header.
func (h *StravaHandler) Connect(w http.ResponseWriter, r *http.Request) {
	clerkID, ok := middleware.GetClerkID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"url": h.stravaService.AuthorizeURL(clerkID),
	})
}

func (h *StravaHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		respondWithError(w, http.StatusBadRequest, "Missing code or state")
		return
	}

	conn, err := h.stravaService.HandleCallback(ctx, state, code)
	if err != nil {
		log.Printf("Callback: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to connect Strava")
		return
	}

	respondWithJSON(w, http.StatusOK, conn)
}

func (h *StravaHandler) GetConnection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	conn, err := h.stravaService.GetConnection(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "No Strava connection")
		return
	}

	respondWithJSON(w, http.StatusOK, conn)
}

func (h *StravaHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.stravaService.DeleteConnection(ctx, clerkID); err != nil {
		log.Printf("Disconnect: %v", err)
		respondWithError(w, http.StatusNotFound, "No Strava connection")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

// VerifyWebhook answers Strava's subscription handshake: it echoes
// hub.challenge back when hub.verify_token matches ours.
func (h *StravaHandler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || token != os.Getenv("STRAVA_VERIFY_TOKEN") {
		respondWithError(w, http.StatusForbidden, "Verification failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"hub.challenge": challenge})
}

// HandleWebhook ingests Strava push events. Strava retries anything
// that is not a 200, so processing failures are logged and swallowed;
// the dedupe on import keeps retries harmless.
func (h *StravaHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
	defer cancel()

	var event strava.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Printf("HandleWebhook: bad payload: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.stravaService.ProcessWebhookEvent(ctx, &event); err != nil {
		log.Printf("HandleWebhook: processing failed: %v", err)
	}

	w.WriteHeader(http.StatusOK)
}
