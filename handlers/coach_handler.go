package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"strideClubAPI/internal/coach"
	"strideClubAPI/middleware"
	"strideClubAPI/services"
)

type CoachHandler struct {
	coachService *services.CoachService
}

func NewCoachHandler(coachService *services.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

// Chat proxies one message to the model. Model calls are slow, so this
// handler gets a longer timeout than the database-bound ones.
func (h *CoachHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req coach.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.coachService.Chat(ctx, clerkID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRateLimited):
			middleware.CountCoachRequest("rate_limited")
			respondWithError(w, http.StatusTooManyRequests, "Coach message limit reached, try again later")
		case errors.Is(err, services.ErrUpstreamLimited):
			middleware.CountCoachRequest("upstream_limited")
			respondWithError(w, http.StatusServiceUnavailable, "Coach is busy, try again in a minute")
		case errors.Is(err, services.ErrUpstreamUnavailable):
			middleware.CountCoachRequest("upstream_error")
			respondWithError(w, http.StatusBadGateway, "Coach is unavailable right now")
		default:
			middleware.CountCoachRequest("error")
			log.Printf("Chat: %v", err)
			respondWithError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	middleware.CountCoachRequest("ok")
	respondWithJSON(w, http.StatusOK, resp)
}
