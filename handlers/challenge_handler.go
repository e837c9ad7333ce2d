package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"strideClubAPI/middleware"
	"strideClubAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

func (h *ChallengeHandler) GetActiveChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	ch, err := h.challengeService.ActiveChallenge(ctx)
	if err != nil {
		log.Printf("GetActiveChallenge: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}

func (h *ChallengeHandler) GenerateInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	invite, err := h.challengeService.GenerateInvite(ctx, clerkID)
	if err != nil {
		log.Printf("GenerateInvite: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to generate invite")
		return
	}

	respondWithJSON(w, http.StatusOK, invite)
}
