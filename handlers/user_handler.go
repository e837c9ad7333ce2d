package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"strideClubAPI/internal/user"
	"strideClubAPI/middleware"
	"strideClubAPI/services"
)

type UserHandler struct {
	userService  *services.UserService
	statsService *services.StatsService
	badgeService *services.BadgeService
}

func NewUserHandler(userService *services.UserService, statsService *services.StatsService, badgeService *services.BadgeService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		statsService: statsService,
		badgeService: badgeService,
	}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.userService.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.userService.UpdateProfileByClerkID(ctx, clerkID, &req)
	if err != nil {
		log.Printf("UpdateProfile: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.userService.DeleteUserByClerkID(ctx, clerkID); err != nil {
		log.Printf("DeleteAccount: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userStats, err := h.statsService.GetUserStats(ctx, clerkID)
	if err != nil {
		log.Printf("GetStats: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get stats")
		return
	}

	respondWithJSON(w, http.StatusOK, userStats)
}

func (h *UserHandler) GetBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	badges, err := h.badgeService.GetBadges(ctx, clerkID)
	if err != nil {
		log.Printf("GetBadges: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get badges")
		return
	}

	respondWithJSON(w, http.StatusOK, badges)
}

func (h *UserHandler) GetWeeklyResults(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	results, err := h.statsService.GetWeeklyResults(ctx, clerkID)
	if err != nil {
		log.Printf("GetWeeklyResults: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get weekly results")
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}

// GetLeaderboard serves both boards; ?type=weekly (default) or overall.
func (h *UserHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	boardType := r.URL.Query().Get("type")
	if boardType == "" {
		boardType = "weekly"
	}

	switch boardType {
	case "weekly":
		board, err := h.statsService.GetWeeklyLeaderboard(ctx, clerkID)
		if err != nil {
			log.Printf("GetLeaderboard weekly: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to get leaderboard")
			return
		}
		respondWithJSON(w, http.StatusOK, board)
	case "overall":
		board, err := h.statsService.GetOverallLeaderboard(ctx, clerkID)
		if err != nil {
			log.Printf("GetLeaderboard overall: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to get leaderboard")
			return
		}
		respondWithJSON(w, http.StatusOK, board)
	default:
		respondWithError(w, http.StatusBadRequest, "Leaderboard type must be 'weekly' or 'overall'")
	}
}
