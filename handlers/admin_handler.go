package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"strideClubAPI/internal/weekly"
	"strideClubAPI/middleware"
	"strideClubAPI/services"
)

type AdminHandler struct {
	statsService *services.StatsService
}

func NewAdminHandler(statsService *services.StatsService) *AdminHandler {
	return &AdminHandler{statsService: statsService}
}

// OverrideWeeklyResult lets an admin force met_target for a member's
// week. The override sticks: later recomputes refresh the total but
// leave the flag alone.
func (h *AdminHandler) OverrideWeeklyResult(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req weekly.OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.statsService.OverrideWeeklyResult(ctx, clerkID, &req)
	if err != nil {
		log.Printf("OverrideWeeklyResult: %v", err)
		switch {
		case strings.Contains(err.Error(), "admin"):
			respondWithError(w, http.StatusForbidden, "Admin access required")
		case strings.Contains(err.Error(), "invalid"):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to override weekly result")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
