package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"strideClubAPI/internal/activity"
	"strideClubAPI/middleware"
	"strideClubAPI/services"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func activityErrorStatus(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "not allowed"):
		return http.StatusForbidden
	case strings.Contains(msg, "must be") || strings.Contains(msg, "invalid"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *ActivityHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req activity.CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	act, err := h.activityService.CreateActivity(ctx, clerkID, &req)
	if err != nil {
		log.Printf("CreateActivity: %v", err)
		respondWithError(w, activityErrorStatus(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, act)
}

func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	activities, err := h.activityService.ListActivities(ctx, clerkID, limit)
	if err != nil {
		log.Printf("ListActivities: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get activities")
		return
	}

	respondWithJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	activityID := mux.Vars(r)["id"]

	var req activity.UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	act, err := h.activityService.UpdateActivity(ctx, clerkID, activityID, &req)
	if err != nil {
		log.Printf("UpdateActivity: %v", err)
		respondWithError(w, activityErrorStatus(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, act)
}

func (h *ActivityHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	activityID := mux.Vars(r)["id"]

	if err := h.activityService.DeleteActivity(ctx, clerkID, activityID); err != nil {
		log.Printf("DeleteActivity: %v", err)
		respondWithError(w, activityErrorStatus(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ActivityHandler) GetPersonalBests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	bests, err := h.activityService.GetPersonalBests(ctx, clerkID)
	if err != nil {
		log.Printf("GetPersonalBests: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get personal bests")
		return
	}

	respondWithJSON(w, http.StatusOK, bests)
}
