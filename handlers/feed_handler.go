package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"strideClubAPI/middleware"
	"strideClubAPI/services"
)

type FeedHandler struct {
	feedService *services.FeedService
}

func NewFeedHandler(feedService *services.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
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

	items, err := h.feedService.GetFeed(ctx, clerkID, limit)
	if err != nil {
		log.Printf("GetFeed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get feed")
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

func (h *FeedHandler) Cheer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	feedItemID := mux.Vars(r)["id"]

	if err := h.feedService.Cheer(ctx, clerkID, feedItemID); err != nil {
		log.Printf("Cheer: %v", err)
		switch {
		case strings.Contains(err.Error(), "own post"):
			respondWithError(w, http.StatusForbidden, err.Error())
		case strings.Contains(err.Error(), "not found"):
			respondWithError(w, http.StatusNotFound, err.Error())
		case strings.Contains(err.Error(), "invalid"):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to add cheer")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "cheered"})
}

func (h *FeedHandler) Uncheer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	feedItemID := mux.Vars(r)["id"]

	if err := h.feedService.Uncheer(ctx, clerkID, feedItemID); err != nil {
		log.Printf("Uncheer: %v", err)
		if strings.Contains(err.Error(), "not found") {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to remove cheer")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "uncheered"})
}
