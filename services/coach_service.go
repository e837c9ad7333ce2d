package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"strideClubAPI/internal/coach"
	"strideClubAPI/internal/ratelimit"
)

var (
	// ErrRateLimited means the caller used up their own chat quota.
	ErrRateLimited = errors.New("coach quota exceeded")
	// ErrUpstreamLimited means the model provider throttled us.
	ErrUpstreamLimited = errors.New("coach upstream rate limited")
	// ErrUpstreamUnavailable covers every other provider failure.
	ErrUpstreamUnavailable = errors.New("coach upstream unavailable")
)

const coachHistoryLimit = 10

type CoachService struct {
	client     *genai.Client
	model      string
	limiter    *ratelimit.Limiter
	stats      *StatsService
	challenges *ChallengeService
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func NewCoachService(ctx context.Context, statsService *StatsService, challenges *ChallengeService) (*CoachService, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := os.Getenv("COACH_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}

	limiter := ratelimit.New(
		envInt("COACH_HOURLY_LIMIT", 10),
		envInt("COACH_DAILY_LIMIT", 40),
	)
	go limiter.Cleanup()

	return &CoachService{
		client:     client,
		model:      model,
		limiter:    limiter,
		stats:      statsService,
		challenges: challenges,
	}, nil
}

// Chat answers one coaching message. The caller's recent transcript
// and an optional image ride along in the request; the user's current
// challenge stats are folded into the system prompt so the model can
// ground its advice.
func (s *CoachService) Chat(ctx context.Context, clerkID string, req *coach.ChatRequest) (*coach.ChatResponse, error) {
	parts, err := buildParts(req)
	if err != nil {
		return nil, err
	}

	if !s.limiter.Allow(clerkID) {
		return nil, ErrRateLimited
	}

	userID, err := userIDByClerkID(ctx, s.stats.db, clerkID)
	if err != nil {
		return nil, err
	}

	ch, err := s.challenges.ActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := s.stats.BuildSnapshot(ctx, userID, ch)
	if err != nil {
		return nil, err
	}

	system := fmt.Sprintf(`You are Stride, a friendly running coach for a team fitness challenge.
Keep replies short and practical, two to four sentences.
Only discuss training, recovery, motivation, and the challenge itself.

The athlete's current numbers:
- this week: %.1f km of a %.1f km target (met: %t)
- current streak: %d weeks
- weeks completed: %d
- lifetime: %d activities, %.1f km`,
		snap.WeekDistanceKm, ch.WeeklyTargetKm, snap.WeekTargetMet,
		snap.CurrentStreak, snap.WeeksCompleted,
		snap.TotalActivities, snap.TotalDistanceKm,
	)

	history := trimHistory(req.History)

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, genai.NewContentFromText(turn.Content, roleForTurn(turn.Role)))
	}
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(float32(0.7)),
		MaxOutputTokens:   1024,
	})
	if err != nil {
		return nil, mapUpstreamError(err)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return nil, ErrUpstreamUnavailable
	}

	return &coach.ChatResponse{Reply: reply}, nil
}

// buildParts turns the request into model input. Either the text or
// the image alone is a valid message; an empty request is not.
func buildParts(req *coach.ChatRequest) ([]*genai.Part, error) {
	var parts []*genai.Part

	if msg := strings.TrimSpace(req.Message); msg != "" {
		parts = append(parts, genai.NewPartFromText(msg))
	}

	if req.ImageBase64 != nil && *req.ImageBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(*req.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("invalid image encoding")
		}
		mime := "image/jpeg"
		if req.ImageMimeType != nil && *req.ImageMimeType != "" {
			mime = *req.ImageMimeType
		}
		parts = append(parts, genai.NewPartFromBytes(raw, mime))
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("message or image is required")
	}

	return parts, nil
}

func trimHistory(history []coach.Turn) []coach.Turn {
	if len(history) > coachHistoryLimit {
		return history[len(history)-coachHistoryLimit:]
	}
	return history
}

func roleForTurn(role string) genai.Role {
	if role == "assistant" {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func mapUpstreamError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		log.Printf("Chat: upstream rate limited: %v", err)
		return ErrUpstreamLimited
	}
	log.Printf("Chat: upstream failure: %v", err)
	return ErrUpstreamUnavailable
}
