package services

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"strideClubAPI/internal/coach"
)

func strPtr(s string) *string { return &s }

func TestBuildPartsTextOnly(t *testing.T) {
	parts, err := buildParts(&coach.ChatRequest{Message: "How do I pace a 10k?"})

	assert.NoError(t, err)
	assert.Len(t, parts, 1)
	assert.Equal(t, "How do I pace a 10k?", parts[0].Text)
}

func TestBuildPartsImageOnly(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("fake-png-bytes"))

	parts, err := buildParts(&coach.ChatRequest{
		ImageBase64:   strPtr(img),
		ImageMimeType: strPtr("image/png"),
	})

	assert.NoError(t, err)
	assert.Len(t, parts, 1)
	assert.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/png", parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte("fake-png-bytes"), parts[0].InlineData.Data)
}

func TestBuildPartsTextAndImage(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("route-screenshot"))

	parts, err := buildParts(&coach.ChatRequest{
		Message:     "Is this route too hilly?",
		ImageBase64: strPtr(img),
	})

	assert.NoError(t, err)
	assert.Len(t, parts, 2)
	assert.Equal(t, "Is this route too hilly?", parts[0].Text)
	// MIME type defaults when the client omits it.
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
}

func TestBuildPartsEmptyRequest(t *testing.T) {
	_, err := buildParts(&coach.ChatRequest{Message: "   "})
	assert.Error(t, err)

	_, err = buildParts(&coach.ChatRequest{})
	assert.Error(t, err)
}

func TestBuildPartsBadImageEncoding(t *testing.T) {
	_, err := buildParts(&coach.ChatRequest{ImageBase64: strPtr("%%% not base64 %%%")})
	assert.Error(t, err)
}

func TestRoleForTurn(t *testing.T) {
	assert.Equal(t, genai.Role(genai.RoleModel), roleForTurn("assistant"))
	assert.Equal(t, genai.Role(genai.RoleUser), roleForTurn("user"))
	assert.Equal(t, genai.Role(genai.RoleUser), roleForTurn(""))
}

func TestTrimHistoryKeepsRecentTurns(t *testing.T) {
	var history []coach.Turn
	for i := 0; i < 25; i++ {
		history = append(history, coach.Turn{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}

	trimmed := trimHistory(history)

	assert.Len(t, trimmed, coachHistoryLimit)
	assert.Equal(t, "turn 24", trimmed[len(trimmed)-1].Content)
	assert.Equal(t, "turn 15", trimmed[0].Content)

	short := []coach.Turn{{Role: "user", Content: "only"}}
	assert.Equal(t, short, trimHistory(short))
}
