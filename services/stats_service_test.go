package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"strideClubAPI/internal/leaderboard"
)

func TestPagePositionFindsRequester(t *testing.T) {
	target := uuid.New()
	entries := []*leaderboard.LeaderboardEntry{
		{UserID: uuid.New(), Username: "ana", Rank: 1},
		{UserID: target, Username: "ben", Rank: 2},
		{UserID: uuid.New(), Username: "cal", Rank: 3},
	}

	got := pagePosition(entries, target)
	assert.NotNil(t, got)
	assert.Equal(t, "ben", got.Username)
	assert.Equal(t, 2, got.Rank)
}

func TestPagePositionMissFallsThrough(t *testing.T) {
	// A full page without the requester must report a miss so the
	// service fetches their rank separately instead of returning nil.
	var entries []*leaderboard.LeaderboardEntry
	for i := 0; i < 50; i++ {
		entries = append(entries, &leaderboard.LeaderboardEntry{
			UserID:   uuid.New(),
			Username: fmt.Sprintf("runner%d", i),
			Rank:     i + 1,
		})
	}

	assert.Nil(t, pagePosition(entries, uuid.New()))
	assert.Nil(t, pagePosition(nil, uuid.New()))
}
