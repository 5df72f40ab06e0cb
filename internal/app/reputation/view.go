package reputation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fardannozami/crimewatch/internal/domain"
	"github.com/fardannozami/crimewatch/internal/infra/api"
)

var medals = [...]string{"🥇", "🥈", "🥉"}

// RankMarker is the badge shown next to a leaderboard position (0-based).
func RankMarker(index int) string {
	if index >= 0 && index < len(medals) {
		return medals[index]
	}
	return fmt.Sprintf("#%d", index+1)
}

type RankedEntry struct {
	Rank   int
	Marker string
	Entry  domain.LeaderboardEntry
}

// View reads reputation data. It never computes scores; ordering is whatever
// the server sent.
type View struct {
	api domain.ReputationAPI
	log zerolog.Logger
}

func NewView(repAPI domain.ReputationAPI, logger zerolog.Logger) *View {
	return &View{api: repAPI, log: logger.With().Str("component", "reputation").Logger()}
}

// Snapshot returns the user's reputation, or the default snapshot when the
// server has none for them yet.
func (v *View) Snapshot(ctx context.Context, userID string) (domain.ReputationSnapshot, error) {
	snap, err := v.api.UserReputation(ctx, userID)
	if err != nil {
		if api.StatusCode(err) == http.StatusNotFound {
			return domain.DefaultSnapshot(userID), nil
		}
		return domain.ReputationSnapshot{}, api.AsDomain(err, domain.KindLoad, "Failed to load reputation")
	}
	if snap == nil {
		return domain.DefaultSnapshot(userID), nil
	}
	return normalize(*snap), nil
}

// Leaderboard ranks entries by their position in the server's response.
func (v *View) Leaderboard(ctx context.Context) ([]RankedEntry, error) {
	entries, err := v.api.Leaderboard(ctx)
	if err != nil {
		return nil, api.AsDomain(err, domain.KindLoad, "Failed to load leaderboard")
	}

	ranked := make([]RankedEntry, len(entries))
	for i, e := range entries {
		e.Reputation = normalize(e.Reputation)
		ranked[i] = RankedEntry{Rank: i + 1, Marker: RankMarker(i), Entry: e}
	}
	return ranked, nil
}

func normalize(s domain.ReputationSnapshot) domain.ReputationSnapshot {
	s.Level = s.Level.Normalize()
	if s.Badges == nil {
		s.Badges = []domain.Badge{}
	}
	return s
}
