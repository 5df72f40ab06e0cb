package usecase

import (
	"context"
	"fmt"
	"strings"
)

type GetLeaderboardUsecase struct {
	reputation ReputationReader
}

func NewGetLeaderboardUsecase(reputation ReputationReader) *GetLeaderboardUsecase {
	return &GetLeaderboardUsecase{reputation: reputation}
}

func (uc *GetLeaderboardUsecase) Execute(ctx context.Context) (string, error) {
	ranked, err := uc.reputation.Leaderboard(ctx)
	if err != nil {
		return "", err
	}

	sb := strings.Builder{}
	sb.WriteString("🏆 Community Leaderboard\n")
	if len(ranked) == 0 {
		sb.WriteString("\nNo contributors yet. Be the first: #lapor")
		return sb.String(), nil
	}

	sb.WriteString("\n")
	for _, r := range ranked {
		rep := r.Entry.Reputation
		sb.WriteString(fmt.Sprintf("%s %s (%s) - %d points · 📋 %d · 👍 %d\n",
			r.Marker, r.Entry.Name, rep.Level, rep.Score, rep.Stats.ReportsSubmitted, rep.Stats.HelpfulVotes))
	}
	sb.WriteString("\nSubmit helpful reports to climb the board 💪")

	return sb.String(), nil
}
