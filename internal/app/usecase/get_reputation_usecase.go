package usecase

import (
	"context"
	"fmt"
	"strings"
)

type GetReputationUsecase struct {
	reputation ReputationReader
	identity   IdentityReader
}

func NewGetReputationUsecase(reputation ReputationReader, identity IdentityReader) *GetReputationUsecase {
	return &GetReputationUsecase{reputation: reputation, identity: identity}
}

// Execute shows userID's reputation, or the logged-in user's when userID is empty.
func (uc *GetReputationUsecase) Execute(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		id, ok := uc.identity.Identity()
		if !ok {
			return "Usage: #reputation <user id>", nil
		}
		userID = id.ID
	}

	snap, err := uc.reputation.Snapshot(ctx, userID)
	if err != nil {
		return "", err
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("⭐ Reputation of %s\n", userID))
	sb.WriteString(fmt.Sprintf("Level: %s\nScore: %d\n", snap.Level, snap.Score))
	sb.WriteString(fmt.Sprintf("Reports submitted: %d\nHelpful votes: %d\n", snap.Stats.ReportsSubmitted, snap.Stats.HelpfulVotes))
	if len(snap.Badges) > 0 {
		names := make([]string, len(snap.Badges))
		for i, b := range snap.Badges {
			names[i] = b.Name
		}
		sb.WriteString("Badges: " + strings.Join(names, ", "))
	} else {
		sb.WriteString("Badges: none yet")
	}
	return sb.String(), nil
}
