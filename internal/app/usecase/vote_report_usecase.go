package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fardannozami/crimewatch/internal/domain"
)

const voteUsage = "Usage: #vote <report id> helpful|unhelpful"

type VoteReportUsecase struct {
	registry ReportRegistry
}

func NewVoteReportUsecase(registry ReportRegistry) *VoteReportUsecase {
	return &VoteReportUsecase{registry: registry}
}

func (uc *VoteReportUsecase) Execute(ctx context.Context, args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return voteUsage, nil
	}
	id, vote := fields[0], domain.VoteType(strings.ToLower(fields[1]))
	if !vote.Valid() {
		return voteUsage, nil
	}

	msg, err := uc.registry.Vote(ctx, id, vote)
	if err != nil {
		if k, _ := domain.KindOf(err); k == domain.KindLoad {
			// the vote itself went through
			return "Vote recorded, but the report list could not be refreshed.", nil
		}
		return "", err
	}
	if msg == "" {
		msg = "Vote recorded"
	}
	return fmt.Sprintf("%s 👍", msg), nil
}
