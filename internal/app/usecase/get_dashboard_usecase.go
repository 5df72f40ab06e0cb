package usecase

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fardannozami/crimewatch/internal/app/reputation"
	"github.com/fardannozami/crimewatch/internal/domain"
)

const dashboardLeaders = 3

type GetDashboardUsecase struct {
	stats      domain.StatsAPI
	reputation ReputationReader
}

func NewGetDashboardUsecase(stats domain.StatsAPI, reputation ReputationReader) *GetDashboardUsecase {
	return &GetDashboardUsecase{stats: stats, reputation: reputation}
}

// Execute fetches the headline numbers and the top of the leaderboard in
// parallel. A leaderboard failure only drops that section.
func (uc *GetDashboardUsecase) Execute(ctx context.Context) (string, error) {
	var (
		stats  *domain.Stats
		leader []reputation.RankedEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := uc.stats.Stats(gctx)
		if err != nil {
			if _, ok := domain.KindOf(err); !ok {
				err = domain.NewError(domain.KindLoad, "Failed to load community stats", err)
			}
			return err
		}
		stats = s
		return nil
	})
	g.Go(func() error {
		ranked, err := uc.reputation.Leaderboard(gctx)
		if err == nil {
			leader = ranked
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}
	if stats == nil {
		stats = &domain.Stats{}
	}

	sb := strings.Builder{}
	sb.WriteString("📊 Community safety at a glance\n\n")
	sb.WriteString(fmt.Sprintf("Total reports: %d\n", stats.TotalReports))
	sb.WriteString(fmt.Sprintf("Active alerts: %d\n", stats.ActiveAlerts))
	sb.WriteString(fmt.Sprintf("Community members: %d\n", stats.CommunityMembers))
	sb.WriteString(fmt.Sprintf("Predictions made: %d\n", stats.PredictionsMade))

	if len(leader) > 0 {
		sb.WriteString("\nTop contributors:\n")
		for i, r := range leader {
			if i == dashboardLeaders {
				break
			}
			sb.WriteString(fmt.Sprintf("%s %s - %d points\n", r.Marker, r.Entry.Name, r.Entry.Reputation.Score))
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
