package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fardannozami/crimewatch/internal/app/usecase"
	"github.com/fardannozami/crimewatch/internal/domain"
)

// =============================================================================
// LEADERBOARD / REPUTATION / DASHBOARD TESTS
// =============================================================================

func TestLeaderboard_RendersMarkersInServerOrder(t *testing.T) {
	rep := &mockReputation{ranked: ranked("Asha", "Vikram", "Meera", "Dev")}
	uc := usecase.NewGetLeaderboardUsecase(rep)

	msg, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	lines := []string{
		"🥇 Asha (Guardian) - 400 points",
		"🥈 Vikram (Guardian) - 300 points",
		"🥉 Meera (Guardian) - 200 points",
		"#4 Dev (Guardian) - 100 points",
	}
	last := -1
	for _, l := range lines {
		idx := strings.Index(msg, l)
		if idx < 0 {
			t.Fatalf("Expected %q in %q", l, msg)
		}
		if idx < last {
			t.Errorf("Expected %q after previous entry", l)
		}
		last = idx
	}
}

func TestLeaderboard_Empty(t *testing.T) {
	uc := usecase.NewGetLeaderboardUsecase(&mockReputation{})

	msg, _ := uc.Execute(context.Background())
	if !strings.Contains(msg, "No contributors yet") {
		t.Errorf("Expected empty message, got %q", msg)
	}
}

func TestLeaderboard_Error(t *testing.T) {
	uc := usecase.NewGetLeaderboardUsecase(&mockReputation{boardErr: domain.NewError(domain.KindLoad, "", nil)})

	if _, err := uc.Execute(context.Background()); !errors.Is(err, domain.ErrLoad) {
		t.Errorf("Expected load error, got %v", err)
	}
}

func TestReputation_DefaultsToOwnIdentity(t *testing.T) {
	rep := &mockReputation{snap: domain.DefaultSnapshot("u1")}
	ident := &mockIdentity{id: &domain.Identity{ID: "u1", Email: "bot@example.com", Role: "user"}}
	uc := usecase.NewGetReputationUsecase(rep, ident)

	msg, err := uc.Execute(context.Background(), "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rep.asked) != 1 || rep.asked[0] != "u1" {
		t.Errorf("Expected snapshot for u1, asked %v", rep.asked)
	}
	if !strings.Contains(msg, "Level: Newcomer") || !strings.Contains(msg, "Score: 0") || !strings.Contains(msg, "Badges: none yet") {
		t.Errorf("Unexpected default rendering: %q", msg)
	}
}

func TestReputation_ExplicitUserWithBadges(t *testing.T) {
	rep := &mockReputation{snap: domain.ReputationSnapshot{
		UserID: "u9", Score: 520, Level: domain.LevelHero,
		Badges: []domain.Badge{{Name: "First Report"}, {Name: "Trusted"}},
	}}
	uc := usecase.NewGetReputationUsecase(rep, &mockIdentity{})

	msg, _ := uc.Execute(context.Background(), "u9")
	if !strings.Contains(msg, "Badges: First Report, Trusted") || !strings.Contains(msg, "Level: Hero") {
		t.Errorf("Unexpected rendering: %q", msg)
	}
}

func TestReputation_NoIdentityNoArgs(t *testing.T) {
	rep := &mockReputation{}
	uc := usecase.NewGetReputationUsecase(rep, &mockIdentity{})

	msg, _ := uc.Execute(context.Background(), "")
	if !strings.HasPrefix(msg, "Usage: #reputation") {
		t.Errorf("Expected usage, got %q", msg)
	}
	if len(rep.asked) != 0 {
		t.Errorf("Expected no lookup, got %v", rep.asked)
	}
}

func TestDashboard_StatsAndTopThree(t *testing.T) {
	stats := &mockStats{stats: &domain.Stats{TotalReports: 1247, ActiveAlerts: 23, CommunityMembers: 5632, PredictionsMade: 892}}
	rep := &mockReputation{ranked: ranked("Asha", "Vikram", "Meera", "Dev")}
	uc := usecase.NewGetDashboardUsecase(stats, rep)

	msg, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, want := range []string{"Total reports: 1247", "Active alerts: 23", "Community members: 5632", "Predictions made: 892", "🥉 Meera"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in %q", want, msg)
		}
	}
	if strings.Contains(msg, "Dev") {
		t.Errorf("Only the top three should be listed: %q", msg)
	}
}

func TestDashboard_LeaderboardFailureIsTolerated(t *testing.T) {
	stats := &mockStats{stats: &domain.Stats{TotalReports: 5}}
	rep := &mockReputation{boardErr: errors.New("boom")}
	uc := usecase.NewGetDashboardUsecase(stats, rep)

	msg, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.Contains(msg, "Top contributors") {
		t.Errorf("Expected no leaderboard section: %q", msg)
	}
}

func TestDashboard_StatsFailure(t *testing.T) {
	want := domain.NewError(domain.KindConnectivity, "", nil)
	uc := usecase.NewGetDashboardUsecase(&mockStats{err: want}, &mockReputation{})

	if _, err := uc.Execute(context.Background()); !errors.Is(err, domain.ErrConnectivity) {
		t.Errorf("Expected connectivity error, got %v", err)
	}
}
