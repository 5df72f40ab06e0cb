package usecase_test

import (
	"context"
	"strings"

	"github.com/fardannozami/crimewatch/internal/app/reputation"
	"github.com/fardannozami/crimewatch/internal/domain"
)

// mockRegistry implements usecase.ReportRegistry for testing
type mockRegistry struct {
	reports   []domain.Report
	loadErr   error
	submitErr error
	voteErr   error
	voteMsg   string

	loads     int
	submitted []domain.ReportDraft
	votes     []string
}

func (m *mockRegistry) Load(ctx context.Context) error {
	m.loads++
	return m.loadErr
}

func (m *mockRegistry) Submit(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error) {
	m.submitted = append(m.submitted, draft)
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	d := draft.Normalize()
	r := domain.Report{
		ID:         "r-new",
		Title:      d.Title,
		Location:   d.Location,
		CrimeType:  domain.CrimeType(d.CrimeType),
		Severity:   domain.Severity(d.Severity),
		AuthorName: "Bot",
	}
	m.reports = append([]domain.Report{r}, m.reports...)
	return &r, nil
}

func (m *mockRegistry) Vote(ctx context.Context, reportID string, vote domain.VoteType) (string, error) {
	m.votes = append(m.votes, reportID+":"+string(vote))
	return m.voteMsg, m.voteErr
}

func (m *mockRegistry) Filter(location string) []domain.Report {
	var out []domain.Report
	for i := range m.reports {
		if m.reports[i].MatchesLocation(location) {
			out = append(out, m.reports[i])
		}
	}
	return out
}

// mockReputation implements usecase.ReputationReader for testing
type mockReputation struct {
	snap     domain.ReputationSnapshot
	snapErr  error
	ranked   []reputation.RankedEntry
	boardErr error
	asked    []string
}

func (m *mockReputation) Snapshot(ctx context.Context, userID string) (domain.ReputationSnapshot, error) {
	m.asked = append(m.asked, userID)
	return m.snap, m.snapErr
}

func (m *mockReputation) Leaderboard(ctx context.Context) ([]reputation.RankedEntry, error) {
	return m.ranked, m.boardErr
}

type mockIdentity struct {
	id *domain.Identity
}

func (m *mockIdentity) Identity() (domain.Identity, bool) {
	if m.id == nil {
		return domain.Identity{}, false
	}
	return *m.id, true
}

type mockStats struct {
	stats *domain.Stats
	err   error
}

func (m *mockStats) Stats(ctx context.Context) (*domain.Stats, error) {
	return m.stats, m.err
}

func ranked(names ...string) []reputation.RankedEntry {
	out := make([]reputation.RankedEntry, len(names))
	for i, n := range names {
		out[i] = reputation.RankedEntry{
			Rank:   i + 1,
			Marker: reputation.RankMarker(i),
			Entry: domain.LeaderboardEntry{
				UserID: strings.ToLower(n),
				Name:   n,
				Reputation: domain.ReputationSnapshot{
					Score: (len(names) - i) * 100,
					Level: domain.LevelGuardian,
					Stats: domain.ReputationStats{ReportsSubmitted: 3, HelpfulVotes: 7},
				},
			},
		}
	}
	return out
}

type mockPredictions struct {
	created []domain.PredictionRequest
	mine    []domain.Prediction
	err     error
}

func (m *mockPredictions) Create(ctx context.Context, req domain.PredictionRequest) (*domain.Prediction, error) {
	m.created = append(m.created, req)
	if m.err != nil {
		return nil, m.err
	}
	n := req.Normalize()
	return &domain.Prediction{ID: "p1", Location: n.Location, CrimeType: n.CrimeType, RiskLevel: "high", Probability: 0.72}, nil
}

func (m *mockPredictions) Mine(ctx context.Context) ([]domain.Prediction, error) {
	return m.mine, m.err
}

type mockDirectory struct {
	users []domain.Member
	err   error
}

func (m *mockDirectory) Users(ctx context.Context) ([]domain.Member, error) {
	return m.users, m.err
}
