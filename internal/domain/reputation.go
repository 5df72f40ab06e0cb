package domain

import (
	"context"
	"encoding/json"
)

type Level string

const (
	LevelHero        Level = "Hero"
	LevelProtector   Level = "Protector"
	LevelGuardian    Level = "Guardian"
	LevelContributor Level = "Contributor"
	LevelNewcomer    Level = "Newcomer"
)

// Normalize maps anything outside the four named tiers to LevelNewcomer.
func (l Level) Normalize() Level {
	switch l {
	case LevelHero, LevelProtector, LevelGuardian, LevelContributor:
		return l
	}
	return LevelNewcomer
}

type Badge struct {
	Name string `json:"name"`
}

type ReputationStats struct {
	ReportsSubmitted int `json:"reportsSubmitted"`
	HelpfulVotes     int `json:"helpfulVotes"`
}

type ReputationSnapshot struct {
	UserID string          `json:"userId"`
	Score  int             `json:"score"`
	Level  Level           `json:"level"`
	Badges []Badge         `json:"badges"`
	Stats  ReputationStats `json:"stats"`
}

// DefaultSnapshot is shown for users the server has no reputation for yet.
func DefaultSnapshot(userID string) ReputationSnapshot {
	return ReputationSnapshot{
		UserID: userID,
		Level:  LevelNewcomer,
		Badges: []Badge{},
	}
}

type LeaderboardEntry struct {
	UserID     string             `json:"userId"`
	Name       string             `json:"name"`
	Reputation ReputationSnapshot `json:"reputation"`
}

func (e *LeaderboardEntry) UnmarshalJSON(data []byte) error {
	var w struct {
		MongoID    string             `json:"_id"`
		UserID     string             `json:"userId"`
		Name       string             `json:"name"`
		Reputation ReputationSnapshot `json:"reputation"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.UserID = w.UserID
	if e.UserID == "" {
		e.UserID = w.MongoID
	}
	e.Name = w.Name
	e.Reputation = w.Reputation
	if e.Reputation.UserID == "" {
		e.Reputation.UserID = e.UserID
	}
	return nil
}

type Stats struct {
	TotalReports     int `json:"totalReports"`
	ActiveAlerts     int `json:"activeAlerts"`
	CommunityMembers int `json:"communityMembers"`
	PredictionsMade  int `json:"predictionsMade"`
}

type ReputationAPI interface {
	UserReputation(ctx context.Context, userID string) (*ReputationSnapshot, error)
	Leaderboard(ctx context.Context) ([]LeaderboardEntry, error)
}

type StatsAPI interface {
	Stats(ctx context.Context) (*Stats, error)
}
