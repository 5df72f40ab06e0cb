package usecase

import (
	"context"

	"github.com/fardannozami/crimewatch/internal/app/reputation"
	"github.com/fardannozami/crimewatch/internal/app/route"
	"github.com/fardannozami/crimewatch/internal/domain"
)

type ReportRegistry interface {
	Load(ctx context.Context) error
	Submit(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error)
	Vote(ctx context.Context, reportID string, vote domain.VoteType) (string, error)
	Filter(location string) []domain.Report
}

type ReputationReader interface {
	Snapshot(ctx context.Context, userID string) (domain.ReputationSnapshot, error)
	Leaderboard(ctx context.Context) ([]reputation.RankedEntry, error)
}

type IdentityReader interface {
	Identity() (domain.Identity, bool)
}

type PredictionService interface {
	Create(ctx context.Context, req domain.PredictionRequest) (*domain.Prediction, error)
	Mine(ctx context.Context) ([]domain.Prediction, error)
}

type UserDirectory interface {
	Users(ctx context.Context) ([]domain.Member, error)
}

// Navigator tracks one sender's position among the command views.
type Navigator interface {
	Navigate(view route.View) route.Decision
	Resume() (route.Decision, bool)
	Close()
}

// NavigatorFactory builds the navigator for a sender seen for the first time.
type NavigatorFactory func(senderID string) Navigator

// Chat commands double as views for route gating.
const (
	ViewLogin       route.View = "login"
	ViewHelp        route.View = "#help"
	ViewSubmit      route.View = "#lapor"
	ViewReports     route.View = "#reports"
	ViewVote        route.View = "#vote"
	ViewLeaderboard route.View = "#leaderboard"
	ViewReputation  route.View = "#reputation"
	ViewStats       route.View = "#stats"
	ViewWhoAmI      route.View = "#whoami"
	ViewPredict     route.View = "#predict"
	ViewMyPredicts  route.View = "#mypredictions"
	ViewUsers       route.View = "#users"
)

// ProtectedViews need a logged-in session.
var ProtectedViews = []route.View{ViewSubmit, ViewVote, ViewWhoAmI, ViewPredict, ViewMyPredicts, ViewUsers}
