package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/fardannozami/crimewatch/internal/domain"
)

func (c *Client) Register(ctx context.Context, profile domain.SignupProfile) (map[string]any, error) {
	var out map[string]any
	if err := c.Request(ctx, http.MethodPost, "/auth/register", profile, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	var out domain.LoginResult
	if err := c.Request(ctx, http.MethodPost, "/auth/login", creds, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListReports(ctx context.Context) ([]domain.Report, error) {
	var out []domain.Report
	if err := c.Request(ctx, http.MethodGet, "/reports", nil, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateReport(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error) {
	var out domain.Report
	if err := c.Request(ctx, http.MethodPost, "/reports", draft, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Vote(ctx context.Context, reportID string, vote domain.VoteType) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	body := map[string]string{"voteType": string(vote)}
	if err := c.Request(ctx, http.MethodPost, "/reputation/vote/"+url.PathEscape(reportID), body, true, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// UserReputation returns nil without error when the server has no snapshot.
func (c *Client) UserReputation(ctx context.Context, userID string) (*domain.ReputationSnapshot, error) {
	var out struct {
		Reputation json.RawMessage `json:"reputation"`
	}
	if err := c.Request(ctx, http.MethodGet, "/reputation/user/"+url.PathEscape(userID), nil, false, &out); err != nil {
		return nil, err
	}
	if len(out.Reputation) == 0 || string(out.Reputation) == "null" {
		return nil, nil
	}
	var snap domain.ReputationSnapshot
	if err := json.Unmarshal(out.Reputation, &snap); err != nil {
		return nil, err
	}
	if snap.UserID == "" {
		snap.UserID = userID
	}
	return &snap, nil
}

func (c *Client) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var out []domain.LeaderboardEntry
	if err := c.Request(ctx, http.MethodGet, "/reputation/leaderboard", nil, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	var out domain.Stats
	if err := c.Request(ctx, http.MethodGet, "/stats", nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping hits the API's health route.
func (c *Client) Ping(ctx context.Context) error {
	return c.Request(ctx, http.MethodGet, "/test", nil, false, nil)
}

func (c *Client) CreatePrediction(ctx context.Context, req domain.PredictionRequest) (*domain.Prediction, error) {
	var out domain.Prediction
	if err := c.Request(ctx, http.MethodPost, "/predictions", req, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyPredictions(ctx context.Context) ([]domain.Prediction, error) {
	var out []domain.Prediction
	if err := c.Request(ctx, http.MethodGet, "/predictions/my-predictions", nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Users lists every account. The server only answers admins.
func (c *Client) Users(ctx context.Context) ([]domain.Member, error) {
	var out []domain.Member
	if err := c.Request(ctx, http.MethodGet, "/admin/users", nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}
