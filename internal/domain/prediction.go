package domain

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// PredictionRequest asks the server for a risk estimate at a location.
type PredictionRequest struct {
	Location  string `json:"location"`
	CrimeType string `json:"crimeType,omitempty"`
}

func (p PredictionRequest) Normalize() PredictionRequest {
	return PredictionRequest{
		Location:  strings.TrimSpace(p.Location),
		CrimeType: strings.ToLower(strings.TrimSpace(p.CrimeType)),
	}
}

func (p PredictionRequest) Validate() error {
	if p.Location == "" {
		return NewError(KindValidation, "location is required", nil)
	}
	if p.CrimeType != "" {
		if _, ok := ParseCrimeType(p.CrimeType); !ok {
			return NewError(KindValidation, "unknown crime type "+p.CrimeType, nil)
		}
	}
	return nil
}

type Prediction struct {
	ID          string    `json:"id"`
	Location    string    `json:"location"`
	CrimeType   string    `json:"crimeType,omitempty"`
	RiskLevel   string    `json:"riskLevel"`
	Probability float64   `json:"probability"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (p *Prediction) UnmarshalJSON(data []byte) error {
	var w struct {
		MongoID     string          `json:"_id"`
		ID          json.RawMessage `json:"id"`
		Location    string          `json:"location"`
		CrimeType   string          `json:"crimeType"`
		RiskLevel   string          `json:"riskLevel"`
		Risk        string          `json:"risk"`
		Probability float64         `json:"probability"`
		CreatedAt   time.Time       `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Prediction{
		ID:          w.MongoID,
		Location:    w.Location,
		CrimeType:   w.CrimeType,
		RiskLevel:   w.RiskLevel,
		Probability: w.Probability,
		CreatedAt:   w.CreatedAt,
	}
	if p.ID == "" {
		p.ID = rawID(w.ID)
	}
	if p.RiskLevel == "" {
		p.RiskLevel = w.Risk
	}
	return nil
}

type PredictionAPI interface {
	CreatePrediction(ctx context.Context, req PredictionRequest) (*Prediction, error)
	MyPredictions(ctx context.Context) ([]Prediction, error)
}

// Member is an account as listed by the admin endpoint.
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Location string `json:"location,omitempty"`
}

func (m *Member) UnmarshalJSON(data []byte) error {
	var w struct {
		MongoID  string          `json:"_id"`
		ID       json.RawMessage `json:"id"`
		Name     string          `json:"name"`
		Email    string          `json:"email"`
		Role     string          `json:"role"`
		Location string          `json:"location"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Member{ID: w.MongoID, Name: w.Name, Email: w.Email, Role: w.Role, Location: w.Location}
	if m.ID == "" {
		m.ID = rawID(w.ID)
	}
	return nil
}

type AdminAPI interface {
	Users(ctx context.Context) ([]Member, error)
}
