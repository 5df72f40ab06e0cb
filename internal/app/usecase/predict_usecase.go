package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fardannozami/crimewatch/internal/domain"
)

const predictUsage = "Usage: #predict location [| crime type]"

type PredictUsecase struct {
	predictions PredictionService
}

func NewPredictUsecase(predictions PredictionService) *PredictUsecase {
	return &PredictUsecase{predictions: predictions}
}

func (uc *PredictUsecase) Execute(ctx context.Context, args string) (string, error) {
	location, crimeType, _ := strings.Cut(args, "|")
	req := domain.PredictionRequest{Location: strings.TrimSpace(location), CrimeType: strings.TrimSpace(crimeType)}
	if req.Location == "" {
		return predictUsage, nil
	}

	p, err := uc.predictions.Create(ctx, req)
	if err != nil {
		return "", err
	}
	return "🔮 Crime risk prediction\n" + formatPrediction(p), nil
}

type MyPredictionsUsecase struct {
	predictions PredictionService
}

func NewMyPredictionsUsecase(predictions PredictionService) *MyPredictionsUsecase {
	return &MyPredictionsUsecase{predictions: predictions}
}

func (uc *MyPredictionsUsecase) Execute(ctx context.Context) (string, error) {
	list, err := uc.predictions.Mine(ctx)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "No predictions yet. Try: #predict Connaught Place, Delhi", nil
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("🔮 Your predictions (%d)\n", len(list)))
	for i := range list {
		if i == maxListed {
			sb.WriteString(fmt.Sprintf("\n...and %d more", len(list)-maxListed))
			break
		}
		sb.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, formatPrediction(&list[i])))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func formatPrediction(p *domain.Prediction) string {
	subject := p.Location
	if p.CrimeType != "" {
		subject += " · " + p.CrimeType
	}
	return fmt.Sprintf("📍 %s\nRisk: %s (%.0f%%)", subject, strings.ToUpper(p.RiskLevel), p.Probability*100)
}
