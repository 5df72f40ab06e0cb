package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fardannozami/crimewatch/internal/domain"
)

const submitUsage = "Usage: #lapor title | location | crime type | severity | description\n" +
	"Crime types: theft, robbery, assault, vandalism, fraud, other\n" +
	"Severity (optional): low, medium, high, critical"

// ReportActivityUsecase turns a #lapor message into a submitted crime report.
type ReportActivityUsecase struct {
	registry ReportRegistry
}

func NewReportActivityUsecase(registry ReportRegistry) *ReportActivityUsecase {
	return &ReportActivityUsecase{registry: registry}
}

func (uc *ReportActivityUsecase) Execute(ctx context.Context, senderName, args string) (string, error) {
	draft, ok := parseDraft(args)
	if !ok {
		return submitUsage, nil
	}

	report, err := uc.registry.Submit(ctx, draft)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Report received, thanks %s 🚨\n%s\nVote with: #vote %s helpful", senderName, formatReport(report), report.ID), nil
}

// parseDraft accepts four fields (no severity) or five.
func parseDraft(args string) (domain.ReportDraft, bool) {
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 4:
		return domain.ReportDraft{Title: parts[0], Location: parts[1], CrimeType: parts[2], Description: parts[3]}, true
	case 5:
		return domain.ReportDraft{Title: parts[0], Location: parts[1], CrimeType: parts[2], Severity: parts[3], Description: parts[4]}, true
	}
	return domain.ReportDraft{}, false
}
