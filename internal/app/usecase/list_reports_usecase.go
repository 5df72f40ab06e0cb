package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fardannozami/crimewatch/internal/domain"
)

const maxListed = 10

type ListReportsUsecase struct {
	registry ReportRegistry
}

func NewListReportsUsecase(registry ReportRegistry) *ListReportsUsecase {
	return &ListReportsUsecase{registry: registry}
}

// Execute reloads the collection and lists it, narrowed to location when one
// is given.
func (uc *ListReportsUsecase) Execute(ctx context.Context, location string) (string, error) {
	if err := uc.registry.Load(ctx); err != nil {
		return "", err
	}
	visible := uc.registry.Filter(location)

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("📢 Recent reports (%d)", len(visible)))
	if location != "" {
		sb.WriteString(fmt.Sprintf(", filtered by: %s", location))
	}
	sb.WriteString("\n")

	if len(visible) == 0 {
		sb.WriteString("\nNo reports match this filter. Try a different location or send #reports to clear it.")
		return sb.String(), nil
	}

	for i := range visible {
		if i == maxListed {
			sb.WriteString(fmt.Sprintf("\n...and %d more", len(visible)-maxListed))
			break
		}
		sb.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, formatReport(&visible[i])))
	}
	return sb.String(), nil
}

func formatReport(r *domain.Report) string {
	author := r.AuthorName
	if author == "" {
		author = "Anonymous"
	}
	return fmt.Sprintf("[%s] %s\n📍 %s · %s · by %s\n👍 %d 👎 %d · id %s",
		strings.ToUpper(string(r.Severity)), r.Title, r.Location, r.CrimeType, author,
		r.HelpfulCount(), r.UnhelpfulCount(), r.ID)
}
