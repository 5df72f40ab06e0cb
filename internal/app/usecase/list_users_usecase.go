package usecase

import (
	"context"
	"fmt"
	"strings"
)

type ListUsersUsecase struct {
	directory UserDirectory
}

func NewListUsersUsecase(directory UserDirectory) *ListUsersUsecase {
	return &ListUsersUsecase{directory: directory}
}

func (uc *ListUsersUsecase) Execute(ctx context.Context) (string, error) {
	users, err := uc.directory.Users(ctx)
	if err != nil {
		return "", err
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("👥 Registered users (%d)\n", len(users)))
	for i, u := range users {
		sb.WriteString(fmt.Sprintf("\n%d. %s <%s> %s", i+1, u.Name, u.Email, u.Role))
		if u.Location != "" {
			sb.WriteString(" · " + u.Location)
		}
	}
	return sb.String(), nil
}
