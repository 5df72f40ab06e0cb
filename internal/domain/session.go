package domain

import (
	"context"
	"time"
)

const RoleAdmin = "admin"

type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

type SessionState string

const (
	StateAnonymous     SessionState = "anonymous"
	StateAuthenticated SessionState = "authenticated"
	StateExpired       SessionState = "expired"
)

// Session is a value copy of what SessionStore believes. Identity is non-nil
// exactly when Token is set.
type Session struct {
	State     SessionState
	Token     string
	Identity  *Identity
	ExpiresAt time.Time
}

func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated && s.Identity != nil
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token string         `json:"token"`
	User  map[string]any `json:"user"`
}

type AuthAPI interface {
	Register(ctx context.Context, profile SignupProfile) (map[string]any, error)
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
}

// TokenStore persists the session token under a single key.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}
