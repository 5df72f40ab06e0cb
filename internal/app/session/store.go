package session

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fardannozami/crimewatch/internal/auth"
	"github.com/fardannozami/crimewatch/internal/domain"
	"github.com/fardannozami/crimewatch/internal/infra/api"
)

const minPasswordLen = 6

// Store is the single owner of the session token. Every other component reads
// the session through Current, Token or Identity.
type Store struct {
	api    domain.AuthAPI
	tokens domain.TokenStore
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current domain.Session

	subMu   sync.Mutex
	subs    map[int]func(domain.Session)
	nextSub int
}

func NewStore(authAPI domain.AuthAPI, tokens domain.TokenStore, logger zerolog.Logger) *Store {
	return &Store{
		api:     authAPI,
		tokens:  tokens,
		log:     logger.With().Str("component", "session").Logger(),
		now:     time.Now,
		current: domain.Session{State: domain.StateAnonymous},
		subs:    make(map[int]func(domain.Session)),
	}
}

func (s *Store) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur := s.current
	if cur.Identity != nil {
		id := *cur.Identity
		cur.Identity = &id
	}
	return cur
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

func (s *Store) Identity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.Identity == nil {
		return domain.Identity{}, false
	}
	return *s.current.Identity, true
}

// Subscribe registers fn to run after every transition, on the goroutine that
// made it. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(domain.Session)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(sess domain.Session) {
	s.subMu.Lock()
	fns := make([]func(domain.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}

// Restore reads the persisted token and derives the identity from it. It never
// fails: an unreadable, malformed or expired token leaves the session anonymous
// and is removed from storage.
func (s *Store) Restore(ctx context.Context) domain.Session {
	token, err := s.tokens.LoadToken(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not read persisted token")
		return s.set(domain.Session{State: domain.StateAnonymous})
	}
	if token == "" {
		return s.set(domain.Session{State: domain.StateAnonymous})
	}

	sess, err := s.sessionFromToken(token)
	if err != nil {
		s.log.Info().Err(err).Msg("discarding persisted token")
		if err := s.tokens.ClearToken(ctx); err != nil {
			s.log.Warn().Err(err).Msg("could not clear persisted token")
		}
		return s.set(domain.Session{State: domain.StateAnonymous})
	}
	return s.set(sess)
}

func (s *Store) sessionFromToken(token string) (domain.Session, error) {
	claims, err := auth.DecodeClaims(token)
	if err != nil {
		return domain.Session{}, err
	}
	if claims.Expired(s.now()) {
		return domain.Session{}, domain.NewError(domain.KindAuth, "session expired", nil)
	}
	id := claims.Identity()
	return domain.Session{
		State:     domain.StateAuthenticated,
		Token:     token,
		Identity:  &id,
		ExpiresAt: claims.ExpiresAt(),
	}, nil
}

// Signup registers an account. It does not log in.
func (s *Store) Signup(ctx context.Context, profile domain.SignupProfile) (map[string]any, error) {
	profile, err := normalizeProfile(profile)
	if err != nil {
		return nil, err
	}
	created, err := s.api.Register(ctx, profile)
	if err != nil {
		var out error = api.AsDomain(err, domain.KindValidation, "Registration failed")
		if k, _ := domain.KindOf(out); k == domain.KindAuth {
			out = domain.NewError(domain.KindValidation, out.Error(), err)
		}
		return nil, out
	}
	s.log.Info().Str("email", profile.Email).Msg("account registered")
	return created, nil
}

func normalizeProfile(p domain.SignupProfile) (domain.SignupProfile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Location = strings.TrimSpace(p.Location)

	if p.Name == "" || p.Email == "" || p.Phone == "" || p.Password == "" {
		return p, domain.NewError(domain.KindValidation, "Name, email, phone and password are required", nil)
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return p, domain.NewError(domain.KindValidation, "Email address is not valid", err)
	}
	if len(p.Password) < minPasswordLen {
		return p, domain.NewError(domain.KindValidation, "Password must be at least 6 characters", nil)
	}
	if p.Location == "" {
		p.Location = "Not specified"
	}
	return p, nil
}

// Login exchanges credentials for a token. On failure the session is left as
// it was.
func (s *Store) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return s.Current(), domain.NewError(domain.KindValidation, "Email and password are required", nil)
	}

	res, err := s.api.Login(ctx, creds)
	if err != nil {
		return s.Current(), api.AsDomain(err, domain.KindAuth, "Login failed")
	}

	sess, err := s.sessionFromToken(res.Token)
	if err != nil {
		s.log.Warn().Err(err).Msg("login returned an unusable token")
		return s.Current(), domain.NewError(domain.KindAuth, "Login failed", err)
	}

	// Persist before the transition becomes visible so anything reacting to it
	// sees storage already written.
	if err := s.tokens.SaveToken(ctx, res.Token); err != nil {
		s.log.Warn().Err(err).Msg("could not persist token")
	}
	s.log.Info().Str("user_id", sess.Identity.ID).Msg("logged in")
	return s.set(sess), nil
}

// Logout clears the session. Readers observe the anonymous state before any
// subscriber runs.
func (s *Store) Logout(ctx context.Context) error {
	return s.drop(ctx, domain.StateAnonymous)
}

// Expire is Logout for a session the server stopped accepting.
func (s *Store) Expire(ctx context.Context) error {
	s.log.Info().Msg("session expired")
	return s.drop(ctx, domain.StateExpired)
}

func (s *Store) drop(ctx context.Context, state domain.SessionState) error {
	s.mu.Lock()
	s.current = domain.Session{State: state}
	s.mu.Unlock()

	err := s.tokens.ClearToken(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not clear persisted token")
	}
	s.notify(domain.Session{State: state})
	return err
}

func (s *Store) set(sess domain.Session) domain.Session {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	out := s.Current()
	s.notify(out)
	return out
}
