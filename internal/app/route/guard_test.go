package route_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardannozami/crimewatch/internal/apitest"
	"github.com/fardannozami/crimewatch/internal/app/route"
	"github.com/fardannozami/crimewatch/internal/app/session"
	"github.com/fardannozami/crimewatch/internal/domain"
	"github.com/fardannozami/crimewatch/internal/infra/api"
)

const (
	login      route.View = "login"
	home       route.View = "home"
	prediction route.View = "prediction"
)

type noTokens struct{ token string }

func (n *noTokens) LoadToken(ctx context.Context) (string, error) { return n.token, nil }
func (n *noTokens) SaveToken(ctx context.Context, t string) error { n.token = t; return nil }
func (n *noTokens) ClearToken(ctx context.Context) error          { n.token = ""; return nil }

func loggedInStore(t *testing.T) *session.Store {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.AddUser(apitest.User{Email: "a@x.com", Password: "secret1"})

	store := session.NewStore(api.NewClient(srv.URL, 5*time.Second, zerolog.Nop()), &noTokens{}, zerolog.Nop())
	_, err := store.Login(context.Background(), domain.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	return store
}

func TestGuard_CanEnter(t *testing.T) {
	g := route.NewGuard(login, prediction)
	anon := domain.Session{State: domain.StateAnonymous}
	authed := domain.Session{State: domain.StateAuthenticated, Token: "t", Identity: &domain.Identity{ID: "u"}}

	assert.True(t, g.CanEnter(home, anon).Allowed)
	assert.True(t, g.CanEnter(prediction, authed).Allowed)

	d := g.CanEnter(prediction, anon)
	assert.False(t, d.Allowed)
	assert.Equal(t, login, d.Redirect)
	assert.Equal(t, prediction, d.From)

	expired := domain.Session{State: domain.StateExpired}
	assert.False(t, g.CanEnter(prediction, expired).Allowed)
}

func TestGuard_DeniesRightAfterLogout(t *testing.T) {
	store := loggedInStore(t)
	g := route.NewGuard(login, prediction)
	require.True(t, g.CanEnter(prediction, store.Current()).Allowed)

	require.NoError(t, store.Logout(context.Background()))
	assert.False(t, g.CanEnter(prediction, store.Current()).Allowed)
}

func TestNavigator_RedirectsActiveProtectedViewOnLogout(t *testing.T) {
	store := loggedInStore(t)
	nav := route.NewNavigator(route.NewGuard(login, prediction), store, home)
	defer nav.Close()

	var redirects [][2]route.View
	nav.OnRedirect(func(from, to route.View) {
		redirects = append(redirects, [2]route.View{from, to})
	})

	require.True(t, nav.Navigate(prediction).Allowed)
	require.Equal(t, prediction, nav.Current())

	require.NoError(t, store.Logout(context.Background()))

	assert.Equal(t, login, nav.Current())
	assert.Equal(t, [][2]route.View{{prediction, login}}, redirects)
	dest, ok := nav.IntendedDestination()
	assert.True(t, ok)
	assert.Equal(t, prediction, dest)
}

func TestNavigator_ResumeAfterLogin(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser(apitest.User{Email: "a@x.com", Password: "secret1"})
	store := session.NewStore(api.NewClient(srv.URL, 5*time.Second, zerolog.Nop()), &noTokens{}, zerolog.Nop())
	nav := route.NewNavigator(route.NewGuard(login, prediction), store, home)
	defer nav.Close()

	d := nav.Navigate(prediction)
	require.False(t, d.Allowed)
	assert.Equal(t, login, nav.Current())

	_, err := store.Login(context.Background(), domain.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	d, ok := nav.Resume()
	require.True(t, ok)
	assert.True(t, d.Allowed)
	assert.Equal(t, prediction, nav.Current())
	_, pending := nav.IntendedDestination()
	assert.False(t, pending)
}

func TestNavigator_PublicViewUnaffectedByLogout(t *testing.T) {
	store := loggedInStore(t)
	nav := route.NewNavigator(route.NewGuard(login, prediction), store, home)
	defer nav.Close()

	require.NoError(t, store.Logout(context.Background()))
	assert.Equal(t, home, nav.Current())
}
