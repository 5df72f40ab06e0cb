package admin_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardannozami/crimewatch/internal/apitest"
	"github.com/fardannozami/crimewatch/internal/app/admin"
	"github.com/fardannozami/crimewatch/internal/domain"
	"github.com/fardannozami/crimewatch/internal/infra/api"
)

type staticSession struct{ sess domain.Session }

func (s staticSession) Current() domain.Session { return s.sess }
func (s staticSession) Token() string           { return s.sess.Token }

func signedInAs(u *apitest.User) staticSession {
	return staticSession{sess: domain.Session{
		State:    domain.StateAuthenticated,
		Token:    apitest.Token(u, time.Hour),
		Identity: &domain.Identity{ID: u.ID, Email: u.Email, Role: u.Role},
	}}
}

func newDirectory(t *testing.T, sess staticSession) (*admin.Directory, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, 5*time.Second, zerolog.Nop()).WithTokenSource(sess)
	return admin.NewDirectory(client, sess), srv
}

func TestUsers_AdminSeesEveryAccount(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	root := srv.AddUser(apitest.User{ID: "u1", Name: "Root", Email: "root@x.com", Role: "admin"})
	srv.AddUser(apitest.User{ID: "u2", Name: "Asha", Email: "a@x.com", Location: "Delhi"})

	sess := signedInAs(root)
	client := api.NewClient(srv.URL, 5*time.Second, zerolog.Nop()).WithTokenSource(sess)
	users, err := admin.NewDirectory(client, sess).Users(context.Background())
	require.NoError(t, err)

	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "admin", users[0].Role)
	assert.Equal(t, "Delhi", users[1].Location)
}

func TestUsers_NonAdminRejectedLocally(t *testing.T) {
	dir, srv := newDirectory(t, signedInAs(&apitest.User{ID: "u2", Email: "a@x.com", Role: "user"}))

	_, err := dir.Users(context.Background())
	assert.True(t, errors.Is(err, domain.ErrAuth))
	assert.Equal(t, "Admin access required", err.Error())
	assert.Zero(t, srv.TotalCalls())
}

func TestUsers_AnonymousRejectedLocally(t *testing.T) {
	dir, srv := newDirectory(t, staticSession{sess: domain.Session{State: domain.StateAnonymous}})

	_, err := dir.Users(context.Background())
	assert.True(t, errors.Is(err, domain.ErrAuth))
	assert.Zero(t, srv.TotalCalls())
}

func TestUsers_ServerForbidsStaleRole(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	// claims say admin, the server's record says otherwise
	u := srv.AddUser(apitest.User{ID: "u3", Email: "demoted@x.com", Role: "user"})
	claims := *u
	claims.Role = "admin"

	sess := signedInAs(&claims)
	client := api.NewClient(srv.URL, 5*time.Second, zerolog.Nop()).WithTokenSource(sess)
	_, err := admin.NewDirectory(client, sess).Users(context.Background())

	assert.True(t, errors.Is(err, domain.ErrAuth))
	assert.Equal(t, 1, srv.Calls("GET /admin/users"))
	assert.Equal(t, http.StatusForbidden, api.StatusCode(errors.Unwrap(err)))
}
