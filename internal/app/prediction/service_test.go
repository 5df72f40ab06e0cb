package prediction_test

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
	"github.com/fardannozami/crimewatch/internal/app/prediction"
	"github.com/fardannozami/crimewatch/internal/app/session"
	"github.com/fardannozami/crimewatch/internal/domain"
	"github.com/fardannozami/crimewatch/internal/infra/api"
)

type memTokens struct{ token string }

func (m *memTokens) LoadToken(ctx context.Context) (string, error) { return m.token, nil }
func (m *memTokens) SaveToken(ctx context.Context, t string) error { m.token = t; return nil }
func (m *memTokens) ClearToken(ctx context.Context) error          { m.token = ""; return nil }

func newService(t *testing.T, loggedIn bool) (*prediction.Service, *session.Store, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	store := session.NewStore(client, &memTokens{}, zerolog.Nop())
	srv.AddUser(apitest.User{Name: "Asha", Email: "a@x.com", Password: "secret1"})
	if loggedIn {
		_, err := store.Login(context.Background(), domain.Credentials{Email: "a@x.com", Password: "secret1"})
		require.NoError(t, err)
	}
	return prediction.New(client.WithTokenSource(store), store, zerolog.Nop()), store, srv
}

func TestCreate_ScoresLocationAndListsIt(t *testing.T) {
	svc, _, srv := newService(t, true)
	srv.SeedReports(
		apitest.Report{ID: "1", Location: "Connaught Place, Delhi"},
		apitest.Report{ID: "2", Location: "Saket, Delhi"},
	)
	ctx := context.Background()

	p, err := svc.Create(ctx, domain.PredictionRequest{Location: "  Delhi ", CrimeType: "THEFT"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Delhi", p.Location)
	assert.Equal(t, "theft", p.CrimeType)
	assert.Equal(t, "high", p.RiskLevel)
	assert.InDelta(t, 0.7, p.Probability, 0.001)

	mine, err := svc.Mine(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, p.ID, mine[0].ID)
}

func TestCreate_RequiresSessionWithoutNetwork(t *testing.T) {
	svc, _, srv := newService(t, false)
	before := srv.TotalCalls()

	_, err := svc.Create(context.Background(), domain.PredictionRequest{Location: "Delhi"})
	assert.True(t, errors.Is(err, domain.ErrAuth))

	_, err = svc.Mine(context.Background())
	assert.True(t, errors.Is(err, domain.ErrAuth))
	assert.Equal(t, before, srv.TotalCalls())
}

func TestCreate_ValidatesLocally(t *testing.T) {
	svc, _, srv := newService(t, true)
	before := srv.TotalCalls()

	_, err := svc.Create(context.Background(), domain.PredictionRequest{Location: "   "})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.Create(context.Background(), domain.PredictionRequest{Location: "Pune", CrimeType: "arson"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, before, srv.TotalCalls())
}

func TestCreate_UnauthorizedExpiresSession(t *testing.T) {
	svc, store, srv := newService(t, true)
	srv.FailNext("POST /predictions", http.StatusUnauthorized, "Token is not valid")

	_, err := svc.Create(context.Background(), domain.PredictionRequest{Location: "Delhi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuth))
	assert.Equal(t, "Token is not valid", err.Error())
	assert.Equal(t, domain.StateExpired, store.Current().State)
}

func TestMine_ServerErrorIsLoadError(t *testing.T) {
	svc, store, srv := newService(t, true)
	srv.FailNextRaw("GET /predictions/my-predictions", http.StatusInternalServerError, `{}`)

	_, err := svc.Mine(context.Background())
	assert.True(t, errors.Is(err, domain.ErrLoad))
	assert.Equal(t, "Failed to load predictions", err.Error())
	assert.True(t, store.Current().Authenticated())
}
