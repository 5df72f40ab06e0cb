package prediction

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fardannozami/crimewatch/internal/domain"
	"github.com/fardannozami/crimewatch/internal/infra/api"
)

type Session interface {
	Current() domain.Session
	Expire(ctx context.Context) error
}

// Service requests risk predictions for the signed-in user. Nothing is cached;
// every read goes to the server.
type Service struct {
	api  domain.PredictionAPI
	sess Session
	log  zerolog.Logger
}

func New(predAPI domain.PredictionAPI, sess Session, logger zerolog.Logger) *Service {
	return &Service{
		api:  predAPI,
		sess: sess,
		log:  logger.With().Str("component", "prediction").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, req domain.PredictionRequest) (*domain.Prediction, error) {
	if !s.sess.Current().Authenticated() {
		return nil, domain.NewError(domain.KindAuth, "Please login to request a prediction", nil)
	}
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.api.CreatePrediction(ctx, req)
	if err != nil {
		kind := domain.KindSubmit
		if api.StatusCode(err) == http.StatusBadRequest {
			kind = domain.KindValidation
		}
		return nil, s.convert(ctx, err, kind, "Failed to create prediction")
	}
	s.log.Info().Str("prediction_id", p.ID).Str("risk", p.RiskLevel).Msg("prediction created")
	return p, nil
}

// Mine lists the signed-in user's predictions, newest first as the server sends them.
func (s *Service) Mine(ctx context.Context) ([]domain.Prediction, error) {
	if !s.sess.Current().Authenticated() {
		return nil, domain.NewError(domain.KindAuth, "Please login to see your predictions", nil)
	}
	list, err := s.api.MyPredictions(ctx)
	if err != nil {
		return nil, s.convert(ctx, err, domain.KindLoad, "Failed to load predictions")
	}
	return list, nil
}

func (s *Service) convert(ctx context.Context, err error, kind domain.Kind, fallback string) error {
	if api.StatusCode(err) == http.StatusUnauthorized {
		if xerr := s.sess.Expire(ctx); xerr != nil {
			s.log.Warn().Err(xerr).Msg("expire session")
		}
	}
	return api.AsDomain(err, kind, fallback)
}
