package registry

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fardannozami/crimewatch/internal/domain"
	"github.com/fardannozami/crimewatch/internal/infra/api"
)

// Session is what the registry needs from the session store.
type Session interface {
	Current() domain.Session
	Expire(ctx context.Context) error
}

type pendingInsert struct {
	report domain.Report
	seq    uint64
}

// Registry is an in-memory projection of the server's report collection.
//
// Loads replace the collection wholesale. A report created by Submit is shown
// at the head immediately and survives any load that was issued before the
// submission landed; the first load issued after it is authoritative.
type Registry struct {
	api  domain.ReportAPI
	sess Session
	log  zerolog.Logger

	mu          sync.Mutex
	reports     []domain.Report
	seq         uint64
	appliedLoad uint64
	pending     []pendingInsert
	closed      bool
}

func New(reportAPI domain.ReportAPI, sess Session, logger zerolog.Logger) *Registry {
	return &Registry{
		api:  reportAPI,
		sess: sess,
		log:  logger.With().Str("component", "registry").Logger(),
	}
}

// Load fetches the full collection. On failure the previous collection stays.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.seq++
	issued := r.seq
	r.mu.Unlock()

	list, err := r.api.ListReports(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return api.AsDomain(err, domain.KindLoad, "Failed to load reports")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if issued < r.appliedLoad {
		r.log.Debug().Uint64("issued", issued).Uint64("applied", r.appliedLoad).Msg("dropping out-of-order load")
		return nil
	}
	r.appliedLoad = issued

	present := make(map[string]bool, len(list))
	for _, rep := range list {
		present[rep.ID] = true
	}
	var head []domain.Report
	var keep []pendingInsert
	for _, p := range r.pending {
		if p.seq <= issued {
			continue
		}
		keep = append(keep, p)
		if !present[p.report.ID] {
			head = append(head, p.report)
		}
	}
	r.pending = keep
	r.reports = append(head, list...)
	return nil
}

// Submit sends a new report and puts the server's copy at the head of the
// collection without waiting for a reload.
func (r *Registry) Submit(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error) {
	if !r.sess.Current().Authenticated() {
		return nil, domain.NewError(domain.KindAuth, "Please login to submit a report", nil)
	}
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	created, err := r.api.CreateReport(ctx, draft)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, r.actionError(ctx, err, domain.KindSubmit, "Failed to submit report")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return created, nil
	}
	r.seq++
	r.pending = append([]pendingInsert{{report: *created, seq: r.seq}}, r.pending...)
	r.reports = append([]domain.Report{*created}, r.reports...)
	r.log.Info().Str("report_id", created.ID).Msg("report submitted")
	return created, nil
}

// Vote records a vote and then reloads so counts reflect whatever bucket the
// server put the vote in. The session is checked before anything is sent.
// A failed reload after an accepted vote returns the server message with a
// LoadError.
func (r *Registry) Vote(ctx context.Context, reportID string, vote domain.VoteType) (string, error) {
	if !r.sess.Current().Authenticated() {
		return "", domain.NewError(domain.KindAuth, "Please login to vote", nil)
	}
	if !vote.Valid() {
		return "", domain.NewError(domain.KindValidation, "vote must be helpful or unhelpful", nil)
	}

	msg, err := r.api.Vote(ctx, reportID, vote)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", r.actionError(ctx, err, domain.KindVote, "Failed to record vote")
	}
	return msg, r.Load(ctx)
}

// actionError converts a failed authenticated call. A 401 means the server no
// longer honours the token, so the session is expired as well.
func (r *Registry) actionError(ctx context.Context, err error, kind domain.Kind, fallback string) error {
	if api.StatusCode(err) == http.StatusUnauthorized {
		if xerr := r.sess.Expire(ctx); xerr != nil {
			r.log.Warn().Err(xerr).Msg("expire session")
		}
	}
	if kind == domain.KindSubmit && api.StatusCode(err) == http.StatusBadRequest {
		kind = domain.KindValidation
	}
	return api.AsDomain(err, kind, fallback)
}

// Filter returns the reports whose location contains location, ignoring
// case, in collection order. It keeps no state, so concurrent callers with
// different locations never see each other's results.
func (r *Registry) Filter(location string) []domain.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Report, 0, len(r.reports))
	for i := range r.reports {
		if r.reports[i].MatchesLocation(location) {
			out = append(out, r.reports[i])
		}
	}
	return out
}

func (r *Registry) All() []domain.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Report, len(r.reports))
	copy(out, r.reports)
	return out
}

func (r *Registry) Get(id string) (domain.Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.ID == id {
			return rep, true
		}
	}
	return domain.Report{}, false
}

// Close detaches the registry from its consumer. Responses still in flight are
// dropped when they arrive.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}
