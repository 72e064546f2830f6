package federation

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/domain/review"
	"github.com/turtacn/LitFed/internal/domain/search"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LitFed/internal/provider"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// Service defines the federated orchestrator operations.
type Service interface {
	// ConductQuery fans the canonical query out over every usable wrapper
	// and returns one envelope per wrapper in registry order.  The first
	// envelope carries the combined facets; the others carry zeroed facets
	// so clients merging the list do not double-count.
	ConductQuery(ctx context.Context, q *search.Query, page int, pageLength PageLength) ([]*search.Envelope, error)

	// MarkPersisted tags every record of the envelopes with whether its DOI
	// is already persisted in the review.  Records without a DOI stay false.
	MarkPersisted(ctx context.Context, envelopes []*search.Envelope, reviewID common.ID) error

	// CreateQuerySession registers a new session for the query on the review.
	CreateQuerySession(ctx context.Context, reviewID common.ID, q *search.Query) (*review.QuerySession, error)

	// PersistentQuery pages through the federated results of the session's
	// query, persisting every page until at least maxRecords records were
	// seen.  Overshoot by up to one page is allowed.  Returns the number of
	// records actually persisted.
	PersistentQuery(ctx context.Context, reviewID common.ID, session *review.QuerySession, maxRecords int) (int, error)

	// PersistPages creates a fresh session and persists the given result
	// pages of the query.
	PersistPages(ctx context.Context, reviewID common.ID, q *search.Query, pages []int, pageLength PageLength) (*review.PersistOutcome, error)

	// PersistList creates a fresh session and persists an explicit record
	// list, e.g. results hand-picked by the user from a dry query.
	PersistList(ctx context.Context, reviewID common.ID, q *search.Query, records []search.Record) (*review.PersistOutcome, error)
}

type serviceImpl struct {
	wrappers WrapperSource
	reviews  review.Repository
	results  review.ResultRepository
	cache    PersistedCache
	events   EventPublisher
	metrics  Metrics
	cfg      config.FederationConfig
	logger   logging.Logger
}

// NewService builds the orchestrator.  cache, events, and metrics may be nil.
func NewService(
	wrappers WrapperSource,
	reviews review.Repository,
	results review.ResultRepository,
	cache PersistedCache,
	events EventPublisher,
	metrics Metrics,
	cfg config.FederationConfig,
	logger logging.Logger,
) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		wrappers: wrappers,
		reviews:  reviews,
		results:  results,
		cache:    cache,
		events:   events,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger.Named("federation"),
	}
}

func (s *serviceImpl) ConductQuery(ctx context.Context, q *search.Query, page int, pageLength PageLength) ([]*search.Envelope, error) {
	if page < 1 {
		page = 1
	}
	if !pageLength.Max && pageLength.Value <= 0 {
		pageLength.Value = s.cfg.DefaultPageLength
	}

	started := time.Now()
	ids, wrappers := s.wrappers.CloneAll()
	if len(wrappers) == 0 {
		s.logger.Warn("no usable providers configured")
		return []*search.Envelope{}, nil
	}

	// The caller's budget is split evenly; integer truncation is
	// authoritative and the remainder is not redistributed.
	perWrapper := make([]int, len(wrappers))
	for i, w := range wrappers {
		if pageLength.Max {
			perWrapper[i] = w.MaxRecords()
		} else {
			perWrapper[i] = pageLength.Value / len(wrappers)
		}
	}

	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	envelopes := make([]*search.Envelope, len(wrappers))
	g, gctx := errgroup.WithContext(ctx)
	for i := range wrappers {
		i := i
		w := wrappers[i]
		g.Go(func() error {
			w.StartAt(review.CalcStartAt(page, perWrapper[i]))
			w.SetShowNum(perWrapper[i])

			callStart := time.Now()
			env := w.CallAPI(gctx, q)
			if s.metrics != nil {
				s.metrics.ObserveProviderCall(w.Name(), env.IsValid(), time.Since(callStart))
			}
			if !env.IsValid() {
				s.logger.Warn("provider returned invalid envelope",
					logging.String("provider", ids[i]),
					logging.String("error", env.Error),
				)
			}
			envelopes[i] = env
			// Partial results are discarded on cancellation; the slot list
			// is either complete or the call fails as a whole.
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeTimeout, "federated query aborted")
	}

	combined := make([]search.Facets, len(envelopes))
	for i, env := range envelopes {
		combined[i] = env.Facets
	}
	envelopes[0].Facets = search.CombineFacets(combined...)
	for _, env := range envelopes[1:] {
		env.Facets = search.NewFacets()
	}

	if s.metrics != nil {
		s.metrics.ObserveFederatedQuery(len(wrappers), time.Since(started))
	}
	s.logger.Debug("federated query finished",
		logging.Int("providers", len(wrappers)),
		logging.Int("page", page),
		logging.Duration("elapsed", time.Since(started)),
	)
	return envelopes, nil
}

func (s *serviceImpl) MarkPersisted(ctx context.Context, envelopes []*search.Envelope, reviewID common.ID) error {
	dois, err := s.persistedDOIs(ctx, reviewID)
	if err != nil {
		return err
	}
	for _, env := range envelopes {
		for i := range env.Records {
			doi := env.Records[i].DOI
			if doi == "" {
				env.Records[i].Persisted = false
				continue
			}
			_, ok := dois[doi]
			env.Records[i].Persisted = ok
		}
	}
	return nil
}

// persistedDOIs serves the review's persisted-DOI set from the cache,
// falling back to a single store read.
func (s *serviceImpl) persistedDOIs(ctx context.Context, reviewID common.ID) (map[string]struct{}, error) {
	if s.cache != nil {
		dois, ok, err := s.cache.GetPersistedDOIs(ctx, reviewID)
		if err != nil {
			s.logger.Warn("persisted-DOI cache read failed", logging.Err(err))
		} else if ok {
			return dois, nil
		}
	}

	dois, err := s.reviews.PersistedDOIs(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetPersistedDOIs(ctx, reviewID, dois); err != nil {
			s.logger.Warn("persisted-DOI cache write failed", logging.Err(err))
		}
	}
	return dois, nil
}

func (s *serviceImpl) CreateQuerySession(ctx context.Context, reviewID common.ID, q *search.Query) (*review.QuerySession, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	session := review.NewQuerySession(q)
	if err := s.reviews.AddQuerySession(ctx, reviewID, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *serviceImpl) PersistentQuery(ctx context.Context, reviewID common.ID, session *review.QuerySession, maxRecords int) (int, error) {
	if maxRecords <= 0 {
		return 0, apperrors.New(apperrors.ErrCodeBadRequest, "max_records must be positive")
	}

	persisted := 0
	seen := 0
	for page := 1; seen < maxRecords; page++ {
		envelopes, err := s.ConductQuery(ctx, session.Search, page, Len(s.cfg.DefaultPageLength))
		if err != nil {
			return persisted, err
		}
		if len(envelopes) == 0 {
			break
		}

		displayed := 0
		for _, env := range envelopes {
			saved, _, err := s.persistRecords(ctx, reviewID, session.ID, env.Records)
			if err != nil {
				return persisted, err
			}
			persisted += saved
			displayed += env.Result.RecordsDisplayed
		}
		// Every provider exhausted or failing; further pages cannot make
		// progress.
		if displayed == 0 {
			break
		}
		seen += displayed
	}
	return persisted, nil
}

func (s *serviceImpl) PersistPages(ctx context.Context, reviewID common.ID, q *search.Query, pages []int, pageLength PageLength) (*review.PersistOutcome, error) {
	session, err := s.CreateQuerySession(ctx, reviewID, q)
	if err != nil {
		return nil, err
	}

	outcome := &review.PersistOutcome{QueryID: session.ID}
	for _, page := range pages {
		envelopes, err := s.ConductQuery(ctx, q, page, pageLength)
		if err != nil {
			return outcome, err
		}
		for _, env := range envelopes {
			saved, skipped, err := s.persistRecords(ctx, reviewID, session.ID, env.Records)
			if err != nil {
				return outcome, err
			}
			outcome.NumPersisted += saved
			outcome.NumSkipped += skipped
		}
	}
	outcome.Success = true
	return outcome, nil
}

func (s *serviceImpl) PersistList(ctx context.Context, reviewID common.ID, q *search.Query, records []search.Record) (*review.PersistOutcome, error) {
	session, err := s.CreateQuerySession(ctx, reviewID, q)
	if err != nil {
		return nil, err
	}

	outcome := &review.PersistOutcome{QueryID: session.ID}
	saved, skipped, err := s.persistRecords(ctx, reviewID, session.ID, records)
	if err != nil {
		return outcome, err
	}
	outcome.NumPersisted = saved
	outcome.NumSkipped = skipped
	outcome.Success = true
	return outcome, nil
}

// persistRecords writes the records in configured chunks, appends the saved
// DOIs to the session, extends the cache, and emits the ingestion event.
func (s *serviceImpl) persistRecords(ctx context.Context, reviewID, sessionID common.ID, records []search.Record) (saved, skipped int, err error) {
	chunkSize := s.cfg.PersistChunkSize
	if chunkSize <= 0 {
		chunkSize = len(records)
	}

	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		nSaved, nSkipped, savedDOIs, err := s.results.SaveResults(ctx, reviewID, chunk)
		if err != nil {
			return saved, skipped, err
		}
		saved += nSaved
		skipped += nSkipped
		if len(savedDOIs) == 0 {
			continue
		}

		if err := s.reviews.AppendSessionDOIs(ctx, reviewID, sessionID, savedDOIs); err != nil {
			return saved, skipped, err
		}
		if s.cache != nil {
			if err := s.cache.AddPersistedDOIs(ctx, reviewID, savedDOIs); err != nil {
				s.logger.Warn("persisted-DOI cache update failed", logging.Err(err))
			}
		}
		if s.events != nil {
			if err := s.events.ResultsPersisted(ctx, reviewID, sessionID, savedDOIs); err != nil {
				s.logger.Warn("ingestion event publish failed", logging.Err(err))
			}
		}
	}

	if s.metrics != nil && saved > 0 {
		s.metrics.AddPersistedRecords(saved)
	}
	if skipped > 0 {
		s.logger.Info("records without DOI skipped during persist",
			logging.String("review", string(reviewID)),
			logging.Int("skipped", skipped),
		)
	}
	return saved, skipped, nil
}

var _ WrapperSource = (*provider.Registry)(nil)
