// Package review provides the application-level service for review CRUD,
// result paging, result deletion, and score evaluation.  It sits between the
// HTTP handlers and the domain repositories.
package review

import (
	"context"

	"github.com/turtacn/LitFed/internal/application/federation"
	domainreview "github.com/turtacn/LitFed/internal/domain/review"
	"github.com/turtacn/LitFed/internal/domain/search"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// Service defines the review application operations.  Every operation takes
// the calling user; access is checked against the review's owner and
// collaborators.
type Service interface {
	Create(ctx context.Context, input *CreateInput) (*domainreview.Review, error)
	Get(ctx context.Context, user common.UserID, id common.ID) (*domainreview.Review, error)
	List(ctx context.Context, user common.UserID, page, pageSize int) (*ListResult, error)
	Update(ctx context.Context, input *UpdateInput) (*domainreview.Review, error)
	// Delete removes the review and its result collection.  Owner only.
	Delete(ctx context.Context, user common.UserID, id common.ID) error

	// Results returns one page of the review's persisted records.  When
	// queryID is non-empty the page is restricted to the records of that
	// session.  page == 0 disables pagination.
	Results(ctx context.Context, user common.UserID, reviewID common.ID, page, pageLength int, queryID common.ID) (*domainreview.ResultPage, error)

	// DeleteResults removes the given DOIs from the review's collection and
	// reports how many records were actually deleted.
	DeleteResults(ctx context.Context, user common.UserID, reviewID common.ID, dois []string) (int64, error)

	// UpdateScore upserts the calling user's evaluation of one record.
	UpdateScore(ctx context.Context, user common.UserID, reviewID common.ID, doi string, score int, comment string) (*search.Record, error)
}

// CreateInput carries the fields of a new review.
type CreateInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Collaborators []common.UserID `json:"collaborators"`
	Owner         common.UserID   `json:"-"`
}

// UpdateInput carries a partial review update.  Nil fields stay unchanged.
type UpdateInput struct {
	ID            common.ID       `json:"-"`
	Name          *string         `json:"name"`
	Description   *string         `json:"description"`
	Collaborators []common.UserID `json:"collaborators"`
	User          common.UserID   `json:"-"`
}

// ListResult is one page of the user's reviews.
type ListResult struct {
	Reviews  []*domainreview.Review `json:"reviews"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

type serviceImpl struct {
	reviews domainreview.Repository
	results domainreview.ResultRepository
	cache   federation.PersistedCache
	logger  logging.Logger
}

// NewService builds the review application service.  cache may be nil.
func NewService(
	reviews domainreview.Repository,
	results domainreview.ResultRepository,
	cache federation.PersistedCache,
	logger logging.Logger,
) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		reviews: reviews,
		results: results,
		cache:   cache,
		logger:  logger.Named("review"),
	}
}

func (s *serviceImpl) Create(ctx context.Context, input *CreateInput) (*domainreview.Review, error) {
	if input.Name == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "name is required")
	}
	if input.Owner == "" {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "no user in request")
	}

	rv := domainreview.NewReview(input.Name, input.Description, input.Owner)
	rv.Collaborators = input.Collaborators
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}
	s.logger.Info("review created",
		logging.String("review", string(rv.ID)),
		logging.String("owner", string(rv.Owner)),
	)
	return rv, nil
}

func (s *serviceImpl) Get(ctx context.Context, user common.UserID, id common.ID) (*domainreview.Review, error) {
	return s.loadAccessible(ctx, user, id)
}

func (s *serviceImpl) List(ctx context.Context, user common.UserID, page, pageSize int) (*ListResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	reviews, total, err := s.reviews.ListByUser(ctx, user, common.Pagination{Page: page, PageSize: pageSize})
	if err != nil {
		return nil, err
	}
	return &ListResult{Reviews: reviews, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *serviceImpl) Update(ctx context.Context, input *UpdateInput) (*domainreview.Review, error) {
	rv, err := s.loadAccessible(ctx, input.User, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.New(apperrors.ErrCodeValidation, "name must not be empty")
		}
		rv.Name = *input.Name
	}
	if input.Description != nil {
		rv.Description = *input.Description
	}
	if input.Collaborators != nil {
		// collaborator changes are owner-only
		if rv.Owner != input.User {
			return nil, apperrors.New(apperrors.ErrCodeForbidden, "only the owner can change collaborators")
		}
		rv.Collaborators = input.Collaborators
	}

	if err := s.reviews.Update(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *serviceImpl) Delete(ctx context.Context, user common.UserID, id common.ID) error {
	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rv.Owner != user {
		return apperrors.New(apperrors.ErrCodeForbidden, "only the owner can delete a review")
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx, id)
	return nil
}

func (s *serviceImpl) Results(ctx context.Context, user common.UserID, reviewID common.ID, page, pageLength int, queryID common.ID) (*domainreview.ResultPage, error) {
	if _, err := s.loadAccessible(ctx, user, reviewID); err != nil {
		return nil, err
	}
	if page > 0 && pageLength <= 0 {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "page_length must be positive when page is given")
	}

	if queryID != "" {
		session, err := s.reviews.GetQuerySession(ctx, reviewID, queryID)
		if err != nil {
			return nil, err
		}
		return s.results.GetPageForSession(ctx, reviewID, session.Results, page, pageLength)
	}
	return s.results.GetPageForReview(ctx, reviewID, page, pageLength)
}

func (s *serviceImpl) DeleteResults(ctx context.Context, user common.UserID, reviewID common.ID, dois []string) (int64, error) {
	if _, err := s.loadAccessible(ctx, user, reviewID); err != nil {
		return 0, err
	}
	if len(dois) == 0 {
		return 0, apperrors.New(apperrors.ErrCodeBadRequest, "no DOIs given")
	}

	deleted, err := s.results.DeleteByDOIs(ctx, reviewID, dois)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.invalidateCache(ctx, reviewID)
	}
	return deleted, nil
}

func (s *serviceImpl) UpdateScore(ctx context.Context, user common.UserID, reviewID common.ID, doi string, score int, comment string) (*search.Record, error) {
	if _, err := s.loadAccessible(ctx, user, reviewID); err != nil {
		return nil, err
	}
	if doi == "" {
		return nil, apperrors.New(apperrors.ErrCodeResultMissingDOI, "doi is required")
	}
	if user == "" {
		return nil, apperrors.New(apperrors.ErrCodeScoreInvalid, "evaluator is required")
	}

	eval := search.Score{User: string(user), Score: score, Comment: comment}
	return s.results.UpdateScore(ctx, reviewID, doi, eval)
}

// loadAccessible loads the review and enforces the owner-or-collaborator
// access rule.
func (s *serviceImpl) loadAccessible(ctx context.Context, user common.UserID, id common.ID) (*domainreview.Review, error) {
	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rv.CanAccess(user) {
		return nil, apperrors.New(apperrors.ErrCodeForbidden, "no access to review")
	}
	return rv, nil
}

// invalidateCache drops the persisted-DOI set after destructive operations.
// Best effort; the cache repopulates from the store on the next read.
func (s *serviceImpl) invalidateCache(ctx context.Context, reviewID common.ID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateReview(ctx, reviewID); err != nil {
		s.logger.Warn("persisted-DOI cache invalidation failed", logging.Err(err))
	}
}
