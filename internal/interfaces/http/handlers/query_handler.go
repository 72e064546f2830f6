package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LitFed/internal/application/federation"
	"github.com/turtacn/LitFed/internal/domain/search"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// EnvelopeCache caches dry-query responses keyed by query and pagination.
// The Redis implementation lives in infrastructure/database/redis.
type EnvelopeCache interface {
	Fetch(ctx context.Context, q *search.Query, page int, pageLength federation.PageLength, load func(context.Context) ([]*search.Envelope, error)) ([]*search.Envelope, error)
}

// QueryHandler serves the federated query and persistence endpoints.
type QueryHandler struct {
	federation federation.Service
	cache      EnvelopeCache
	logger     logging.Logger
}

// NewQueryHandler constructs the handler.
func NewQueryHandler(fed federation.Service, log logging.Logger) *QueryHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &QueryHandler{federation: fed, logger: log.Named("query_handler")}
}

// WithEnvelopeCache enables response caching for DryQuery.  Persisting
// endpoints never read the cache.
func (h *QueryHandler) WithEnvelopeCache(cache EnvelopeCache) *QueryHandler {
	h.cache = cache
	return h
}

// DryQuery handles POST /dry_query?page&page_length&review_id.
// The body is the canonical query; the response is one envelope per
// provider.  With review_id given, records carry persisted markers.
func (h *QueryHandler) DryQuery(c *gin.Context) {
	q := &search.Query{}
	if err := c.ShouldBindJSON(q); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid query body"))
		return
	}
	if err := q.Validate(); err != nil {
		respondError(c, err)
		return
	}

	page, err := queryInt(c, "page", 1)
	if err != nil {
		respondError(c, err)
		return
	}
	pageLength, err := queryPageLength(c, federation.Len(0))
	if err != nil {
		respondError(c, err)
		return
	}

	load := func(ctx context.Context) ([]*search.Envelope, error) {
		return h.federation.ConductQuery(ctx, q, page, pageLength)
	}
	var envelopes []*search.Envelope
	if h.cache != nil {
		envelopes, err = h.cache.Fetch(c.Request.Context(), q, page, pageLength, load)
	} else {
		envelopes, err = load(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if reviewID := c.Query("review_id"); reviewID != "" {
		if err := h.federation.MarkPersisted(c.Request.Context(), envelopes, common.ID(reviewID)); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": envelopes})
}

// newQueryRequest is the body of POST /review/:review_id/query.
type newQueryRequest struct {
	Search     *search.Query `json:"search" binding:"required"`
	MaxRecords int           `json:"max_records"`
}

// NewQuery handles POST /review/:review_id/query: registers a query session
// and, when max_records is given, runs the persisting page loop.
func (h *QueryHandler) NewQuery(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	reviewID := common.ID(c.Param("review_id"))

	req := newQueryRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	session, err := h.federation.CreateQuerySession(c.Request.Context(), reviewID, req.Search)
	if err != nil {
		respondError(c, err)
		return
	}

	persisted := 0
	if req.MaxRecords > 0 {
		persisted, err = h.federation.PersistentQuery(c.Request.Context(), reviewID, session, req.MaxRecords)
		if err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, gin.H{
		"query_id":      session.ID,
		"num_persisted": persisted,
	})
}

// persistPagesRequest is the body of POST /persist/:review_id.
type persistPagesRequest struct {
	Search     *search.Query         `json:"search" binding:"required"`
	Pages      []int                 `json:"pages" binding:"required"`
	PageLength federation.PageLength `json:"page_length"`
}

// PersistPages handles POST /persist/:review_id.
func (h *QueryHandler) PersistPages(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	reviewID := common.ID(c.Param("review_id"))

	req := persistPagesRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Pages) == 0 {
		respondError(c, apperrors.New(apperrors.ErrCodeBadRequest, "no pages given"))
		return
	}

	outcome, err := h.federation.PersistPages(c.Request.Context(), reviewID, req.Search, req.Pages, req.PageLength)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// persistListRequest is the body of POST /persist/:review_id/list.
type persistListRequest struct {
	Search  *search.Query   `json:"search" binding:"required"`
	Results []search.Record `json:"results" binding:"required"`
}

// PersistList handles POST /persist/:review_id/list.
func (h *QueryHandler) PersistList(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	reviewID := common.ID(c.Param("review_id"))

	req := persistListRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Results) == 0 {
		respondError(c, apperrors.New(apperrors.ErrCodeBadRequest, "no results given"))
		return
	}

	outcome, err := h.federation.PersistList(c.Request.Context(), reviewID, req.Search, req.Results)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
