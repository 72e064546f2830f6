package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appreview "github.com/turtacn/LitFed/internal/application/review"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// ReviewHandler serves review CRUD, result paging, result deletion, and
// score evaluation.
type ReviewHandler struct {
	reviews appreview.Service
	logger  logging.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(reviews appreview.Service, log logging.Logger) *ReviewHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ReviewHandler{reviews: reviews, logger: log.Named("review_handler")}
}

// Create handles POST /reviews.
func (h *ReviewHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	input := appreview.CreateInput{}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	input.Owner = user

	rv, err := h.reviews.Create(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

// Get handles GET /reviews/:review_id.
func (h *ReviewHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	rv, err := h.reviews.Get(c.Request.Context(), user, common.ID(c.Param("review_id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rv)
}

// List handles GET /reviews?page&page_size.
func (h *ReviewHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		respondError(c, err)
		return
	}
	pageSize, err := queryInt(c, "page_size", 20)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.reviews.List(c.Request.Context(), user, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Update handles PUT /reviews/:review_id.
func (h *ReviewHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	input := appreview.UpdateInput{}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	input.ID = common.ID(c.Param("review_id"))
	input.User = user

	rv, err := h.reviews.Update(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rv)
}

// Delete handles DELETE /reviews/:review_id.
func (h *ReviewHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.reviews.Delete(c.Request.Context(), user, common.ID(c.Param("review_id"))); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Results handles GET /results/:review_id?page&page_length&query_id.
// Without page the full collection is returned.
func (h *ReviewHandler) Results(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	page, err := queryInt(c, "page", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	pageLength, err := queryInt(c, "page_length", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	resultPage, err := h.reviews.Results(c.Request.Context(), user,
		common.ID(c.Param("review_id")), page, pageLength, common.ID(c.Query("query_id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resultPage)
}

// deleteResultsRequest is the body of DELETE /results/:review_id.
type deleteResultsRequest struct {
	DOIs []string `json:"dois" binding:"required"`
}

// DeleteResults handles DELETE /results/:review_id.
func (h *ReviewHandler) DeleteResults(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	req := deleteResultsRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	deleted, err := h.reviews.DeleteResults(c.Request.Context(), user, common.ID(c.Param("review_id")), req.DOIs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"num_deleted": deleted})
}

// scoreRequest is the body of POST /score/:review_id?doi.
type scoreRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// Score handles POST /score/:review_id?doi.  The evaluator is the
// authenticated user.
func (h *ReviewHandler) Score(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	doi := c.Query("doi")
	if doi == "" {
		respondError(c, apperrors.New(apperrors.ErrCodeBadRequest, "doi query parameter is required"))
		return
	}

	req := scoreRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.reviews.UpdateScore(c.Request.Context(), user, common.ID(c.Param("review_id")), doi, req.Score, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
