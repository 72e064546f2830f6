// Package handlers implements the gin HTTP handlers of the API surface.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LitFed/internal/application/federation"
	"github.com/turtacn/LitFed/internal/interfaces/http/middleware"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// errorBody is the uniform error payload.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError writes the error with the status its code maps to.  Unknown
// error types become 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(apperrors.HTTPStatusForCode(appErr.Code), gin.H{"error": errorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Detail:  appErr.Detail,
		}})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": errorBody{
		Code:    string(apperrors.ErrCodeInternal),
		Message: apperrors.DefaultMessageForCode(apperrors.ErrCodeInternal),
	}})
}

// currentUser returns the authenticated user or writes a 401.
func currentUser(c *gin.Context) (common.UserID, bool) {
	user := middleware.CurrentUser(c)
	if user == "" {
		respondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "no user in request"))
		return "", false
	}
	return user, true
}

// queryInt parses an integer query parameter with a default.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.Newf(apperrors.ErrCodeBadRequest, "%s must be an integer", name)
	}
	return n, nil
}

// queryPageLength parses the page_length parameter, which is a number or
// "max".
func queryPageLength(c *gin.Context, def federation.PageLength) (federation.PageLength, error) {
	v := c.Query("page_length")
	if v == "" {
		return def, nil
	}
	if v == "max" {
		return federation.MaxLen(), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return federation.PageLength{}, apperrors.New(apperrors.ErrCodeBadRequest, `page_length must be a number or "max"`)
	}
	return federation.Len(n), nil
}
