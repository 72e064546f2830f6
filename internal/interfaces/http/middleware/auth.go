// Package middleware provides the gin middleware chain: authentication,
// CORS, request logging, and metrics.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// userContextKey is the gin context key carrying the authenticated user.
const userContextKey = "litfed.user"

// TokenVerifier resolves a bearer token to the user it authenticates.
type TokenVerifier interface {
	Verify(token string) (common.UserID, error)
}

// StaticTokenVerifier verifies against the configured token→user map.
// Token issuance and rotation are a deployment concern.
type StaticTokenVerifier struct {
	tokens map[string]common.UserID
}

// NewStaticTokenVerifier builds a verifier from the auth configuration.
func NewStaticTokenVerifier(cfg config.AuthConfig) *StaticTokenVerifier {
	tokens := make(map[string]common.UserID, len(cfg.Tokens))
	for token, user := range cfg.Tokens {
		tokens[token] = common.UserID(user)
	}
	return &StaticTokenVerifier{tokens: tokens}
}

func (v *StaticTokenVerifier) Verify(token string) (common.UserID, error) {
	user, ok := v.tokens[token]
	if !ok {
		return "", apperrors.New(apperrors.ErrCodeUnauthorized, "unknown token")
	}
	return user, nil
}

// AuthMiddleware authenticates requests via Authorization: Bearer tokens.
type AuthMiddleware struct {
	verifier TokenVerifier
	enabled  bool
	logger   logging.Logger
}

// NewAuthMiddleware builds the middleware.  With auth disabled every request
// runs as the user named in the X-User header, or "anonymous".
func NewAuthMiddleware(cfg config.AuthConfig, verifier TokenVerifier, log logging.Logger) *AuthMiddleware {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &AuthMiddleware{verifier: verifier, enabled: cfg.Enabled, logger: log}
}

// Handler is the gin middleware function.
func (m *AuthMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			user := c.GetHeader("X-User")
			if user == "" {
				user = "anonymous"
			}
			c.Set(userContextKey, common.UserID(user))
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": string(apperrors.ErrCodeUnauthorized), "message": "missing bearer token"},
			})
			return
		}

		user, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.Debug("token rejected", logging.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": string(apperrors.ErrCodeUnauthorized), "message": "invalid token"},
			})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user of the request, or "".
func CurrentUser(c *gin.Context) common.UserID {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(common.UserID); ok {
			return user
		}
	}
	return ""
}
