package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LitFed/pkg/types/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authRouter(cfg config.AuthConfig) (*gin.Engine, *common.UserID) {
	verifier := NewStaticTokenVerifier(cfg)
	mw := NewAuthMiddleware(cfg, verifier, logging.NewNopLogger())

	var seen common.UserID
	r := gin.New()
	r.Use(mw.Handler())
	r.GET("/whoami", func(c *gin.Context) {
		seen = CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"user": seen})
	})
	return r, &seen
}

func TestBearerTokenResolvesUser(t *testing.T) {
	r, seen := authRouter(config.AuthConfig{
		Enabled: true,
		Tokens:  map[string]string{"s3cret": "alice"},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.UserID("alice"), *seen)
}

func TestMissingTokenRejected(t *testing.T) {
	r, _ := authRouter(config.AuthConfig{Enabled: true, Tokens: map[string]string{"s3cret": "alice"}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownTokenRejected(t *testing.T) {
	r, _ := authRouter(config.AuthConfig{Enabled: true, Tokens: map[string]string{"s3cret": "alice"}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDisabledAuthUsesHeaderOrAnonymous(t *testing.T) {
	r, seen := authRouter(config.AuthConfig{Enabled: false})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-User", "bob")
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.UserID("bob"), *seen)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/whoami", nil))
	assert.Equal(t, common.UserID("anonymous"), *seen)
}
