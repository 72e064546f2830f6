package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LitFed/internal/interfaces/http/handlers"
	"github.com/turtacn/LitFed/internal/interfaces/http/middleware"
)

func testRouter() http.Handler {
	authCfg := config.AuthConfig{Enabled: true, Tokens: map[string]string{"tok": "alice"}}
	return NewRouter(RouterConfig{
		HealthHandler: handlers.NewHealthHandler(nil, logging.NewNopLogger()),
		// auth aborts before the handler runs, so a service-less handler is
		// enough to mount the route tree
		ReviewHandler: handlers.NewReviewHandler(nil, logging.NewNopLogger()),
		Auth: middleware.NewAuthMiddleware(authCfg,
			middleware.NewStaticTokenVerifier(authCfg), logging.NewNopLogger()),
		Server: config.ServerConfig{Mode: "test"},
		Logger: logging.NewNopLogger(),
	})
}

func TestHealthEndpointsArePublic(t *testing.T) {
	r := testRouter()

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	r := testRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/reviews", nil))
	// 404 would mean the group is not mounted; 401 proves the auth gate.
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	r := testRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
