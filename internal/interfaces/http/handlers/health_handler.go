package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
)

// DependencyChecker reports the health of one backing service.
type DependencyChecker func(ctx context.Context) error

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checks map[string]DependencyChecker
	logger logging.Logger
}

// NewHealthHandler constructs the handler with named dependency checks.
func NewHealthHandler(checks map[string]DependencyChecker, log logging.Logger) *HealthHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &HealthHandler{checks: checks, logger: log.Named("health")}
}

// Liveness handles GET /healthz: the process is up.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz: every dependency answers.
func (h *HealthHandler) Readiness(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			h.logger.Warn("dependency unhealthy",
				logging.String("dependency", name), logging.Err(err))
			deps[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	c.JSON(status, gin.H{"status": statusWord(status), "dependencies": deps})
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
