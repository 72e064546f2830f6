package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
)

// RequestLogging logs one structured line per handled request.
func RequestLogging(log logging.Logger) gin.HandlerFunc {
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
			logging.String("client", c.ClientIP()),
		}
		if user := CurrentUser(c); user != "" {
			fields = append(fields, logging.String("user", string(user)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request failed", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request handled", fields...)
		}
	}
}
