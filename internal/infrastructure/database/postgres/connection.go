// Package postgres manages the PostgreSQL connection pool and schema
// migrations for the result store.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

// Connection manages the pgx connection pool.
type Connection struct {
	pool   *pgxpool.Pool
	cfg    config.DatabaseConfig
	logger logging.Logger
	once   sync.Once
}

// NewConnection establishes the connection pool and verifies it with a ping.
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*Connection, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	poolCfg, err := pgxpool.ParseConfig(BuildDSN(cfg))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "invalid database configuration")
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create connection pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "database connection failed")
	}

	log.Info("connected to PostgreSQL",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName),
	)

	return &Connection{pool: pool, cfg: cfg, logger: log}, nil
}

// Pool returns the underlying pgx pool.
func (c *Connection) Pool() *pgxpool.Pool { return c.pool }

// HealthCheck verifies the database connection status.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "database health check failed")
	}
	stat := c.pool.Stat()
	if stat.MaxConns() > 0 {
		usage := float64(stat.AcquiredConns()) / float64(stat.MaxConns())
		if usage > 0.8 {
			c.logger.Warn("high database connection pool usage",
				logging.Int("acquired", int(stat.AcquiredConns())),
				logging.Int("max", int(stat.MaxConns())),
				logging.Float64("usage", usage),
			)
		}
	}
	return nil
}

// Close releases the pool.  Safe to call more than once.
func (c *Connection) Close() {
	c.once.Do(func() {
		c.pool.Close()
		c.logger.Info("closed PostgreSQL connection pool")
	})
}

// BuildDSN constructs the PostgreSQL connection URL from the configuration.
func BuildDSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   cfg.DBName,
	}
	q := u.Query()
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	} else {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
