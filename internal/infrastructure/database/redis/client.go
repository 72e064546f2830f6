// Package redis provides the Redis client and the persisted-DOI cache that
// keeps federated persisted-marking off the primary database.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

// Client wraps the go-redis client with lifecycle management.
type Client struct {
	rdb    *redis.Client
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "redis connection failed")
	}

	log.Info("Redis client connected", logging.String("addr", cfg.Addr))
	return &Client{rdb: rdb, logger: log}, nil
}

// Underlying exposes the raw go-redis client.
func (c *Client) Underlying() *redis.Client { return c.rdb }

// Ping verifies the connection status.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return apperrors.New(apperrors.ErrCodeCacheError, "redis client is closed")
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the client.  Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.rdb.Close(); err != nil {
		c.logger.Error("Failed to close Redis client", logging.Err(err))
		return err
	}
	c.logger.Info("Closed Redis client")
	return nil
}
