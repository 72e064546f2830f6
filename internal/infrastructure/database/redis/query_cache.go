package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/LitFed/internal/application/federation"
	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/domain/search"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

const (
	querySuffix     = "query:"
	defaultQueryTTL = time.Minute
)

// QueryCache caches federated dry-query responses keyed by the canonical
// query and its pagination.  Provider calls are the expensive path, so even
// a short TTL absorbs the repeated identical queries a user fires while
// refining a search.  The cache is best-effort: any Redis failure falls
// through to the live fan-out.
type QueryCache struct {
	client *Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
	group  singleflight.Group
}

// NewQueryCache constructs the cache from the Redis configuration.
func NewQueryCache(client *Client, cfg config.RedisConfig, log logging.Logger) *QueryCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ttl := cfg.QueryTTL
	if ttl <= 0 {
		ttl = defaultQueryTTL
	}
	return &QueryCache{
		client: client,
		prefix: prefix + querySuffix,
		ttl:    ttl,
		logger: log.Named("query_cache"),
	}
}

func (c *QueryCache) key(q *search.Query, page int, pageLength federation.PageLength) (string, error) {
	payload, err := json.Marshal(struct {
		Query      *search.Query         `json:"q"`
		Page       int                   `json:"p"`
		PageLength federation.PageLength `json:"l"`
	}{q, page, pageLength})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to build query cache key")
	}
	sum := sha256.Sum256(payload)
	return c.prefix + hex.EncodeToString(sum[:]), nil
}

// Fetch returns the cached envelopes for the query, calling load and storing
// the result on a miss.  Concurrent misses for the same key are collapsed
// into a single upstream fan-out; each caller still receives its own copy
// because persisted-marking mutates records downstream.
func (c *QueryCache) Fetch(ctx context.Context, q *search.Query, page int, pageLength federation.PageLength, load func(context.Context) ([]*search.Envelope, error)) ([]*search.Envelope, error) {
	key, err := c.key(q, page, pageLength)
	if err != nil {
		c.logger.Warn("query cache bypassed", logging.Err(err))
		return load(ctx)
	}

	raw, err := c.client.Underlying().Get(ctx, key).Bytes()
	if err == nil {
		envelopes, derr := decodeEnvelopes(raw)
		if derr == nil {
			return envelopes, nil
		}
		c.logger.Warn("dropping undecodable query cache entry", logging.Err(derr))
		c.client.Underlying().Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("query cache read failed", logging.Err(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		envelopes, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(envelopes)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to encode envelopes")
		}
		if setErr := c.client.Underlying().Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn("query cache write failed", logging.Err(setErr))
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return decodeEnvelopes(v.([]byte))
}

func decodeEnvelopes(raw []byte) ([]*search.Envelope, error) {
	var envelopes []*search.Envelope
	if err := json.Unmarshal(raw, &envelopes); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to decode cached envelopes")
	}
	return envelopes, nil
}
