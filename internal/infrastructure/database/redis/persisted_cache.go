package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/LitFed/internal/application/federation"
	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

const (
	defaultKeyPrefix = "litfed:"
	persistedSuffix  = "persisted:"
	defaultTTL       = 15 * time.Minute
)

// PersistedDOICache caches the per-review persisted-DOI set as a Redis set so
// that persisted-marking does not hit PostgreSQL on every federated query.
// The cache is best-effort: a miss or error falls back to the repository.
type PersistedDOICache struct {
	client *Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
}

// NewPersistedDOICache constructs the cache from the Redis configuration.
func NewPersistedDOICache(client *Client, cfg config.RedisConfig, log logging.Logger) *PersistedDOICache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &PersistedDOICache{
		client: client,
		prefix: prefix + persistedSuffix,
		ttl:    ttl,
		logger: log.Named("persisted_cache"),
	}
}

var _ federation.PersistedCache = (*PersistedDOICache)(nil)

func (c *PersistedDOICache) key(reviewID common.ID) string {
	return c.prefix + string(reviewID)
}

// GetPersistedDOIs returns the cached DOI set for a review.  The second
// return value reports whether the set was present at all; an absent key is
// a miss, not an empty set.
func (c *PersistedDOICache) GetPersistedDOIs(ctx context.Context, reviewID common.ID) (map[string]struct{}, bool, error) {
	key := c.key(reviewID)
	exists, err := c.client.Underlying().Exists(ctx, key).Result()
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to probe persisted-DOI set")
	}
	if exists == 0 {
		return nil, false, nil
	}

	members, err := c.client.Underlying().SMembers(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to read persisted-DOI set")
	}

	dois := make(map[string]struct{}, len(members))
	for _, m := range members {
		// sentinel keeps an empty review's set representable in Redis
		if m == emptyMarker {
			continue
		}
		dois[m] = struct{}{}
	}
	return dois, true, nil
}

// emptyMarker makes an empty DOI set storable; Redis drops empty sets.
const emptyMarker = "\x00empty"

// SetPersistedDOIs replaces the cached set for a review.
func (c *PersistedDOICache) SetPersistedDOIs(ctx context.Context, reviewID common.ID, dois map[string]struct{}) error {
	key := c.key(reviewID)

	members := make([]interface{}, 0, len(dois)+1)
	members = append(members, emptyMarker)
	for doi := range dois {
		members = append(members, doi)
	}

	pipe := c.client.Underlying().TxPipeline()
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to store persisted-DOI set")
	}
	return nil
}

// AddPersistedDOIs merges freshly persisted DOIs into an existing cached set.
// If the set is absent the call is a no-op so a stale partial set is never
// created.
func (c *PersistedDOICache) AddPersistedDOIs(ctx context.Context, reviewID common.ID, dois []string) error {
	if len(dois) == 0 {
		return nil
	}
	key := c.key(reviewID)

	exists, err := c.client.Underlying().Exists(ctx, key).Result()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to probe persisted-DOI set")
	}
	if exists == 0 {
		return nil
	}

	members := make([]interface{}, len(dois))
	for i, doi := range dois {
		members[i] = doi
	}
	pipe := c.client.Underlying().TxPipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to extend persisted-DOI set")
	}
	return nil
}

// InvalidateReview drops the cached set, forcing the next read through to
// the repository.  Called on result deletion and review deletion.
func (c *PersistedDOICache) InvalidateReview(ctx context.Context, reviewID common.ID) error {
	if err := c.client.Underlying().Del(ctx, c.key(reviewID)).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to invalidate persisted-DOI set")
	}
	c.logger.Debug("invalidated persisted-DOI cache", logging.String("review", string(reviewID)))
	return nil
}
