package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/LitFed/internal/application/federation"
	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

// messageReader abstracts kafka.Reader for testing.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer keeps the persisted-DOI cache warm across service instances by
// applying results-persisted events to the cache.  An instance that persisted
// records updates its own cache synchronously; the consumer propagates those
// DOIs to every other instance sharing the Redis deployment.
type Consumer struct {
	reader  messageReader
	cache   federation.PersistedCache
	logger  logging.Logger
	closed  atomic.Bool
	applied atomic.Int64
	skipped atomic.Int64
}

// NewConsumer builds a Consumer from the Kafka configuration.  Returns nil
// when Kafka is disabled.
func NewConsumer(cfg config.KafkaConfig, cache federation.PersistedCache, log logging.Logger) (*Consumer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "kafka brokers required")
	}
	if cache == nil {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "persisted cache required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "litfed-cache-warmer"
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        groupID,
		Topic:          TopicResultsPersisted,
		MinBytes:       1,
		MaxBytes:       10 << 20,
		CommitInterval: 0, // explicit commits after the cache write
		MaxWait:        time.Second,
	})

	log.Info("Kafka consumer ready",
		logging.String("topic", TopicResultsPersisted),
		logging.String("group", groupID),
	)
	return &Consumer{reader: reader, cache: cache, logger: log.Named("kafka_consumer")}, nil
}

// Run consumes events until the context is cancelled or the reader is closed.
// Malformed messages are committed and skipped; cache failures leave the
// message uncommitted so it is retried.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to fetch message")
		}

		event := ResultsPersistedEvent{}
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.skipped.Add(1)
			c.logger.Warn("skipping malformed event",
				logging.String("topic", msg.Topic),
				logging.Err(err),
			)
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to commit message")
			}
			continue
		}

		if err := c.cache.AddPersistedDOIs(ctx, event.ReviewID, event.DOIs); err != nil {
			c.logger.Error("failed to apply event to cache",
				logging.String("review", string(event.ReviewID)),
				logging.Err(err),
			)
			return err
		}
		c.applied.Add(1)
		c.logger.Debug("applied results-persisted event",
			logging.String("review", string(event.ReviewID)),
			logging.Int("dois", len(event.DOIs)),
		)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to commit message")
		}
	}
}

// Close stops the reader.  Safe to call more than once and on a nil consumer.
func (c *Consumer) Close() error {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.reader.Close()
	c.logger.Info("Kafka consumer closed", logging.Int64("applied", c.applied.Load()))
	return err
}
