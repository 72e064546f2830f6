// Package kafka publishes ingestion events emitted after result records are
// persisted to a review's collection.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/LitFed/internal/application/federation"
	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// TopicResultsPersisted carries one event per persisted record chunk.
const TopicResultsPersisted = "litfed.results.persisted"

// ResultsPersistedEvent is the wire payload of a persistence event.
type ResultsPersistedEvent struct {
	ReviewID  common.ID `json:"review_id"`
	SessionID common.ID `json:"session_id"`
	DOIs      []string  `json:"dois"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// messageWriter abstracts kafka.Writer for testing.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits domain events to Kafka.  It satisfies
// federation.EventPublisher; the orchestrator treats publish failures as
// non-fatal.
type Publisher struct {
	writer messageWriter
	logger logging.Logger
	closed atomic.Bool
	sent   atomic.Int64
	failed atomic.Int64
}

var _ federation.EventPublisher = (*Publisher)(nil)

// NewPublisher builds a Publisher from the Kafka configuration.  Returns nil
// when Kafka is disabled so callers can wire the publisher unconditionally.
func NewPublisher(cfg config.KafkaConfig, log logging.Logger) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "kafka brokers required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  retries + 1,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		WriteTimeout: timeout,
		ReadTimeout:  timeout,
		RequiredAcks: kafka.RequireOne,
	}

	log.Info("Kafka publisher ready", logging.String("topic", TopicResultsPersisted))
	return &Publisher{writer: writer, logger: log.Named("kafka")}, nil
}

// ResultsPersisted emits one event for a persisted DOI chunk.  Messages are
// keyed by review so a review's events stay ordered within a partition.
func (p *Publisher) ResultsPersisted(ctx context.Context, reviewID, sessionID common.ID, dois []string) error {
	if p == nil {
		return nil
	}
	if p.closed.Load() {
		return apperrors.New(apperrors.ErrCodeInternal, "publisher closed")
	}

	event := ResultsPersistedEvent{
		ReviewID:  reviewID,
		SessionID: sessionID,
		DOIs:      dois,
		Count:     len(dois),
		Timestamp: time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode event")
	}

	msg := kafka.Message{
		Topic: TopicResultsPersisted,
		Key:   []byte(reviewID),
		Value: value,
		Time:  event.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to publish event")
	}

	p.sent.Add(1)
	p.logger.Debug("published results-persisted event",
		logging.String("review", string(reviewID)),
		logging.Int("dois", len(dois)),
	)
	return nil
}

// Close flushes and closes the underlying writer.  Safe to call more than
// once and on a nil publisher.
func (p *Publisher) Close() error {
	if p == nil || !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka publisher closed", logging.Int64("sent", p.sent.Load()))
	return err
}
