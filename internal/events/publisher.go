package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	dErrors "dokflyt/pkg/domain-errors"
	"dokflyt/pkg/platform/retry"
)

//go:generate mockgen -source=publisher.go -destination=mocks/publisher_mocks.go -package=mocks Publisher

// Publisher broadcasts journalpost changes to downstream consumers.
type Publisher interface {
	JournalpostUpdated(ctx context.Context, journalpostID string) error
}

// syncProducer is the slice of kgo.Client the publisher needs; the seam keeps
// the retry behavior unit-testable.
type syncProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher publishes journalpost-updated events with bounded backoff.
// Exhausting the retry policy surfaces as a hard downstream error.
type KafkaPublisher struct {
	producer syncProducer
	topic    string
	policy   retry.Policy
	logger   *slog.Logger
}

// NewKafkaPublisher wires a publisher onto a producing kafka client.
func NewKafkaPublisher(producer *kgo.Client, topic string, logger *slog.Logger) *KafkaPublisher {
	return newKafkaPublisher(producer, topic, logger)
}

func newKafkaPublisher(producer syncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		policy:   retry.Publish,
		logger:   logger,
	}
}

// JournalpostUpdated publishes one event keyed by the journalpost id.
func (p *KafkaPublisher) JournalpostUpdated(ctx context.Context, journalpostID string) error {
	payload, err := json.Marshal(JournalpostUpdated{
		JournalpostID: journalpostID,
		UpdatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode journalpost-updated event")
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(journalpostID),
		Value: payload,
	}

	attempt := 0
	err = retry.Do(ctx, p.policy, func(ctx context.Context) error {
		attempt++
		if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
			p.logger.WarnContext(ctx, "publish journalpost-updated failed",
				"journalpost_id", journalpostID,
				"attempt", attempt,
				"error", err.Error(),
			)
			return err
		}
		return nil
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDownstream, "publish journalpost-updated exhausted retries")
	}
	return nil
}
