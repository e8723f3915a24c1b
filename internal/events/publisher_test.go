package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	dErrors "dokflyt/pkg/domain-errors"
	"dokflyt/pkg/platform/retry"
)

type fakeProducer struct {
	failures int
	calls    int
	records  []*kgo.Record
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.calls++
	f.records = append(f.records, rs...)
	if f.calls <= f.failures {
		return kgo.ProduceResults{{Err: errors.New("broker unavailable")}}
	}
	return kgo.ProduceResults{{Record: rs[0]}}
}

func testPolicy(attempts int) retry.Policy {
	return retry.Policy{Attempts: attempts, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 4 * time.Millisecond}
}

func TestKafkaPublisherPublishesKeyedRecord(t *testing.T) {
	producer := &fakeProducer{}
	p := newKafkaPublisher(producer, "dokflyt.journalpost-updated", slog.Default())
	p.policy = testPolicy(3)

	err := p.JournalpostUpdated(context.Background(), "453857122")
	require.NoError(t, err)
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "dokflyt.journalpost-updated", rec.Topic)
	assert.Equal(t, "453857122", string(rec.Key))

	var evt JournalpostUpdated
	require.NoError(t, json.Unmarshal(rec.Value, &evt))
	assert.Equal(t, "453857122", evt.JournalpostID)
	assert.False(t, evt.UpdatedAt.IsZero())
}

func TestKafkaPublisherRetriesTransientFailures(t *testing.T) {
	producer := &fakeProducer{failures: 2}
	p := newKafkaPublisher(producer, "dokflyt.journalpost-updated", slog.Default())
	p.policy = testPolicy(5)

	err := p.JournalpostUpdated(context.Background(), "453857122")
	require.NoError(t, err)
	assert.Equal(t, 3, producer.calls)
}

func TestKafkaPublisherExhaustsRetries(t *testing.T) {
	producer := &fakeProducer{failures: 100}
	p := newKafkaPublisher(producer, "dokflyt.journalpost-updated", slog.Default())
	p.policy = testPolicy(4)

	err := p.JournalpostUpdated(context.Background(), "453857122")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDownstream))
	assert.Equal(t, 4, producer.calls)
}

func TestKafkaPublisherStopsOnContextCancel(t *testing.T) {
	producer := &fakeProducer{failures: 100}
	p := newKafkaPublisher(producer, "dokflyt.journalpost-updated", slog.Default())
	p.policy = retry.Policy{Attempts: 10, BaseDelay: time.Hour, Multiplier: 2, MaxDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.JournalpostUpdated(ctx, "453857122") }()
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish did not abort on cancel")
	}
	assert.LessOrEqual(t, producer.calls, 1)
}
