package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"dokflyt/internal/journalpost"
	"dokflyt/internal/task"
	dErrors "dokflyt/pkg/domain-errors"
)

// TaskEventHandler reconciles a newly created return task against the
// journalpost's return state.
type TaskEventHandler interface {
	OnTaskCreated(ctx context.Context, evt TaskCreated) error
}

// ConsumerConfig names the topics and tuning for the consumer loop.
type ConsumerConfig struct {
	TopicTaskCreated       string
	TopicJournalRegistered string

	// Themes is the in-scope theme set; events outside it are skipped.
	Themes []string

	// Workers bounds concurrent partition handlers.
	Workers int

	// MaxRedeliveries caps redelivery of a failing record; zero means
	// unbounded (production).
	MaxRedeliveries int
}

// Consumer pulls task and journal-registration events from the partitioned
// queue. Offsets commit only after the handler returns, so every handler must
// be idempotent. Records within a partition are processed in order; a
// transient failure stops the partition so the record is redelivered.
type Consumer struct {
	client    *kgo.Client
	inbox     Inbox
	tasks     TaskEventHandler
	publisher Publisher
	logger    *slog.Logger

	cfg    ConsumerConfig
	themes map[string]bool
}

// NewConsumer wires the consumer loop.
func NewConsumer(client *kgo.Client, inbox Inbox, tasks TaskEventHandler, publisher Publisher, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	themes := make(map[string]bool, len(cfg.Themes))
	for _, t := range cfg.Themes {
		themes[t] = true
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Consumer{
		client:    client,
		inbox:     inbox,
		tasks:     tasks,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		themes:    themes,
	}
}

// Run polls until the context is cancelled or the client closes.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "fetch error", "topic", topic, "partition", partition, "error", err.Error())
		})

		var mu sync.Mutex
		var handled []*kgo.Record

		g := &errgroup.Group{}
		g.SetLimit(c.cfg.Workers)
		fetches.EachPartition(func(ftp kgo.FetchTopicPartition) {
			records := ftp.Records
			g.Go(func() error {
				for _, rec := range records {
					if !c.handle(ctx, rec) {
						// Leave the rest of the partition uncommitted so the
						// record is redelivered in order.
						break
					}
					mu.Lock()
					handled = append(handled, rec)
					mu.Unlock()
				}
				return nil
			})
		})
		_ = g.Wait()

		if len(handled) > 0 {
			if err := c.client.CommitRecords(ctx, handled...); err != nil {
				c.logger.ErrorContext(ctx, "commit failed", "error", err.Error())
			}
		}
		c.client.AllowRebalance()
	}
}

// handle processes one record and reports whether the partition may advance
// past it.
func (c *Consumer) handle(ctx context.Context, rec *kgo.Record) bool {
	key := recordKey(rec)

	seen, err := c.inbox.Seen(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "inbox lookup failed, processing anyway", "record", key, "error", err.Error())
	}
	if seen {
		return true
	}

	err = c.dispatch(ctx, rec)
	if err == nil {
		c.markSeen(ctx, key)
		return true
	}

	if !redeliverable(err) {
		// Poison record: redelivery cannot fix a validation or not-found
		// failure, so drop it instead of looping.
		c.logger.ErrorContext(ctx, "dropping non-redeliverable record",
			"record", key, "topic", rec.Topic, "error", err.Error())
		c.markSeen(ctx, key)
		return true
	}

	attempts, attErr := c.inbox.Attempts(ctx, key)
	if attErr != nil {
		c.logger.WarnContext(ctx, "attempt counter failed", "record", key, "error", attErr.Error())
	}
	if c.cfg.MaxRedeliveries > 0 && attempts > c.cfg.MaxRedeliveries {
		c.logger.ErrorContext(ctx, "redelivery cap reached, dropping record",
			"record", key, "attempts", attempts, "error", err.Error())
		c.markSeen(ctx, key)
		return true
	}

	c.logger.WarnContext(ctx, "record failed, leaving for redelivery",
		"record", key, "attempts", attempts, "error", err.Error())
	return false
}

func (c *Consumer) dispatch(ctx context.Context, rec *kgo.Record) error {
	switch rec.Topic {
	case c.cfg.TopicTaskCreated:
		var evt TaskCreated
		if err := json.Unmarshal(rec.Value, &evt); err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed task-created event")
		}
		if evt.Kind != task.KindReturn || !c.themes[evt.Theme] {
			return nil
		}
		return c.tasks.OnTaskCreated(ctx, evt)

	case c.cfg.TopicJournalRegistered:
		var evt JournalRegistered
		if err := json.Unmarshal(rec.Value, &evt); err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed journal-registered event")
		}
		if !c.themes[evt.Theme] || evt.Channel == journalpost.ChannelEESSI {
			return nil
		}
		return c.publisher.JournalpostUpdated(ctx, evt.JournalpostID)

	default:
		c.logger.WarnContext(ctx, "record on unexpected topic", "topic", rec.Topic)
		return nil
	}
}

func (c *Consumer) markSeen(ctx context.Context, key string) {
	if err := c.inbox.MarkSeen(ctx, key); err != nil {
		c.logger.WarnContext(ctx, "inbox mark failed", "record", key, "error", err.Error())
	}
}

// redeliverable reports whether consumer-level redelivery can help. The
// excluded codes are non-transient by construction.
func redeliverable(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeNotFound, dErrors.CodeConflict:
		return false
	}
	return true
}

func recordKey(rec *kgo.Record) string {
	return fmt.Sprintf("%s/%d/%d", rec.Topic, rec.Partition, rec.Offset)
}
