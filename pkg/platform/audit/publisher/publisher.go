// Package publisher delivers audit events to a store, synchronously by
// default or through a buffered background worker.
package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	audit "dokflyt/pkg/platform/audit"
)

// ErrBufferFull is returned in async mode when the buffer cannot accept
// another event. Compliance callers should treat it as a hard failure.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher emits audit events. Zero-option publishers write through to the
// store on the caller's goroutine; WithAsyncBuffer moves persistence to a
// background worker that drains on Close.
type Publisher struct {
	store audit.Store

	inbox  chan audit.Event
	done   chan struct{}
	closed sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given
// buffer capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// NewPublisher creates a publisher over the store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.run()
	}
	return p
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.inbox {
		// Persistence errors in async mode have no caller to report to;
		// the store is responsible for its own logging.
		_ = p.store.Append(context.Background(), event)
	}
}

// Emit records one event. A zero timestamp is stamped with the current time.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// List returns the trail for one journalpost.
func (p *Publisher) List(ctx context.Context, journalpostID string) ([]audit.Event, error) {
	return p.store.ListByJournalpost(ctx, journalpostID)
}

// Close drains the async buffer and stops the worker. Safe to call on a
// sync-mode publisher and safe to call twice.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.inbox == nil {
			close(p.done)
			return
		}
		close(p.inbox)
		<-p.done
	})
}
