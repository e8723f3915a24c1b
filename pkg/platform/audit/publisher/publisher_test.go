package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "dokflyt/pkg/platform/audit"
	"dokflyt/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		JournalpostID: "453857122",
		Action:        string(audit.EventDeviationExecuted),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "453857122")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventDeviationExecuted), events[0].Action)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	err := pub.Emit(context.Background(), audit.Event{
		JournalpostID: "453857122",
		Action:        string(audit.EventDocumentWithdrawn),
	})
	require.NoError(t, err)

	pub.Close()

	events, err := store.ListByJournalpost(context.Background(), "453857122")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventDocumentWithdrawn), events[0].Action)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			JournalpostID: "453857122",
			Action:        string(audit.EventReturnRegistered),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByJournalpost(context.Background(), "453857122")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	// Fill the buffer with concurrent writes; some emits may fail with
	// ErrBufferFull but nothing may panic or block.
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.Emit(context.Background(), audit.Event{
				JournalpostID: "453857122",
				Action:        string(audit.EventDistributionOrdered),
			})
		}()
	}
	wg.Wait()
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	before := time.Now()
	err := pub.Emit(context.Background(), audit.Event{
		JournalpostID: "453857122",
		Action:        string(audit.EventThemeChanged),
	})
	require.NoError(t, err)
	after := time.Now()

	events, err := pub.List(context.Background(), "453857122")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	customTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Emit(context.Background(), audit.Event{
		JournalpostID: "453857122",
		Action:        string(audit.EventThemeChanged),
		Timestamp:     customTime,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "453857122")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_DerivesCategoryFromAction(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	cases := map[string]audit.EventCategory{
		string(audit.EventDocumentWithdrawn): audit.CategoryCompliance,
		string(audit.EventCaseMisregistered): audit.CategoryCompliance,
		string(audit.EventTaskReconciled):    audit.CategoryOperations,
		"something_unmapped":                 audit.CategoryOperations,
	}
	for action := range cases {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			JournalpostID: "1",
			Action:        action,
		}))
	}

	events, err := pub.List(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, events, len(cases))
	for _, e := range events {
		assert.Equal(t, cases[e.Action], e.Category, e.Action)
	}
}

func TestPublisher_MultipleJournalposts(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		JournalpostID: "100",
		Action:        string(audit.EventDeviationExecuted),
	}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		JournalpostID: "200",
		Action:        string(audit.EventReturnRegistered),
	}))

	events1, err := pub.List(context.Background(), "100")
	require.NoError(t, err)
	require.Len(t, events1, 1)
	assert.Equal(t, string(audit.EventDeviationExecuted), events1[0].Action)

	events2, err := pub.List(context.Background(), "200")
	require.NoError(t, err)
	require.Len(t, events2, 1)
	assert.Equal(t, string(audit.EventReturnRegistered), events2[0].Action)
}
