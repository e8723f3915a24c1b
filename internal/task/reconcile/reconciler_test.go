package reconcile

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"dokflyt/internal/archive"
	archivemocks "dokflyt/internal/archive/mocks"
	"dokflyt/internal/events"
	"dokflyt/internal/journalpost"
	"dokflyt/internal/metadata"
	"dokflyt/internal/returnlog"
	"dokflyt/internal/task"
	taskmocks "dokflyt/internal/task/mocks"
	dErrors "dokflyt/pkg/domain-errors"
	"dokflyt/pkg/platform/retry"
	"dokflyt/pkg/platform/sentinel"
)

var fast = retry.Policy{Attempts: 3, BaseDelay: time.Microsecond, Multiplier: 2, MaxDelay: 10 * time.Microsecond}

type fixture struct {
	reader     *archivemocks.MockReader
	writer     *archivemocks.MockWriter
	tasks      *taskmocks.MockStore
	reconciler *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		reader: archivemocks.NewMockReader(ctrl),
		writer: archivemocks.NewMockWriter(ctrl),
		tasks:  taskmocks.NewMockStore(ctrl),
	}
	f.reconciler = NewReconciler(f.reader, f.writer, f.tasks, metadata.NewCodec(100), nil, nil, slog.Default(), fast)
	return f
}

func returnTask() *task.Task {
	return &task.Task{
		ID:            "oppg-1",
		Kind:          task.KindReturn,
		Status:        task.StatusOpen,
		Theme:         "BID",
		CaseID:        "sak-1",
		JournalpostID: "453857122",
		Description:   "Returpost",
		Version:       3,
	}
}

func dispatchedWithReturn(returnCount int) *journalpost.Journalpost {
	return &journalpost.Journalpost{
		ID:          "453857122",
		Status:      journalpost.StatusDispatched,
		Type:        journalpost.TypeOutgoing,
		Channel:     journalpost.ChannelCentralPrint,
		Theme:       "BID",
		Case:        &journalpost.Case{ID: "sak-1", Theme: "BID"},
		ReturnCount: returnCount,
		Dates: []journalpost.RelevantDate{
			{Type: journalpost.DateDocument, Date: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
			{Type: journalpost.DateReturn, Date: time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func evt() events.TaskCreated {
	return events.TaskCreated{TaskID: "oppg-1", Kind: task.KindReturn, Theme: "BID", JournalpostID: "453857122"}
}

func TestReconcileRetriesUntilReturnMarkerVisible(t *testing.T) {
	f := newFixture(t)
	f.tasks.EXPECT().Get(gomock.Any(), "oppg-1").Return(returnTask(), nil)

	// First read races the return marker; second read sees it.
	f.reader.EXPECT().Get(gomock.Any(), "453857122").Return(dispatchedWithReturn(0), nil)
	f.reader.EXPECT().Get(gomock.Any(), "453857122").Return(dispatchedWithReturn(1), nil)

	f.writer.EXPECT().Update(gomock.Any(), "453857122", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, patch archive.Patch) error {
			log, err := returnlog.Load(metadata.NewCodec(100), patch.Metadata)
			require.NoError(t, err)
			entries := log.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, "Automatisk registrert: returpost mottatt", entries[0].Description)
			assert.Equal(t, time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC), entries[0].Date)
			assert.False(t, entries[0].Locked)
			return nil
		})

	require.NoError(t, f.reconciler.OnTaskCreated(context.Background(), evt()))
}

func TestReconcileDropsAfterRetriesExhausted(t *testing.T) {
	f := newFixture(t)
	f.tasks.EXPECT().Get(gomock.Any(), "oppg-1").Return(returnTask(), nil)
	f.reader.EXPECT().Get(gomock.Any(), "453857122").Return(dispatchedWithReturn(0), nil).Times(3)

	// Exhaustion drops the event instead of forcing redelivery.
	require.NoError(t, f.reconciler.OnTaskCreated(context.Background(), evt()))
}

func TestReconcileIsIdempotentWhenEntryExists(t *testing.T) {
	f := newFixture(t)
	jp := dispatchedWithReturn(1)

	codec := metadata.NewCodec(100)
	log, err := returnlog.Load(codec, jp.Metadata)
	require.NoError(t, err)
	log.Append("Automatisk registrert: returpost mottatt", time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC), false)
	jp.Metadata, err = log.Apply(jp.Metadata)
	require.NoError(t, err)

	f.tasks.EXPECT().Get(gomock.Any(), "oppg-1").Return(returnTask(), nil)
	f.reader.EXPECT().Get(gomock.Any(), "453857122").Return(jp, nil)
	// No Update expected.

	require.NoError(t, f.reconciler.OnTaskCreated(context.Background(), evt()))
}

func TestReconcileDigitalChannelDescription(t *testing.T) {
	f := newFixture(t)
	jp := dispatchedWithReturn(1)
	jp.Channel = journalpost.ChannelDigitalMailbox

	f.tasks.EXPECT().Get(gomock.Any(), "oppg-1").Return(returnTask(), nil)
	f.reader.EXPECT().Get(gomock.Any(), "453857122").Return(jp, nil)
	f.writer.EXPECT().Update(gomock.Any(), "453857122", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, patch archive.Patch) error {
			log, err := returnlog.Load(metadata.NewCodec(100), patch.Metadata)
			require.NoError(t, err)
			entries := log.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, "Automatisk registrert: digital distribusjon feilet", entries[0].Description)
			return nil
		})

	require.NoError(t, f.reconciler.OnTaskCreated(context.Background(), evt()))
}

func TestReconcileUpdatesDivergedCaseReference(t *testing.T) {
	f := newFixture(t)
	jp := dispatchedWithReturn(1)
	jp.Case = &journalpost.Case{ID: "sak-9", Theme: "BID"}

	f.tasks.EXPECT().Get(gomock.Any(), "oppg-1").Return(returnTask(), nil)
	f.reader.EXPECT().Get(gomock.Any(), "453857122").Return(jp, nil)
	f.writer.EXPECT().Update(gomock.Any(), "453857122", gomock.Any()).Return(nil)
	f.tasks.EXPECT().Patch(gomock.Any(), "oppg-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, patch task.Patch) error {
			assert.Equal(t, 3, patch.Version)
			require.NotNil(t, patch.CaseID)
			assert.Equal(t, "sak-9", *patch.CaseID)
			require.NotNil(t, patch.Description)
			assert.Contains(t, *patch.Description, "Saksreferanse oppdatert fra sak-1 til sak-9")
			return nil
		})

	require.NoError(t, f.reconciler.OnTaskCreated(context.Background(), evt()))
}

func TestReconcileSkipsCasePatchWhenReferencesMatch(t *testing.T) {
	f := newFixture(t)
	jp := dispatchedWithReturn(1)
	jp.Metadata = mustApplyEntry(t, jp)

	f.tasks.EXPECT().Get(gomock.Any(), "oppg-1").Return(returnTask(), nil)
	f.reader.EXPECT().Get(gomock.Any(), "453857122").Return(jp, nil)
	// Task already points at sak-1; no Patch expected.

	require.NoError(t, f.reconciler.OnTaskCreated(context.Background(), evt()))
}

func TestReconcileRetriesCasePatchOnVersionConflict(t *testing.T) {
	f := newFixture(t)
	jp := dispatchedWithReturn(1)
	jp.Case = &journalpost.Case{ID: "sak-9", Theme: "BID"}
	jp.Metadata = mustApplyEntry(t, jp)

	f.tasks.EXPECT().Get(gomock.Any(), "oppg-1").Return(returnTask(), nil)
	f.reader.EXPECT().Get(gomock.Any(), "453857122").Return(jp, nil)

	f.tasks.EXPECT().Patch(gomock.Any(), "oppg-1", gomock.Any()).Return(sentinel.ErrVersionConflict)
	refreshed := returnTask()
	refreshed.Version = 7
	f.tasks.EXPECT().Get(gomock.Any(), "oppg-1").Return(refreshed, nil)
	f.tasks.EXPECT().Patch(gomock.Any(), "oppg-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, patch task.Patch) error {
			assert.Equal(t, 7, patch.Version)
			return nil
		})

	require.NoError(t, f.reconciler.OnTaskCreated(context.Background(), evt()))
}

func TestReconcileCasePatchFailureDoesNotPropagate(t *testing.T) {
	f := newFixture(t)
	jp := dispatchedWithReturn(1)
	jp.Case = &journalpost.Case{ID: "sak-9", Theme: "BID"}
	jp.Metadata = mustApplyEntry(t, jp)

	f.tasks.EXPECT().Get(gomock.Any(), "oppg-1").Return(returnTask(), nil)
	f.reader.EXPECT().Get(gomock.Any(), "453857122").Return(jp, nil)
	f.tasks.EXPECT().Patch(gomock.Any(), "oppg-1", gomock.Any()).
		Return(dErrors.New(dErrors.CodeDownstream, "oppgave unavailable"))

	require.NoError(t, f.reconciler.OnTaskCreated(context.Background(), evt()))
}

func TestReconcilePropagatesArchiveFailure(t *testing.T) {
	f := newFixture(t)
	f.tasks.EXPECT().Get(gomock.Any(), "oppg-1").Return(returnTask(), nil)
	f.reader.EXPECT().Get(gomock.Any(), "453857122").
		Return(nil, dErrors.New(dErrors.CodeDownstream, "archive unavailable"))

	err := f.reconciler.OnTaskCreated(context.Background(), evt())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDownstream))
}

// mustApplyEntry pre-populates the journalpost's return log with the entry
// for its current cycle so only the case sync is in play.
func mustApplyEntry(t *testing.T, jp *journalpost.Journalpost) metadata.Pairs {
	t.Helper()
	codec := metadata.NewCodec(100)
	log, err := returnlog.Load(codec, jp.Metadata)
	require.NoError(t, err)
	log.Append("Automatisk registrert: returpost mottatt", time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC), false)
	pairs, err := log.Apply(jp.Metadata)
	require.NoError(t, err)
	return pairs
}
