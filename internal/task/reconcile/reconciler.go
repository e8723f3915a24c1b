// Package reconcile aligns newly created return tasks with the journalpost's
// return state. The return marker on the journalpost and the task creation
// arrive through independent systems, so the loop tolerates reading the
// journalpost before the marker is visible.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"dokflyt/internal/archive"
	"dokflyt/internal/events"
	"dokflyt/internal/journalpost"
	"dokflyt/internal/metadata"
	"dokflyt/internal/returnlog"
	"dokflyt/internal/task"
	"dokflyt/internal/task/reconcile/metrics"
	dErrors "dokflyt/pkg/domain-errors"
	audit "dokflyt/pkg/platform/audit"
	"dokflyt/pkg/platform/retry"
	"dokflyt/pkg/platform/sentinel"
)

var tracer = otel.Tracer("dokflyt/internal/task/reconcile")

// Auditor records audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Reconciler implements events.TaskEventHandler for return tasks.
type Reconciler struct {
	reader  archive.Reader
	writer  archive.Writer
	tasks   task.Store
	codec   metadata.Codec
	auditor Auditor
	metrics *metrics.Metrics
	logger  *slog.Logger

	// policy bounds the wait for the return marker to become visible.
	policy retry.Policy
	// patchPolicy bounds the version-conflict retry on the task patch.
	patchPolicy retry.Policy
}

// NewReconciler wires the reconciliation loop. Pass retry.Default as policy
// outside tests.
func NewReconciler(reader archive.Reader, writer archive.Writer, tasks task.Store, codec metadata.Codec, auditor Auditor, m *metrics.Metrics, logger *slog.Logger, policy retry.Policy) *Reconciler {
	return &Reconciler{
		reader:      reader,
		writer:      writer,
		tasks:       tasks,
		codec:       codec,
		auditor:     auditor,
		metrics:     m,
		logger:      logger,
		policy:      policy,
		patchPolicy: policy,
	}
}

// OnTaskCreated reconciles one return task. The return-log step retries while
// the journalpost does not yet show as returned; exhaustion logs and drops
// the event rather than forcing endless redelivery. The case-reference sync
// afterwards is best-effort.
func (r *Reconciler) OnTaskCreated(ctx context.Context, evt events.TaskCreated) error {
	ctx, span := tracer.Start(ctx, "reconcile.OnTaskCreated")
	defer span.End()
	span.SetAttributes(
		attribute.String("task.id", evt.TaskID),
		attribute.String("journalpost.id", evt.JournalpostID),
	)

	t, err := r.tasks.Get(ctx, evt.TaskID)
	if err != nil {
		return err
	}

	var jp *journalpost.Journalpost
	err = retry.DoIf(ctx, r.policy, func(ctx context.Context) error {
		var opErr error
		jp, opErr = r.reconcileReturnLog(ctx, t.JournalpostID)
		return opErr
	}, func(err error) bool {
		if dErrors.HasCode(err, dErrors.CodeRetryable) {
			r.metrics.IncrementRetries()
			return true
		}
		return false
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeRetryable) {
			r.logger.WarnContext(ctx, "return marker never became visible, dropping task event",
				"task_id", t.ID,
				"journalpost_id", t.JournalpostID,
				"error", err.Error(),
			)
			r.metrics.IncrementOutcomes("dropped")
			return nil
		}
		r.metrics.IncrementOutcomes("failed")
		return err
	}

	r.syncCaseReference(ctx, t, jp)

	r.emitAudit(ctx, t, jp)
	r.metrics.IncrementOutcomes("ok")
	return nil
}

// reconcileReturnLog loads the journalpost and appends the missing return-log
// entry for the current return cycle. A journalpost without a return marker
// reads as a transient race: the task exists, so the marker is on its way.
func (r *Reconciler) reconcileReturnLog(ctx context.Context, journalpostID string) (*journalpost.Journalpost, error) {
	jp, err := r.reader.Get(ctx, journalpostID)
	if err != nil {
		return nil, err
	}
	if jp.ReturnCount == 0 {
		return nil, dErrors.New(dErrors.CodeRetryable, "journalpost not yet marked returned")
	}

	log, err := returnlog.Load(r.codec, jp.Metadata)
	if err != nil {
		return nil, err
	}
	if !log.MissingEntryForLatestReturn(jp) {
		return jp, nil
	}

	date, ok := jp.LatestReturnDate()
	if !ok {
		date, _ = jp.Date(journalpost.DateRegistered)
	}
	log.Append(returnlog.SyntheticDescription(jp.Channel), date, false)

	pairs, err := log.Apply(jp.Metadata.Clone())
	if err != nil {
		return nil, err
	}
	if err := r.writer.Update(ctx, jp.ID, archive.Patch{Metadata: pairs}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDownstream, "persist return log")
	}
	jp.Metadata = pairs
	return jp, nil
}

// syncCaseReference moves the task onto the journalpost's case when the two
// diverge. The patch is conditional on the task version and refetches on
// conflict. Failures here are logged, never propagated: the return log is
// already reconciled.
func (r *Reconciler) syncCaseReference(ctx context.Context, t *task.Task, jp *journalpost.Journalpost) {
	if jp.Case == nil || jp.Case.ID == t.CaseID {
		return
	}
	caseID := jp.Case.ID

	current := t
	err := retry.DoIf(ctx, r.patchPolicy, func(ctx context.Context) error {
		description := fmt.Sprintf("%s\nSaksreferanse oppdatert fra %s til %s", current.Description, current.CaseID, caseID)
		patchErr := r.tasks.Patch(ctx, current.ID, task.Patch{
			Version:     current.Version,
			CaseID:      &caseID,
			Description: &description,
		})
		if errors.Is(patchErr, sentinel.ErrVersionConflict) {
			refreshed, getErr := r.tasks.Get(ctx, current.ID)
			if getErr != nil {
				return getErr
			}
			current = refreshed
		}
		return patchErr
	}, func(err error) bool {
		return errors.Is(err, sentinel.ErrVersionConflict)
	})
	if err != nil {
		r.logger.WarnContext(ctx, "task case reference not updated",
			"task_id", t.ID,
			"journalpost_id", jp.ID,
			"case_id", caseID,
			"error", err.Error(),
		)
	}
}

func (r *Reconciler) emitAudit(ctx context.Context, t *task.Task, jp *journalpost.Journalpost) {
	if r.auditor == nil {
		return
	}
	err := r.auditor.Emit(ctx, audit.Event{
		JournalpostID: jp.ID,
		Action:        string(audit.EventTaskReconciled),
		Reason:        "oppgave " + t.ID,
	})
	if err != nil {
		r.logger.WarnContext(ctx, "audit emit failed",
			"journalpost_id", jp.ID,
			"error", err.Error(),
		)
	}
}
