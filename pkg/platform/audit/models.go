// Package audit records who did what to which journalpost. Events are
// emitted from the orchestration services and persisted through a Store;
// the trail answers case-handling disputes years later, so compliance
// events must never be lost.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by retention requirement.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance for the case:
	// journalization, misregistration, withdrawal. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity useful for debugging:
	// distribution orders, return registrations, task reconciliation.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category      EventCategory
	Timestamp     time.Time
	JournalpostID string
	Action        string
	// Actor is the caseworker ident from the caller token, or "system" for
	// event-driven flows.
	Actor string
	// Unit is the organizational unit the actor acted for.
	Unit string
	// Reason carries the free-text justification where the flow collects one
	// (deviation descriptions, withdrawal grounds).
	Reason string
	// RequestID is the correlation id from the HTTP request context.
	RequestID string
}

type AuditEvent string

const (
	EventDeviationExecuted    AuditEvent = "avvik_utfoert"
	EventThemeChanged         AuditEvent = "tema_endret"
	EventUnitTransferred      AuditEvent = "enhet_overfoert"
	EventDocumentWithdrawn    AuditEvent = "dokument_trukket"
	EventJournalpostCreated   AuditEvent = "journalpost_opprettet"
	EventJournalpostFinalized AuditEvent = "journalpost_ferdigstilt"
	EventCaseMisregistered    AuditEvent = "sakstilknytning_feilregistrert"
	EventDistributionOrdered  AuditEvent = "distribusjon_bestilt"
	EventReturnRegistered     AuditEvent = "retur_registrert"
	EventTaskReconciled       AuditEvent = "oppgave_rekonsiliert"
)

// eventCategories maps each audit event to its retention category. Unknown
// events default to operations.
var eventCategories = map[AuditEvent]EventCategory{
	EventThemeChanged:         CategoryCompliance,
	EventDocumentWithdrawn:    CategoryCompliance,
	EventJournalpostFinalized: CategoryCompliance,
	EventCaseMisregistered:    CategoryCompliance,

	EventDeviationExecuted:   CategoryOperations,
	EventUnitTransferred:     CategoryOperations,
	EventJournalpostCreated:  CategoryOperations,
	EventDistributionOrdered: CategoryOperations,
	EventReturnRegistered:    CategoryOperations,
	EventTaskReconciled:      CategoryOperations,
}

// Category returns the EventCategory for this audit event.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByJournalpost(ctx context.Context, journalpostID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
