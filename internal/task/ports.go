// Package task defines the contract against the external task-tracking
// system (oppgave). The store enforces optimistic concurrency: every patch
// carries the version the caller last read.
package task

import "context"

//go:generate mockgen -source=ports.go -destination=mocks/task_mocks.go -package=mocks

// Kind classifies a task.
type Kind string

const (
	// KindJournalforing is the review task created when a document awaits
	// journalization.
	KindJournalforing Kind = "JFR"

	// KindReturn is created by the task system when a dispatched document
	// bounces back undelivered.
	KindReturn Kind = "RETUR"

	// KindFollowUp is a manual follow-up task routed to a back-office unit.
	KindFollowUp Kind = "FDR"
)

// Status of a task.
type Status string

const (
	StatusOpen Status = "AAPNET"
	StatusDone Status = "FERDIGSTILT"
)

// Task is an external work item.
type Task struct {
	ID            string
	Kind          Kind
	Status        Status
	Theme         string
	CaseID        string
	JournalpostID string
	AssignedUnit  string
	Description   string

	// Version is the optimistic-concurrency token. Patch fails with
	// sentinel.ErrVersionConflict when it no longer matches.
	Version int
}

// NewTask creates a task.
type NewTask struct {
	Kind          Kind
	Theme         string
	CaseID        string
	JournalpostID string
	AssignedUnit  string
	Description   string
}

// Patch is a conditional partial update. Nil fields stay untouched.
type Patch struct {
	Version      int
	CaseID       *string
	Description  *string
	AssignedUnit *string
	Status       *Status
}

// Query filters task searches; zero fields are ignored.
type Query struct {
	JournalpostID string
	CaseID        string
	Theme         string
	Kind          Kind
}

// Store is the task system client.
type Store interface {
	Get(ctx context.Context, id string) (*Task, error)
	Create(ctx context.Context, t NewTask) (string, error)
	Patch(ctx context.Context, id string, patch Patch) error
	Search(ctx context.Context, q Query) ([]*Task, error)
}
