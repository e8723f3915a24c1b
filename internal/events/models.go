// Package events carries the outbound journalpost-updated publisher and the
// inbound consumer for task and journal-registration events.
package events

import (
	"time"

	"dokflyt/internal/journalpost"
	"dokflyt/internal/task"
)

// JournalpostUpdated is the outbound domain event, keyed by journalpost id.
type JournalpostUpdated struct {
	JournalpostID string    `json:"journalpostId"`
	UpdatedAt     time.Time `json:"oppdatert"`
}

// TaskCreated is consumed from the task system when a new task appears. The
// consumer filters to return-kind tasks on in-scope themes.
type TaskCreated struct {
	TaskID        string    `json:"oppgaveId"`
	Kind          task.Kind `json:"oppgavetype"`
	Theme         string    `json:"tema"`
	JournalpostID string    `json:"journalpostId"`
}

// JournalRegistered is consumed when the archive journalizes a document.
type JournalRegistered struct {
	JournalpostID string              `json:"journalpostId"`
	Theme         string              `json:"tema"`
	Channel       journalpost.Channel `json:"kanal"`
}
