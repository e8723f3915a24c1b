// Package archive defines the contracts against the external document
// archive. Implementations live behind the HTTP client layer and are out of
// scope; services depend on these interfaces only.
package archive

import (
	"context"

	"dokflyt/internal/journalpost"
	"dokflyt/internal/metadata"
)

//go:generate mockgen -source=ports.go -destination=mocks/archive_mocks.go -package=mocks

// Reader fetches journalposts from the archive. Lookups return
// sentinel.ErrNotFound (wrapped) when the journalpost does not exist, or when
// the case guard on GetForCase does not match.
type Reader interface {
	Get(ctx context.Context, id string) (*journalpost.Journalpost, error)

	// GetForCase fetches a journalpost only if it is linked to the given
	// case; a mismatch reads as not found.
	GetForCase(ctx context.Context, id, caseID string) (*journalpost.Journalpost, error)

	// FindByFingerprint returns all journalposts whose documents share the
	// given content fingerprint, including the one it was derived from.
	FindByFingerprint(ctx context.Context, fingerprint string) ([]*journalpost.Journalpost, error)

	FindByCaseAndTheme(ctx context.Context, caseID, theme string) ([]*journalpost.Journalpost, error)

	// DocumentContent fetches the raw bytes of one archived document.
	DocumentContent(ctx context.Context, journalpostID, documentID string) ([]byte, error)
}

// Writer mutates journalposts in the archive.
type Writer interface {
	// Update applies a partial field/metadata update.
	Update(ctx context.Context, id string, patch Patch) error

	// Finalize journalizes the journalpost with the given unit.
	Finalize(ctx context.Context, id, unit string) error

	// Misregister marks the case link misregistered; the archive moves the
	// journalpost to FEILREGISTRERT.
	Misregister(ctx context.Context, id string) error

	// Unmisregister reverses a misregistration.
	Unmisregister(ctx context.Context, id string) error

	// LinkCase links the journalpost to an additional case.
	LinkCase(ctx context.Context, id string, c journalpost.Case) error

	// Create registers a new journalpost and returns its id. With Finalize
	// set, the archive journalizes it in the same operation.
	Create(ctx context.Context, req CreateRequest) (string, error)
}

// Patch is a partial update. Nil fields are left untouched; a non-nil
// Metadata replaces the full tilleggsopplysninger list.
type Patch struct {
	Title   *string
	Theme   *string
	Unit    *string
	Channel *journalpost.Channel
	Sender  *journalpost.Party
	Case    *journalpost.Case

	// DocumentTitles maps document id to a new title.
	DocumentTitles map[string]string

	Metadata metadata.Pairs
}

// CreateRequest registers a new journalpost with document content.
type CreateRequest struct {
	Title            string
	Theme            string
	Type             journalpost.Type
	Channel          journalpost.Channel
	Unit             string
	Sender           *journalpost.Party
	Case             *journalpost.Case
	EksternReferanse string
	Metadata         metadata.Pairs
	Documents        []NewDocument
	Finalize         bool
}

// NewDocument carries the content for a document of a new journalpost.
type NewDocument struct {
	Title   string
	Content []byte
}
