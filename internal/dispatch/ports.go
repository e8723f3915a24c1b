// Package dispatch defines the contract against the external dispatch system
// that physically or digitally delivers finalized outgoing documents.
package dispatch

import (
	"context"

	"dokflyt/internal/journalpost"
)

//go:generate mockgen -source=ports.go -destination=mocks/dispatch_mocks.go -package=mocks

// Sender orders delivery of a finalized outgoing journalpost.
type Sender interface {
	Send(ctx context.Context, req Request) (*Receipt, error)
}

// Request orders one delivery. Address may be nil for document types the
// dispatch system can deliver without one (digital mailbox).
type Request struct {
	JournalpostID string
	BatchID       string
	Address       *journalpost.Address
}

// Receipt is the dispatch system's acknowledgement.
type Receipt struct {
	BestillingsID string `json:"bestillingsId"`
}
