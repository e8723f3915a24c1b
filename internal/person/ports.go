// Package person defines the contract against the person registry used to
// resolve names and registered postal addresses.
package person

import (
	"context"

	"dokflyt/internal/journalpost"
)

//go:generate mockgen -source=ports.go -destination=mocks/person_mocks.go -package=mocks

// Registry resolves a person by ident. Returns sentinel.ErrNotFound (wrapped)
// for unknown idents.
type Registry interface {
	Lookup(ctx context.Context, ident string) (*Person, error)
}

// Person is the subset of registry data the flows need.
type Person struct {
	Ident         string
	Name          string
	PostalAddress *journalpost.Address
}
