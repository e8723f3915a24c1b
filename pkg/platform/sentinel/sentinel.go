package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Archive, dispatch, and task
// clients return these (optionally wrapped) so services can translate them
// into coded domain errors.
//
// These represent factual states about external resources, not validation
// failures:
// - ErrNotFound: journalpost or task absent in the external system
// - ErrVersionConflict: optimistic-version precondition failed on a task patch
// - ErrNotYetVisible: an update is known to be pending but not yet readable
// - ErrUnavailable: external system temporarily unavailable
//
// For validation errors (bad input, ineligible deviation kinds), use
// pkg/domain-errors directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrVersionConflict = errors.New("version conflict")
	ErrNotYetVisible   = errors.New("not yet visible")
	ErrUnavailable     = errors.New("unavailable")
)
