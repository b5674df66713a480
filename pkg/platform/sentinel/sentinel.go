package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and directories return
// these (optionally wrapped) so the token service can translate them into
// domain errors.
//
// These represent factual states about records, not validation failures:
// - ErrNotFound: record does not exist (unknown proposal, unregistered logic)
// - ErrConflict: record already in the requested state (duplicate membership)
// - ErrInvalidState: record in the wrong state for the requested transition
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (zero address, bad group), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
