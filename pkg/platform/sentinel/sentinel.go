package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Store implementations return these
// (optionally wrapped) so the reconciliation service can translate them into
// coded domain errors without depending on driver-specific error types.
//
//   - ErrNotFound: contact does not exist in the store
//   - ErrConflict: concurrent mutation detected (serialization failure,
//     deadlock, or unique-constraint violation); the whole read-decide-write
//     unit should be retried
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
