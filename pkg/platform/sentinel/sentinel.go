package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and wallet adapters return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write raced with another writer
// - ErrInvalidState: entity in wrong lifecycle state for requested operation
// - ErrDisabled: protocol or resource is administratively disabled
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrDisabled     = errors.New("disabled")
	ErrUnavailable  = errors.New("unavailable")
)
