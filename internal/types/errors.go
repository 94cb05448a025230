package types

import "errors"

// Sentinel errors for DocGuard operations.
var (
	// ErrDocumentNotFound indicates no document exists for the given ID.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidDocument indicates malformed document input (empty ID, bad content).
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidRequest indicates a malformed request that is not about
	// document content (unknown review status, missing document type).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidTransition indicates a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid document status transition")

	// ErrRuleStoreUnavailable indicates the rule store could not be read.
	// The engine recovers from it; it only surfaces in logs and metrics.
	ErrRuleStoreUnavailable = errors.New("rule store unavailable")

	// ErrPersistence indicates validation results could not be written.
	// Never swallowed: callers must see it.
	ErrPersistence = errors.New("failed to persist validation results")

	// ErrStorage indicates any other database read or write failed.
	ErrStorage = errors.New("storage failure")
)
