// Package types provides domain models shared across DocGuard components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so the rule engine can be embedded without pulling in
// storage or transport deps. ID utilities in ids.go import uuid but are
// isolated in their own file.
//
// Separation from storage: row structs live in internal/core/store. This
// package holds the wire-agnostic shapes the engine consumes and produces.
package types

import (
	"encoding/json"
	"fmt"
)

// DocumentID identifies a document under validation.
// Opaque string: the extraction pipeline owns the format.
type DocumentID string

// RuleID identifies a validation rule.
// String alias enables type safety while maintaining JSON string serialization.
type RuleID string

// Content is the extracted field data of one document.
// Nested maps and arrays of JSON primitives, as produced by encoding/json.
type Content map[string]any

// DecodeContent parses raw JSON into a Content record.
// A JSON null decodes to a nil Content; a non-object top level is rejected.
func DecodeContent(raw json.RawMessage) (Content, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var c Content
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: content must be a JSON object: %v", ErrInvalidDocument, err)
	}
	return c, nil
}

// DocumentStatus is the lifecycle state of a document.
type DocumentStatus string

const (
	StatusPending             DocumentStatus = "pending"
	StatusProcessing          DocumentStatus = "processing"
	StatusPendingVerification DocumentStatus = "pending_verification"
	StatusVerified            DocumentStatus = "verified"
	StatusRejected            DocumentStatus = "rejected"
)

// Valid reports whether s is a known document status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusPendingVerification, StatusVerified, StatusRejected:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a document may move from s to next.
// Revalidation (-> processing) is allowed from every state. Validation
// outcomes are only reachable from processing. Manual review is only
// reachable from pending_verification or rejected.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	switch next {
	case StatusProcessing:
		return s.Valid()
	case StatusPendingVerification:
		return s == StatusProcessing
	case StatusRejected:
		return s == StatusProcessing || s == StatusPendingVerification
	case StatusVerified:
		return s == StatusPendingVerification || s == StatusRejected
	default:
		return false
	}
}

// Document is a stored document as the validation service sees it.
type Document struct {
	ID           DocumentID
	DocumentType string
	Content      Content
	Status       DocumentStatus
	Flagged      bool
}
