// Package memerr defines the error taxonomy shared by every component of the
// memory graph: the schema registry, the temporal store, the mutation
// pipeline, the reconciliation engine and the codebase scanner all return
// errors from this package so that callers can branch on kind with
// errors.Is / errors.As instead of string matching.
package memerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors. Wrap these with errors.Wrap/Wrapf at the point of failure
// so the originating cause is preserved in the chain; compare with errors.Is.
var (
	// NotFound is returned when an entity or state is missing and the
	// caller's contract does not allow a silent nil.
	NotFound = errors.New("memgraph: not found")

	// UnknownLabel means the schema has no node definition for a label.
	UnknownLabel = errors.New("memgraph: unknown label")

	// UnknownEdge means the schema has no edge definition for (from, type, to).
	UnknownEdge = errors.New("memgraph: unknown edge type")

	// Storage wraps a transport, driver or serialization failure from the
	// backing store. Transient classes are retried once by the store
	// implementation before this is returned to the caller.
	Storage = errors.New("memgraph: storage error")

	// Conflict is returned by the reconciliation engine when strategy is
	// "fail" and both sides of an entity have drifted.
	Conflict = errors.New("memgraph: reconciliation conflict")

	// Parse marks a scanner parser failure for a single file. It is never
	// propagated past the scan loop; it is logged and the file is skipped.
	Parse = errors.New("memgraph: parse error")

	// Target marks a scanner target that cannot be scanned at all: a
	// nonexistent local path or an unreachable remote repository.
	Target = errors.New("memgraph: invalid scan target")
)

// FieldError names one offending path in a rejected property map and why.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError is returned by a compiled validator. It concatenates every
// offending field into Message while keeping the individual FieldErrors for
// machine consumption.
type ValidationError struct {
	Label   string       `json:"label"`
	Fields  []FieldError `json:"fields"`
	Message string       `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("validation failed for %q", e.Label)
}

// NewValidationError builds a ValidationError from accumulated field
// failures, concatenating them into a single human-readable message.
func NewValidationError(label string, fields []FieldError) *ValidationError {
	msg := fmt.Sprintf("%s: ", label)
	for i, f := range fields {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s: %s", f.Path, f.Message)
	}
	return &ValidationError{Label: label, Fields: fields, Message: msg}
}

// ConflictError names the entity whose graph and document states have both
// drifted from the last known sync hash.
type ConflictError struct {
	EntityID string
	Label    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("memgraph: conflict on entity %s (%s)", e.EntityID, e.Label)
}

func (e *ConflictError) Unwrap() error { return Conflict }

// IsTransient reports whether a storage error class should be retried once
// by the store before surfacing to the caller. Driver-specific backends
// decide what counts as transient; this is the shared default used when no
// more specific classification is available.
func IsTransient(err error) bool {
	type transient interface{ Temporary() bool }
	if t, ok := err.(transient); ok {
		return t.Temporary()
	}
	return false
}
