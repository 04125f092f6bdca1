package graphstore

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
)

// Store is the single process-to-backend boundary. Every mutation primitive
// is a single transaction; the backend is responsible for atomicity and
// serializability within each call. Between any two Store calls made by a
// higher layer the graph may change; within one call it cannot.
type Store interface {
	// Mutation primitives.
	CreateEntity(ctx context.Context, id, label string, props map[string]any, actor string, now time.Time, auditID string) (State, error)
	UpdateEntity(ctx context.Context, id string, props map[string]any, actor string, now time.Time, auditID string, changes map[string]any) (State, error)
	SoftDeleteEntity(ctx context.Context, id string, actor string, now time.Time, auditID string) error
	CreateRelationship(ctx context.Context, from, to, typ string, props map[string]any, actor string, now time.Time, auditID string) (Relationship, error)
	CloseRelationship(ctx context.Context, from, to, typ string, actor string, now time.Time, auditID string) error

	// Reads.
	GetCurrent(ctx context.Context, id string) (*EntityState, error)
	GetAtTime(ctx context.Context, id string, t time.Time) (*State, error)
	GetHistory(ctx context.Context, id string) ([]State, error)
	QueryByLabel(ctx context.Context, label string) ([]EntityState, error)
	GetRelationships(ctx context.Context, id string) ([]DirectedRelationship, error)
	ChangesSince(ctx context.Context, since time.Time, labels, actors []string, limit int) ([]ChangeSummary, error)
	Search(ctx context.Context, label string, filters []Filter, limit int, orderBy *OrderBy) ([]EntityState, error)
	SnapshotAt(ctx context.Context, at time.Time, labels []string) (*Snapshot, error)
	GetAuditLog(ctx context.Context, id string) ([]AuditEntry, error)
}

// identifierPattern is the hard contract from the spec: labels and
// relationship types must match this before being interpolated into any
// storage query string. Values are always bound as parameters; only label
// and type names are ever concatenated into a query.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidIdentifier is wrapped with the offending value by
// ValidateIdentifier.
var ErrInvalidIdentifier = errors.New("graphstore: invalid label or relationship type")

// ValidateIdentifier enforces the identifier discipline shared by every
// backend: called before any label or relationship type is interpolated
// into a storage query.
func ValidateIdentifier(s string) error {
	if !identifierPattern.MatchString(s) {
		return errors.Wrapf(ErrInvalidIdentifier, "%q", s)
	}
	return nil
}
