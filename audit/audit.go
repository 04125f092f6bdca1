// Package audit exposes the read-only audit/{id} resource: the append-only
// log of mutations recorded against one entity. It is a thin pass-through
// over graphstore.Store, mirroring reader.Reader's shape for the other
// read-only resources.
package audit

import (
	"context"

	"github.com/memgraph/memgraph/graphstore"
)

// Log reads audit entries through a graphstore.Store.
type Log struct {
	store graphstore.Store
}

// New returns a Log backed by store.
func New(store graphstore.Store) *Log {
	return &Log{store: store}
}

// For returns every audit entry recorded for id, oldest first.
func (l *Log) For(ctx context.Context, id string) ([]graphstore.AuditEntry, error) {
	return l.store.GetAuditLog(ctx, id)
}
