package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/memgraph/memgraph/audit"
	"github.com/memgraph/memgraph/graphstore/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor_ReturnsEntriesOldestFirst(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	now := time.Now()

	_, err := store.CreateEntity(ctx, "svc-1", "Service", map[string]any{"name": "Auth"}, "alice", now, "audit-1")
	require.NoError(t, err)
	_, err = store.UpdateEntity(ctx, "svc-1", map[string]any{"name": "Auth2"}, "alice", now.Add(time.Minute), "audit-2", map[string]any{"name": "Auth2"})
	require.NoError(t, err)

	log := audit.New(store)
	entries, err := log.For(ctx, "svc-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "audit-1", entries[0].ID)
	assert.Equal(t, "audit-2", entries[1].ID)
}

func TestFor_UnknownEntityReturnsEmpty(t *testing.T) {
	store := memstore.New()
	log := audit.New(store)
	entries, err := log.For(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
