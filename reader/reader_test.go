package reader_test

import (
	"context"
	"testing"
	"time"

	"github.com/memgraph/memgraph/graphstore"
	"github.com/memgraph/memgraph/graphstore/memstore"
	"github.com/memgraph/memgraph/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffStates_NoChangesWhenEqual(t *testing.T) {
	s := graphstoreState(1, map[string]any{"name": "Auth", "status": "active"})
	d := reader.DiffStates(s, s)
	assert.Empty(t, d.Changes)
}

func TestDiffStates_DetectsPropertyChange(t *testing.T) {
	v1 := graphstoreState(1, map[string]any{"name": "Auth", "status": "active"})
	v2 := graphstoreState(2, map[string]any{"name": "Auth", "status": "deprecated"})

	d := reader.DiffStates(v1, v2)
	require.Len(t, d.Changes, 1)
	assert.Equal(t, "status", d.Changes[0].Property)
	assert.Equal(t, "active", d.Changes[0].Old)
	assert.Equal(t, "deprecated", d.Changes[0].New)
}

func TestDiffStates_SkipsUnderscorePrefixedKeys(t *testing.T) {
	v1 := graphstoreState(1, map[string]any{"name": "Auth", "_syncHash": "aaa"})
	v2 := graphstoreState(2, map[string]any{"name": "Auth", "_syncHash": "bbb"})

	d := reader.DiffStates(v1, v2)
	assert.Empty(t, d.Changes)
}

func TestDiffStates_ReportsAddedProperty(t *testing.T) {
	v1 := graphstoreState(1, map[string]any{"name": "Auth"})
	v2 := graphstoreState(2, map[string]any{"name": "Auth", "owner": "team-platform"})

	d := reader.DiffStates(v1, v2)
	require.Len(t, d.Changes, 1)
	assert.Equal(t, "owner", d.Changes[0].Property)
	assert.Nil(t, d.Changes[0].Old)
	assert.Equal(t, "team-platform", d.Changes[0].New)
}

func TestChangelog_PairwiseDiffsAscending(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	now := time.Now()

	_, err := store.CreateEntity(ctx, "svc-1", "Service", map[string]any{"name": "Auth", "status": "active"}, "alice", now, "a1")
	require.NoError(t, err)
	_, err = store.UpdateEntity(ctx, "svc-1", map[string]any{"name": "Auth", "status": "deprecated"}, "bob", now.Add(time.Hour), "a2", nil)
	require.NoError(t, err)
	_, err = store.UpdateEntity(ctx, "svc-1", map[string]any{"name": "Auth", "status": "retired"}, "carol", now.Add(2*time.Hour), "a3", nil)
	require.NoError(t, err)

	r := reader.New(store)
	diffs, err := r.Changelog(ctx, "svc-1")
	require.NoError(t, err)
	require.Len(t, diffs, 2)
	assert.Equal(t, "deprecated", diffs[0].Changes[0].New)
	assert.Equal(t, "retired", diffs[1].Changes[0].New)
}

func graphstoreState(version int, props map[string]any) graphstore.State {
	return graphstore.State{EntityID: "svc-1", Version: version, Properties: props}
}
