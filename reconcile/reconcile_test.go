package reconcile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/memgraph/memgraph/docs/adapter"
	"github.com/memgraph/memgraph/graphstore/memstore"
	"github.com/memgraph/memgraph/pipeline"
	"github.com/memgraph/memgraph/reader"
	"github.com/memgraph/memgraph/reconcile"
	"github.com/memgraph/memgraph/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*pipeline.Pipeline, *reader.Reader, *memstore.Store) {
	t.Helper()
	reg, err := schema.Compile(schema.SchemaDef{
		Nodes: []schema.NodeDef{
			{Label: "Service", Properties: map[string]schema.PropertyDef{
				"name":    {Kind: schema.KindString, Required: true},
				"content": {Kind: schema.KindString},
				"tier":    {Kind: schema.KindNumber},
				"owners":  {Kind: schema.KindStringList},
			}},
		},
	})
	require.NoError(t, err)
	store := memstore.New()
	p := pipeline.New(store, reg, func() time.Time { return time.Now() })
	r := reader.New(store)
	return p, r, store
}

func TestSync_GraphOnlyEntityCreatesDoc(t *testing.T) {
	p, r, store := setup(t)
	ctx := context.Background()
	dir := t.TempDir()

	res, err := p.Upsert(ctx, "Service", "svc-1", map[string]any{"name": "Auth"}, "alice")
	require.NoError(t, err)

	eng := reconcile.New(p, r, store)
	result, err := eng.Sync(ctx, dir, adapter.NewMarkdown(), reconcile.StrategyFail, "alice", []string{"Service"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Empty(t, result.Conflicts)

	_, err = os.Stat(filepath.Join(dir, "Service", res.ID+".md"))
	assert.NoError(t, err)
}

func TestSync_DocOnlyEntityCreatesGraphNode(t *testing.T) {
	p, r, store := setup(t)
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Service"), 0o755))
	raw := "---\n_id: svc-2\n_label: Service\n_version: 1\n_syncHash: deadbeef\nname: Billing\n---\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Service", "svc-2.md"), []byte(raw), 0o644))

	eng := reconcile.New(p, r, store)
	result, err := eng.Sync(ctx, dir, adapter.NewMarkdown(), reconcile.StrategyFail, "alice", []string{"Service"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	cur, err := store.GetCurrent(ctx, "svc-2")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, "Billing", cur.State.Properties["name"])
}

func TestSync_NoChangeWhenHashesAndPropertiesMatch(t *testing.T) {
	p, r, store := setup(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := p.Upsert(ctx, "Service", "svc-1", map[string]any{"name": "Auth"}, "alice")
	require.NoError(t, err)

	eng := reconcile.New(p, r, store)
	_, err = eng.Sync(ctx, dir, adapter.NewMarkdown(), reconcile.StrategyFail, "alice", []string{"Service"})
	require.NoError(t, err)

	result, err := eng.Sync(ctx, dir, adapter.NewMarkdown(), reconcile.StrategyFail, "alice", []string{"Service"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, result.Conflicts)
}

func TestSync_NoChangeWhenNumericAndListPropertiesRoundTrip(t *testing.T) {
	p, r, store := setup(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := p.Upsert(ctx, "Service", "svc-1", map[string]any{
		"name":   "Auth",
		"tier":   float64(2),
		"owners": []string{"alice", "bob"},
	}, "alice")
	require.NoError(t, err)

	eng := reconcile.New(p, r, store)
	_, err = eng.Sync(ctx, dir, adapter.NewMarkdown(), reconcile.StrategyFail, "alice", []string{"Service"})
	require.NoError(t, err)

	before, err := store.GetCurrent(ctx, "svc-1")
	require.NoError(t, err)

	// The rendered document now holds "tier" as a YAML int and "owners" as
	// a YAML sequence, parsed back as int and []any respectively, rather
	// than the graph's float64 and []string. Nothing about the entity
	// actually changed, so a second sync must not re-upsert it.
	result, err := eng.Sync(ctx, dir, adapter.NewMarkdown(), reconcile.StrategyFail, "alice", []string{"Service"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, result.Conflicts)

	after, err := store.GetCurrent(ctx, "svc-1")
	require.NoError(t, err)
	assert.Equal(t, before.State.Version, after.State.Version)
}

func TestSync_FailStrategyRaisesConflictError(t *testing.T) {
	p, r, store := setup(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := p.Upsert(ctx, "Service", "svc-1", map[string]any{"name": "Auth"}, "alice")
	require.NoError(t, err)

	eng := reconcile.New(p, r, store)
	_, err = eng.Sync(ctx, dir, adapter.NewMarkdown(), reconcile.StrategyFail, "alice", []string{"Service"})
	require.NoError(t, err)

	_, err = p.Upsert(ctx, "Service", "svc-1", map[string]any{"name": "Auth2"}, "alice")
	require.NoError(t, err)

	renderedPath := filepath.Join(dir, "Service", "svc-1.md")
	raw := "---\n_id: svc-1\n_label: Service\n_version: 1\n_syncHash: not-the-real-hash\nname: HandEdited\n---\n\n"
	require.NoError(t, os.WriteFile(renderedPath, []byte(raw), 0o644))

	_, err = eng.Sync(ctx, dir, adapter.NewMarkdown(), reconcile.StrategyFail, "alice", []string{"Service"})
	require.Error(t, err)
}

func TestSync_GraphWinsOverwritesDocOnConflict(t *testing.T) {
	p, r, store := setup(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := p.Upsert(ctx, "Service", "svc-1", map[string]any{"name": "Auth"}, "alice")
	require.NoError(t, err)

	eng := reconcile.New(p, r, store)
	_, err = eng.Sync(ctx, dir, adapter.NewMarkdown(), reconcile.StrategyFail, "alice", []string{"Service"})
	require.NoError(t, err)

	_, err = p.Upsert(ctx, "Service", "svc-1", map[string]any{"name": "AuthV2"}, "alice")
	require.NoError(t, err)

	renderedPath := filepath.Join(dir, "Service", "svc-1.md")
	raw := "---\n_id: svc-1\n_label: Service\n_version: 1\n_syncHash: stale-hash\nname: HandEdited\n---\n\n"
	require.NoError(t, os.WriteFile(renderedPath, []byte(raw), 0o644))

	result, err := eng.Sync(ctx, dir, adapter.NewMarkdown(), reconcile.StrategyGraphWins, "alice", []string{"Service"})
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)

	cur, err := store.GetCurrent(ctx, "svc-1")
	require.NoError(t, err)
	assert.Equal(t, "AuthV2", cur.State.Properties["name"])

	rewritten, err := os.ReadFile(renderedPath)
	require.NoError(t, err)
	assert.Contains(t, string(rewritten), "AuthV2")
}
