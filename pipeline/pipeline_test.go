package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/memgraph/memgraph/graphstore/memstore"
	"github.com/memgraph/memgraph/memerr"
	"github.com/memgraph/memgraph/pipeline"
	"github.com/memgraph/memgraph/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.Compile(schema.SchemaDef{
		Nodes: []schema.NodeDef{
			{
				Label: "Service",
				Properties: map[string]schema.PropertyDef{
					"name":   {Kind: schema.KindString, Required: true},
					"status": {Kind: schema.KindEnum, Values: []string{"active", "retired"}, Default: "active"},
				},
			},
			{
				Label: "Team",
				Properties: map[string]schema.PropertyDef{
					"name": {Kind: schema.KindString, Required: true},
				},
			},
		},
		Edges: []schema.EdgeDef{
			{Type: "OWNED_BY", From: "Service", To: "Team"},
		},
	})
	require.NoError(t, err)
	return reg
}

func fixedClock(t time.Time) pipeline.Clock {
	return func() time.Time { return t }
}

func TestUpsert_CreatesOnFirstWrite(t *testing.T) {
	store := memstore.New()
	p := pipeline.New(store, testRegistry(t), fixedClock(time.Now()))

	res, err := p.Upsert(context.Background(), "Service", "", map[string]any{"name": "Auth"}, "alice")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 1, res.Version)
	assert.NotEmpty(t, res.ID)
}

func TestUpsert_UpdatesExistingEntity(t *testing.T) {
	store := memstore.New()
	p := pipeline.New(store, testRegistry(t), fixedClock(time.Now()))

	first, err := p.Upsert(context.Background(), "Service", "svc-1", map[string]any{"name": "Auth"}, "alice")
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := p.Upsert(context.Background(), "Service", "svc-1", map[string]any{"name": "Auth", "status": "retired"}, "bob")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, 2, second.Version)
}

func TestUpsert_RejectsUnknownLabel(t *testing.T) {
	store := memstore.New()
	p := pipeline.New(store, testRegistry(t), nil)

	_, err := p.Upsert(context.Background(), "Gizmo", "", map[string]any{}, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, memerr.UnknownLabel)
}

func TestUpsert_RejectsMissingRequiredField(t *testing.T) {
	store := memstore.New()
	p := pipeline.New(store, testRegistry(t), nil)

	_, err := p.Upsert(context.Background(), "Service", "", map[string]any{}, "alice")
	require.Error(t, err)
	var ve *memerr.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestDelete_IsIdempotent(t *testing.T) {
	store := memstore.New()
	p := pipeline.New(store, testRegistry(t), nil)

	res, err := p.Upsert(context.Background(), "Service", "", map[string]any{"name": "Auth"}, "alice")
	require.NoError(t, err)

	require.NoError(t, p.Delete(context.Background(), res.ID, "alice"))
	require.NoError(t, p.Delete(context.Background(), res.ID, "alice"))

	cur, err := store.GetCurrent(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestRelate_ValidatesAgainstEdgeSchema(t *testing.T) {
	store := memstore.New()
	p := pipeline.New(store, testRegistry(t), nil)
	ctx := context.Background()

	svc, err := p.Upsert(ctx, "Service", "", map[string]any{"name": "Auth"}, "alice")
	require.NoError(t, err)
	team, err := p.Upsert(ctx, "Team", "", map[string]any{"name": "Platform"}, "alice")
	require.NoError(t, err)

	require.NoError(t, p.Relate(ctx, svc.ID, team.ID, "OWNED_BY", "Service", "Team", nil, "alice"))

	rels, err := store.GetRelationships(ctx, svc.ID)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "OWNED_BY", rels[0].Type)
}

func TestRelate_RejectsUnknownEdge(t *testing.T) {
	store := memstore.New()
	p := pipeline.New(store, testRegistry(t), nil)
	ctx := context.Background()

	err := p.Relate(ctx, "a", "b", "MANAGES", "Service", "Team", nil, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, memerr.UnknownEdge)
}

func TestUnrelate_IsSilentNoOpWhenNoActiveEdge(t *testing.T) {
	store := memstore.New()
	p := pipeline.New(store, testRegistry(t), nil)

	err := p.Unrelate(context.Background(), "a", "b", "OWNED_BY", "alice")
	assert.NoError(t, err)
}

func TestBatchUpsert_ValidatesAllBeforeCommittingAny(t *testing.T) {
	store := memstore.New()
	p := pipeline.New(store, testRegistry(t), nil)

	requests := []pipeline.UpsertRequest{
		{Label: "Service", Props: map[string]any{"name": "Good"}, Actor: "alice"},
		{Label: "Service", Props: map[string]any{}, Actor: "alice"},
	}

	result := p.BatchUpsert(context.Background(), requests)
	require.Len(t, result.Items, 2)
	assert.NoError(t, result.Items[0].Err)
	assert.Error(t, result.Items[1].Err)

	all, err := store.QueryByLabel(context.Background(), "Service")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBatchUpsert_CommitsEachMemberIndependently(t *testing.T) {
	store := memstore.New()
	p := pipeline.New(store, testRegistry(t), nil)

	requests := []pipeline.UpsertRequest{
		{Label: "Service", Props: map[string]any{"name": "A"}, Actor: "alice"},
		{Label: "Service", Props: map[string]any{"name": "B"}, Actor: "alice"},
		{Label: "Service", Props: map[string]any{"name": "C"}, Actor: "alice"},
	}

	result := p.BatchUpsert(context.Background(), requests)
	for _, item := range result.Items {
		assert.NoError(t, item.Err)
		assert.True(t, item.Result.Created)
	}

	all, err := store.QueryByLabel(context.Background(), "Service")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
