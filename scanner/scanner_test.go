package scanner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/memgraph/memgraph/config"
	"github.com/memgraph/memgraph/graphstore/memstore"
	"github.com/memgraph/memgraph/pipeline"
	"github.com/memgraph/memgraph/scanner"
	"github.com/memgraph/memgraph/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSetup(t *testing.T) (*scanner.Scanner, *memstore.Store) {
	t.Helper()
	reg, err := schema.Compile(schema.SchemaDef{
		Nodes: []schema.NodeDef{
			{Label: "SourceFile", Properties: map[string]schema.PropertyDef{
				"path": {Kind: schema.KindString, Required: true},
			}},
			{Label: "Function", Properties: map[string]schema.PropertyDef{
				"name": {Kind: schema.KindString, Required: true},
			}},
			{Label: "Module", Properties: map[string]schema.PropertyDef{
				"name": {Kind: schema.KindString, Required: true},
			}},
			{Label: "Dependency", Properties: map[string]schema.PropertyDef{
				"name": {Kind: schema.KindString, Required: true},
			}},
		},
		Edges: []schema.EdgeDef{
			{From: "Module", Type: "DEPENDS_ON", To: "Dependency"},
		},
	})
	require.NoError(t, err)
	store := memstore.New()
	p := pipeline.New(store, reg, func() time.Time { return time.Now() })
	return scanner.New(p, reg), store
}

func mappings() []config.MappingRule {
	return []config.MappingRule{
		{ArtifactKind: "file", Label: "SourceFile", Properties: map[string]config.PropertyMapping{
			"path": {Field: "filePath"},
		}},
		{ArtifactKind: "function", Label: "Function", Properties: map[string]config.PropertyMapping{
			"name": {Field: "name"},
		}},
		{ArtifactKind: "module", Label: "Module", Properties: map[string]config.PropertyMapping{
			"name": {Field: "name"},
		}},
		{ArtifactKind: "dependency", Label: "Dependency", Properties: map[string]config.PropertyMapping{
			"name": {Field: "name"},
		}},
	}
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestScan_DiscoversAndIngestsGoFile(t *testing.T) {
	sc, store := testSetup(t)
	dir := t.TempDir()
	writeFile(t, dir, "store.go", "package store\n\nimport \"fmt\"\n\nfunc New() *Store { fmt.Println(\"x\"); return &Store{} }\n")

	result, err := sc.Scan(context.Background(), scanner.Options{
		Target: dir, Actor: "scanner", Mappings: mappings(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesDiscovered)
	assert.Equal(t, 1, result.FilesParsed)
	assert.GreaterOrEqual(t, result.EntitiesUpserted, 2) // file + function

	entities, err := store.QueryByLabel(context.Background(), "Function")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "New", entities[0].State.Properties["name"])
}

func TestScan_IncrementalSkipsUnchangedFile(t *testing.T) {
	sc, _ := testSetup(t)
	dir := t.TempDir()
	writeFile(t, dir, "store.go", "package store\n\nfunc New() {}\n")

	ctx := context.Background()
	_, err := sc.Scan(ctx, scanner.Options{Target: dir, Actor: "scanner", Mappings: mappings()})
	require.NoError(t, err)

	result, err := sc.Scan(ctx, scanner.Options{Target: dir, Actor: "scanner", Mappings: mappings()})
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesParsed)
	assert.Equal(t, 0, result.EntitiesUpserted)
}

func TestScan_DryRunSkipsIngestAndFingerprintPersist(t *testing.T) {
	sc, store := testSetup(t)
	dir := t.TempDir()
	writeFile(t, dir, "store.go", "package store\n\nfunc New() {}\n")

	result, err := sc.Scan(context.Background(), scanner.Options{
		Target: dir, Actor: "scanner", Mappings: mappings(), DryRun: true,
	})
	require.NoError(t, err)
	assert.Greater(t, result.EntitiesUpserted, 0)

	entities, err := store.QueryByLabel(context.Background(), "Function")
	require.NoError(t, err)
	assert.Empty(t, entities)

	_, statErr := os.Stat(filepath.Join(dir, ".scanstate", "fingerprints"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestScan_UnmappedLabelRoutesToUnmapped(t *testing.T) {
	sc, _ := testSetup(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "class Foo:\n    pass\n")

	result, err := sc.Scan(context.Background(), scanner.Options{
		Target: dir, Actor: "scanner", Mappings: mappings(), // no rule for "class"
	})
	require.NoError(t, err)
	assert.Greater(t, result.EntitiesUnmapped, 0)
}

func TestScan_CreatesDependsOnRelationshipFromGoMod(t *testing.T) {
	sc, store := testSetup(t)
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module github.com/example/app\n\nrequire (\n\tgithub.com/google/uuid v1.6.0\n)\n")

	result, err := sc.Scan(context.Background(), scanner.Options{
		Target: dir, Actor: "scanner", Mappings: mappings(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RelationshipsMade)

	entities, err := store.QueryByLabel(context.Background(), "Module")
	require.NoError(t, err)
	require.Len(t, entities, 1)

	rels, err := store.GetRelationships(context.Background(), entities[0].Entity.ID)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "DEPENDS_ON", rels[0].Relationship.Type)
}

func TestScan_TargetErrorOnNonexistentPath(t *testing.T) {
	sc, _ := testSetup(t)
	_, err := sc.Scan(context.Background(), scanner.Options{Target: "/nonexistent/path/xyz", Actor: "scanner"})
	assert.Error(t, err)
}
