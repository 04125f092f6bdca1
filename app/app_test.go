package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/memgraph/memgraph/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuild_WiresMemoryStoreFromConfig(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.yaml", `
nodes:
  - label: Service
    properties:
      name: {kind: string, required: true}
edges: []
`)
	cfgPath := writeFile(t, dir, "config.yaml", `
schema: `+schemaPath+`
storageConnection: memory
docs:
  outputDir: ./docs
sync:
  conflictStrategy: fail
`)

	a, err := app.Build(context.Background(), cfgPath)
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.NotNil(t, a.Pipeline)
	assert.NotNil(t, a.Reader)
	assert.NotNil(t, a.Audit)
	assert.NotNil(t, a.Scanner)
	assert.NotNil(t, a.Reconcile)
	assert.True(t, a.Registry.HasLabel("Service"))

	require.NoError(t, a.Close(context.Background()))
}

func TestBuild_RejectsUnsupportedStorageScheme(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.yaml", "nodes: []\nedges: []\n")
	cfgPath := writeFile(t, dir, "config.yaml", `
schema: `+schemaPath+`
storageConnection: redis://localhost:6379
`)

	_, err := app.Build(context.Background(), cfgPath)
	assert.Error(t, err)
}
