package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestDiscover_ExcludesVendoredDirectoriesUnconditionally(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "main.go", "package main\n")
	writeTestFile(t, root, "vendor/lib/lib.go", "package lib\n")
	writeTestFile(t, root, "node_modules/pkg/index.js", "module.exports = {}\n")

	files, err := discover(root, nil, nil)
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.relativePath)
	}
	assert.Contains(t, paths, "main.go")
	assert.NotContains(t, paths, "vendor/lib/lib.go")
	assert.NotContains(t, paths, "node_modules/pkg/index.js")
}

func TestDiscover_HonorsUserExcludes(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "generated/types.go", "package generated\n")
	writeTestFile(t, root, "real.go", "package real\n")

	files, err := discover(root, nil, []string{"generated"})
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.relativePath)
	}
	assert.Contains(t, paths, "real.go")
	assert.NotContains(t, paths, "generated/types.go")
}

func TestDiscover_ComputesHashAndLanguage(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "app.py", "def f():\n    pass\n")

	files, err := discover(root, nil, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "python", files[0].language)
	assert.NotEmpty(t, files[0].hash)
}
