package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash_DeterministicAndLength(t *testing.T) {
	h1 := contentHash([]byte("hello"))
	h2 := contentHash([]byte("hello"))
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // hex-encoded sha256
}

func TestSaveAndLoadFingerprints_RoundTrips(t *testing.T) {
	root := t.TempDir()
	store := FingerprintStore{"a.go": {Hash: "abc", Size: 10, ModTime: 123}}

	require.NoError(t, saveFingerprints(root, store))

	loaded, err := loadFingerprints(root)
	require.NoError(t, err)
	assert.Equal(t, store, loaded)

	_, statErr := os.Stat(filepath.Join(root, ".scanstate", "fingerprints.tmp"))
	assert.True(t, os.IsNotExist(statErr), "temp file should not survive a successful save")
}

func TestLoadFingerprints_MissingStoreReturnsEmptyNotError(t *testing.T) {
	loaded, err := loadFingerprints(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
