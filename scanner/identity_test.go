package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityID_DeterministicAndStable(t *testing.T) {
	id1 := entityID("/repo", "pkg/store.go", KindFunction, "New")
	id2 := entityID("/repo", "pkg/store.go", KindFunction, "New")
	assert.Equal(t, id1, id2)
}

func TestEntityID_DiffersOnAnyComponent(t *testing.T) {
	base := entityID("/repo", "pkg/store.go", KindFunction, "New")
	assert.NotEqual(t, base, entityID("/repo", "pkg/other.go", KindFunction, "New"))
	assert.NotEqual(t, base, entityID("/repo", "pkg/store.go", KindFunction, "Other"))
	assert.NotEqual(t, base, entityID("/repo", "pkg/store.go", KindClass, "New"))
}
