package scanner

import (
	"testing"

	"github.com/memgraph/memgraph/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMapping_FirstMatchingRuleWins(t *testing.T) {
	rules := []config.MappingRule{
		{ArtifactKind: "function", Label: "PublicFunc", Filter: "language=go", Properties: map[string]config.PropertyMapping{
			"name": {Field: "name"},
		}},
		{ArtifactKind: "function", Label: "Function", Properties: map[string]config.PropertyMapping{
			"name": {Field: "name"},
		}},
	}
	artifact := RawArtifact{Kind: KindFunction, Name: "Foo", Language: "go"}

	me, ok := applyMapping(rules, artifact)
	require.True(t, ok)
	assert.Equal(t, "PublicFunc", me.label)
}

func TestApplyMapping_FilterExcludesNonMatch(t *testing.T) {
	rules := []config.MappingRule{
		{ArtifactKind: "function", Label: "PublicFunc", Filter: "language=python"},
		{ArtifactKind: "function", Label: "Function"},
	}
	artifact := RawArtifact{Kind: KindFunction, Name: "Foo", Language: "go"}

	me, ok := applyMapping(rules, artifact)
	require.True(t, ok)
	assert.Equal(t, "Function", me.label)
}

func TestApplyMapping_NoMatchingRuleReturnsFalse(t *testing.T) {
	_, ok := applyMapping(nil, RawArtifact{Kind: KindClass, Name: "Foo"})
	assert.False(t, ok)
}

func TestResolveProperty_ComputeBasename(t *testing.T) {
	artifact := RawArtifact{FilePath: "pkg/store/store.go"}
	v, ok := resolveProperty(config.PropertyMapping{Compute: "basename"}, artifact)
	require.True(t, ok)
	assert.Equal(t, "store.go", v)
}

func TestResolveProperty_FromMetaDottedPath(t *testing.T) {
	artifact := RawArtifact{Meta: map[string]any{"receiver": "s *Store"}}
	v, ok := resolveProperty(config.PropertyMapping{From: "meta.receiver"}, artifact)
	require.True(t, ok)
	assert.Equal(t, "s *Store", v)
}

func TestResolveProperty_ValueLiteral(t *testing.T) {
	v, ok := resolveProperty(config.PropertyMapping{Value: "fixed"}, RawArtifact{})
	require.True(t, ok)
	assert.Equal(t, "fixed", v)
}
