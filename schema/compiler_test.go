package schema_test

import (
	"testing"

	"github.com/memgraph/memgraph/memerr"
	"github.com/memgraph/memgraph/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceSchema() schema.SchemaDef {
	return schema.SchemaDef{
		Nodes: []schema.NodeDef{
			{
				Label: "Service",
				Properties: map[string]schema.PropertyDef{
					"name":   {Kind: schema.KindString, Required: true},
					"status": {Kind: schema.KindEnum, Values: []string{"active", "deprecated"}, Default: "active"},
					"owner":  {Kind: schema.KindEmail},
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
	}
}

func TestCompile_RejectsReservedEdgeType(t *testing.T) {
	def := schema.SchemaDef{Edges: []schema.EdgeDef{{Type: "CURRENT", From: "A", To: "B"}}}
	_, err := schema.Compile(def)
	require.Error(t, err)
}

func TestCompile_RejectsEmptyEnum(t *testing.T) {
	def := schema.SchemaDef{Nodes: []schema.NodeDef{{
		Label:      "X",
		Properties: map[string]schema.PropertyDef{"status": {Kind: schema.KindEnum}},
	}}}
	_, err := schema.Compile(def)
	require.Error(t, err)
}

func TestValidateNode_MissingRequired(t *testing.T) {
	reg, err := schema.Compile(serviceSchema())
	require.NoError(t, err)

	_, err = reg.ValidateNode("Service", map[string]any{"status": "active"})
	require.Error(t, err)
	var ve *memerr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 1)
	assert.Equal(t, "name", ve.Fields[0].Path)
}

func TestValidateNode_UnknownKeyRejected(t *testing.T) {
	reg, err := schema.Compile(serviceSchema())
	require.NoError(t, err)

	_, err = reg.ValidateNode("Service", map[string]any{"name": "Auth", "bogus": "x"})
	require.Error(t, err)
}

func TestValidateNode_AppliesDefaultOnlyWhenAbsent(t *testing.T) {
	reg, err := schema.Compile(serviceSchema())
	require.NoError(t, err)

	out, err := reg.ValidateNode("Service", map[string]any{"name": "Auth"})
	require.NoError(t, err)
	assert.Equal(t, "active", out["status"])

	out, err = reg.ValidateNode("Service", map[string]any{"name": "Auth", "status": "deprecated"})
	require.NoError(t, err)
	assert.Equal(t, "deprecated", out["status"])
}

func TestValidateNode_EnumRejectsUnknownValue(t *testing.T) {
	reg, err := schema.Compile(serviceSchema())
	require.NoError(t, err)

	_, err = reg.ValidateNode("Service", map[string]any{"name": "Auth", "status": "bogus"})
	require.Error(t, err)
}

func TestValidateNode_UnknownLabel(t *testing.T) {
	reg, err := schema.Compile(serviceSchema())
	require.NoError(t, err)

	_, err = reg.ValidateNode("Nope", map[string]any{})
	require.ErrorIs(t, err, memerr.UnknownLabel)
}

func TestValidateEdge_NoDeclaredPropertiesAcceptsEmptyMap(t *testing.T) {
	reg, err := schema.Compile(serviceSchema())
	require.NoError(t, err)

	props, err := reg.ValidateEdge("Service", "OWNED_BY", "Team", nil)
	require.NoError(t, err)
	assert.NotNil(t, props)
}

func TestValidateEdge_UnknownEdge(t *testing.T) {
	reg, err := schema.Compile(serviceSchema())
	require.NoError(t, err)

	_, err = reg.ValidateEdge("Service", "DOES_NOT_EXIST", "Team", nil)
	require.ErrorIs(t, err, memerr.UnknownEdge)
}
