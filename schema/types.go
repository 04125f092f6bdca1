// Package schema compiles a declarative SchemaDef into per-label and
// per-edge-type validators. This is the anti-hallucination gate described in
// the system design: nothing reaches the temporal store without first
// passing through a compiled validator produced here.
package schema

// PropertyKind is the closed set of scalar and structured types a property
// may declare. It is the tagged variant the design notes describe: the
// registry checks and normalizes each value per kind via a switch in
// coerce, never by runtime reflection over Go types.
type PropertyKind string

const (
	KindString     PropertyKind = "string"
	KindNumber     PropertyKind = "number"
	KindBoolean    PropertyKind = "boolean"
	KindDate       PropertyKind = "date"
	KindURL        PropertyKind = "url"
	KindEmail      PropertyKind = "email"
	KindEnum       PropertyKind = "enum"
	KindStringList PropertyKind = "stringList"
	KindJSON       PropertyKind = "json"
)

// PropertyDef declares one property of a node or edge label.
type PropertyDef struct {
	Kind     PropertyKind `yaml:"kind" json:"kind"`
	Required bool         `yaml:"required" json:"required"`
	Values   []string     `yaml:"values,omitempty" json:"values,omitempty"`
	Default  any          `yaml:"default,omitempty" json:"default,omitempty"`
}

// NodeDef declares one label and its property set.
type NodeDef struct {
	Label      string                 `yaml:"label" json:"label"`
	Properties map[string]PropertyDef `yaml:"properties" json:"properties"`
	UniqueKeys []string               `yaml:"uniqueKeys,omitempty" json:"uniqueKeys,omitempty"`
}

// EdgeDef declares one relationship type between two node labels.
type EdgeDef struct {
	Type       string                  `yaml:"type" json:"type"`
	From       string                  `yaml:"from" json:"from"`
	To         string                  `yaml:"to" json:"to"`
	Properties map[string]PropertyDef  `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// Constraint names a label/property/kind triple the backing store should
// index. This is advisory: stores that support CREATE INDEX act on it at
// startup, others may ignore it.
type Constraint struct {
	Label    string       `yaml:"label" json:"label"`
	Property string       `yaml:"property" json:"property"`
	Kind     PropertyKind `yaml:"kind" json:"kind"`
}

// SchemaDef is the raw, declarative schema as authored on disk. It carries
// no compiled state; Load compiles it into a Registry.
type SchemaDef struct {
	Nodes       []NodeDef    `yaml:"nodes" json:"nodes"`
	Edges       []EdgeDef    `yaml:"edges" json:"edges"`
	Constraints []Constraint `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// reservedEdgeTypes are structural relationship types owned by the temporal
// store itself; a schema that declares an edge of one of these names fails
// to compile.
var reservedEdgeTypes = map[string]bool{
	"CURRENT":  true,
	"PREVIOUS": true,
	"AUDITED":  true,
}
