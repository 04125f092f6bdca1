package schema

import (
	"fmt"
	"net/mail"
	"net/url"
	"time"

	"github.com/memgraph/memgraph/memerr"
)

// nodeValidator normalizes and validates a node's property map: applies
// defaults for absent keys, canonicalizes enum members, and rejects unknown
// top-level keys (strict mode).
type nodeValidator struct {
	label string
	props map[string]PropertyDef
}

// edgeValidator is identical in behaviour to nodeValidator but keyed by
// (from, type, to) rather than label. An edge with no declared properties
// accepts any map, including an empty one.
type edgeValidator struct {
	edgeType string
	props    map[string]PropertyDef
	anyProps bool
}

type edgeKey struct {
	from string
	typ  string
	to   string
}

// Registry is the compiled, process-wide, immutable result of Load. All
// readers share it without locking once startup completes.
type Registry struct {
	def   SchemaDef
	nodes map[string]nodeValidator
	edges map[edgeKey]edgeValidator
}

// CompileError marks a fatal schema authoring mistake discovered at startup
// (e.g. an enum property with no declared members).
type CompileError struct {
	Label   string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("schema: %s: %s", e.Label, e.Message)
}

// Compile validates the SchemaDef itself and builds the lookup tables.
// Compile errors are fatal to the calling process; they are never returned
// per-mutation.
func Compile(def SchemaDef) (*Registry, error) {
	r := &Registry{
		def:   def,
		nodes: make(map[string]nodeValidator, len(def.Nodes)),
		edges: make(map[edgeKey]edgeValidator, len(def.Edges)),
	}

	for _, n := range def.Nodes {
		if n.Label == "" {
			return nil, &CompileError{Label: "<empty>", Message: "node label must not be empty"}
		}
		for name, pd := range n.Properties {
			if err := validatePropertyDef(name, pd); err != nil {
				return nil, &CompileError{Label: n.Label, Message: err.Error()}
			}
		}
		r.nodes[n.Label] = nodeValidator{label: n.Label, props: n.Properties}
	}

	for _, e := range def.Edges {
		if reservedEdgeTypes[e.Type] {
			return nil, &CompileError{Label: e.Type, Message: "relationship type is reserved for the storage layer"}
		}
		for name, pd := range e.Properties {
			if err := validatePropertyDef(name, pd); err != nil {
				return nil, &CompileError{Label: e.Type, Message: err.Error()}
			}
		}
		key := edgeKey{from: e.From, typ: e.Type, to: e.To}
		r.edges[key] = edgeValidator{
			edgeType: e.Type,
			props:    e.Properties,
			anyProps: len(e.Properties) == 0,
		}
	}

	return r, nil
}

func validatePropertyDef(name string, pd PropertyDef) error {
	switch pd.Kind {
	case KindString, KindNumber, KindBoolean, KindDate, KindURL, KindEmail, KindStringList, KindJSON:
		return nil
	case KindEnum:
		if len(pd.Values) == 0 {
			return fmt.Errorf("property %q: enum kind requires at least one value", name)
		}
		return nil
	default:
		return fmt.Errorf("property %q: unknown kind %q", name, pd.Kind)
	}
}

// Def returns the raw SchemaDef the registry was compiled from, e.g. for
// serving the `schema` resource.
func (r *Registry) Def() SchemaDef { return r.def }

// ValidateNode looks up the validator for label and runs it against props.
func (r *Registry) ValidateNode(label string, props map[string]any) (map[string]any, error) {
	v, ok := r.nodes[label]
	if !ok {
		return nil, memerr.UnknownLabel
	}
	return v.validate(props)
}

// ValidateEdge looks up the validator for (from, typ, to) and runs it.
func (r *Registry) ValidateEdge(from, typ, to string, props map[string]any) (map[string]any, error) {
	v, ok := r.edges[edgeKey{from: from, typ: typ, to: to}]
	if !ok {
		return nil, memerr.UnknownEdge
	}
	if v.anyProps {
		if props == nil {
			props = map[string]any{}
		}
		return props, nil
	}
	return validateAgainst(typ, v.props, props)
}

// HasLabel reports whether label is declared in the schema, used by the
// scanner to decide between mapping an artifact and routing it to
// "unmapped".
func (r *Registry) HasLabel(label string) bool {
	_, ok := r.nodes[label]
	return ok
}

func (v nodeValidator) validate(props map[string]any) (map[string]any, error) {
	return validateAgainst(v.label, v.props, props)
}

// validateAgainst implements the shared strict-mode validation rules: every
// key in props must be declared; every required key must be present; types
// are checked per PropertyKind; defaults are applied only when the key is
// absent from the input.
func validateAgainst(label string, defs map[string]PropertyDef, props map[string]any) (map[string]any, error) {
	if props == nil {
		props = map[string]any{}
	}
	var fields []memerr.FieldError
	out := make(map[string]any, len(defs))

	for key := range props {
		if _, declared := defs[key]; !declared {
			fields = append(fields, memerr.FieldError{Path: key, Message: "unknown property"})
		}
	}

	for name, pd := range defs {
		val, present := props[name]
		if !present {
			if pd.Required {
				fields = append(fields, memerr.FieldError{Path: name, Message: "required property missing"})
				continue
			}
			if pd.Default != nil {
				out[name] = pd.Default
			}
			continue
		}
		normalized, err := coerce(pd, val)
		if err != nil {
			fields = append(fields, memerr.FieldError{Path: name, Message: err.Error()})
			continue
		}
		out[name] = normalized
	}

	if len(fields) > 0 {
		return nil, memerr.NewValidationError(label, fields)
	}
	return out, nil
}

// coerce narrows an arbitrary decoded value (JSON/YAML produce float64,
// string, bool, []any, map[string]any) into the canonical Go shape for pd's
// kind, applying kind-specific syntax checks.
func coerce(pd PropertyDef, val any) (any, error) {
	switch pd.Kind {
	case KindString:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", val)
		}
		return s, nil

	case KindNumber:
		switch n := val.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		default:
			return nil, fmt.Errorf("expected number, got %T", val)
		}

	case KindBoolean:
		b, ok := val.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", val)
		}
		return b, nil

	case KindDate:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("expected ISO-8601 date string, got %T", val)
		}
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return s, nil
		}
		if _, err := time.Parse("2006-01-02", s); err == nil {
			return s, nil
		}
		return nil, fmt.Errorf("invalid date/date-time %q", s)

	case KindURL:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("expected url string, got %T", val)
		}
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid url %q", s)
		}
		return s, nil

	case KindEmail:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("expected email string, got %T", val)
		}
		if _, err := mail.ParseAddress(s); err != nil {
			return nil, fmt.Errorf("invalid email %q", s)
		}
		return s, nil

	case KindEnum:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("expected enum string, got %T", val)
		}
		for _, allowed := range pd.Values {
			if allowed == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("value %q not in enum %v", s, pd.Values)

	case KindStringList:
		list, ok := val.([]any)
		if !ok {
			return nil, fmt.Errorf("expected list, got %T", val)
		}
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("stringList element %d is not a string", i)
			}
			out[i] = s
		}
		return out, nil

	case KindJSON:
		return val, nil

	default:
		return nil, fmt.Errorf("unknown kind %q", pd.Kind)
	}
}
