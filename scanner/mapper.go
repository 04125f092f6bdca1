package scanner

import (
	"path/filepath"
	"strings"

	"github.com/memgraph/memgraph/config"
)

// mappedEntity is the result of applying a MappingRule to a RawArtifact.
type mappedEntity struct {
	artifact RawArtifact
	label    string
	props    map[string]any
}

// computeRegistry names the built-in transforms a PropertyMapping.Compute
// value may reference. Declarative config can't embed an arbitrary Go
// closure, so "compute" is a lookup into this small fixed set rather than
// the literal function spec.md's prose shorthand suggests.
var computeRegistry = map[string]func(RawArtifact) any{
	"basename": func(a RawArtifact) any { return filepath.Base(a.FilePath) },
	"dirname":  func(a RawArtifact) any { return filepath.Dir(a.FilePath) },
	"language": func(a RawArtifact) any { return a.Language },
	"kind":     func(a RawArtifact) any { return string(a.Kind) },
	"refCount": func(a RawArtifact) any { return len(a.Refs) },
}

// applyMapping finds the first MappingRule whose ArtifactKind matches
// artifact.Kind and whose Filter (if any) passes, and resolves its
// property map. Returns ok=false if no rule matches (the artifact routes
// to "unmapped"). The matched rule's label is not checked against the
// schema here; Scan does that with Registry.HasLabel.
func applyMapping(rules []config.MappingRule, artifact RawArtifact) (mappedEntity, bool) {
	for _, rule := range rules {
		if rule.ArtifactKind != string(artifact.Kind) {
			continue
		}
		if rule.Filter != "" && !passesFilter(rule.Filter, artifact) {
			continue
		}
		props := map[string]any{}
		for name, pm := range rule.Properties {
			if v, ok := resolveProperty(pm, artifact); ok {
				props[name] = v
			}
		}
		return mappedEntity{artifact: artifact, label: rule.Label, props: props}, true
	}
	return mappedEntity{}, false
}

// resolveProperty implements the priority order: field, from, value,
// compute.
func resolveProperty(pm config.PropertyMapping, artifact RawArtifact) (any, bool) {
	if pm.Field != "" {
		switch pm.Field {
		case "name":
			return artifact.Name, true
		case "filePath":
			return artifact.FilePath, true
		case "language":
			return artifact.Language, true
		case "kind":
			return string(artifact.Kind), true
		}
		if artifact.Meta != nil {
			if v, ok := artifact.Meta[pm.Field]; ok {
				return v, true
			}
		}
		return nil, false
	}
	if pm.From != "" {
		return resolveDottedPath(pm.From, artifact)
	}
	if pm.Value != nil {
		return pm.Value, true
	}
	if pm.Compute != "" {
		if fn, ok := computeRegistry[pm.Compute]; ok {
			return fn(artifact), true
		}
		return nil, false
	}
	return nil, false
}

// resolveDottedPath looks up a dotted path in the artifact's meta map: a
// single segment is a meta key, and a "meta."-prefixed path walks nested
// maps. Any other prefix resolves to nothing; top-level fields such as
// name or language are not reachable through this function.
func resolveDottedPath(path string, artifact RawArtifact) (any, bool) {
	segments := strings.Split(path, ".")
	if len(segments) == 1 {
		if artifact.Meta != nil {
			if v, ok := artifact.Meta[segments[0]]; ok {
				return v, true
			}
		}
		return nil, false
	}
	if segments[0] != "meta" {
		return nil, false
	}
	var cur any = artifact.Meta
	for _, seg := range segments[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// passesFilter evaluates a filter expression of the form "field=value"
// (or "meta.field=value") against the artifact. Any other form is
// treated as non-matching rather than an error, matching the scanner's
// forgiving-parser philosophy.
func passesFilter(expr string, artifact RawArtifact) bool {
	parts := strings.SplitN(expr, "=", 2)
	if len(parts) != 2 {
		return false
	}
	field, want := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	got, ok := resolveDottedPath(field, artifact)
	if !ok {
		switch field {
		case "language":
			got, ok = artifact.Language, true
		case "kind":
			got, ok = string(artifact.Kind), true
		case "name":
			got, ok = artifact.Name, true
		}
	}
	if !ok {
		return false
	}
	return toComparable(got) == want
}

func toComparable(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
