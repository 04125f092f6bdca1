package docs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/memgraph/memgraph/docs/adapter"
	"github.com/memgraph/memgraph/graphstore"
	"gopkg.in/yaml.v3"
)

// diagramMarker separates user content from the generated relationship
// diagram so ParseDoc can strip the diagram back out and recover exactly
// the content the entity's "content" property held.
const diagramMarker = "<!-- memgraph:relationships -->"

// PathFor returns the default {label}/{id}.{ext} path for an entity.
func PathFor(label, id, ext string) string {
	return fmt.Sprintf("%s/%s%s", label, id, ext)
}

// RenderEntity renders one current-state entity to frontmatter+body bytes.
// The frontmatter carries _id, _label, _version, _syncHash plus every
// non-underscore property from the state; the body is the user "content"
// property (if present) followed by an optional relationship diagram.
func RenderEntity(entity graphstore.Entity, state graphstore.State, rels []graphstore.DirectedRelationship, fa adapter.FormatAdapter) ([]byte, error) {
	syncHash := ComputeSyncHash(state.Properties)

	base := map[string]any{
		"_id":       entity.ID,
		"_label":    entity.Label,
		"_version":  state.Version,
		"_syncHash": syncHash,
	}
	for k, v := range userProps(state.Properties) {
		if k == "content" {
			continue
		}
		base[k] = v
	}

	frontmatter := fa.TransformFrontmatter(base)

	fmBytes, err := yaml.Marshal(frontmatter)
	if err != nil {
		return nil, fmt.Errorf("docs: marshal frontmatter: %w", err)
	}

	var body strings.Builder
	if content, ok := state.Properties["content"].(string); ok && content != "" {
		body.WriteString(content)
		body.WriteString("\n")
	}
	if diagram := relationshipDiagram(entity.ID, rels); diagram != "" {
		if body.Len() > 0 {
			body.WriteString("\n")
		}
		body.WriteString(diagramMarker)
		body.WriteString("\n")
		body.WriteString(fa.WrapDiagram(diagram))
		body.WriteString("\n")
	}

	var out strings.Builder
	out.WriteString("---\n")
	out.Write(fmBytes)
	out.WriteString("---\n\n")
	out.WriteString(body.String())

	return []byte(out.String()), nil
}

// relationshipDiagram renders a deterministic, sorted textual listing of an
// entity's outgoing and incoming active edges.
func relationshipDiagram(id string, rels []graphstore.DirectedRelationship) string {
	if len(rels) == 0 {
		return ""
	}
	lines := make([]string, 0, len(rels))
	for _, r := range rels {
		switch r.Direction {
		case graphstore.DirectionOutgoing:
			lines = append(lines, fmt.Sprintf("%s -[%s]-> %s", id, r.Type, r.ToID))
		case graphstore.DirectionIncoming:
			lines = append(lines, fmt.Sprintf("%s -[%s]-> %s", r.FromID, r.Type, id))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
