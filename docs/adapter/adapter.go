// Package adapter defines the FormatAdapter interface that lets Document
// Projection target frameworks beyond plain Markdown (MDX, Docusaurus,
// etc.) without the projection package itself knowing about any of them.
package adapter

// IndexEntry is the minimal per-entity summary passed to GenerateIndex; it
// carries just enough for an adapter to build a listing page without
// depending on the docs package's richer types.
type IndexEntry struct {
	ID    string
	Label string
	Path  string
}

// FormatAdapter customizes how Document Projection renders one entity.
// TransformFrontmatter must preserve _id, _label, _syncHash, and _version —
// callers that strip them break the round-trip parseDoc(renderDoc(e)) ≡ e
// invariant.
type FormatAdapter interface {
	Name() string
	Extension() string
	TransformFrontmatter(base map[string]any) map[string]any
	WrapDiagram(code string) string
	GenerateIndex(entries []IndexEntry, outputDir string) error
}

// Passthrough is the default adapter: frontmatter and diagram pass through
// unchanged, and it declines to generate an index.
type Passthrough struct {
	Ext string
}

// NewPassthrough returns a Passthrough adapter targeting the given file
// extension (including the leading dot), defaulting to ".md".
func NewPassthrough(ext string) Passthrough {
	if ext == "" {
		ext = ".md"
	}
	return Passthrough{Ext: ext}
}

func (p Passthrough) Name() string      { return "passthrough" }
func (p Passthrough) Extension() string { return p.Ext }

func (p Passthrough) TransformFrontmatter(base map[string]any) map[string]any {
	return base
}

func (p Passthrough) WrapDiagram(code string) string {
	return code
}

func (p Passthrough) GenerateIndex(entries []IndexEntry, outputDir string) error {
	return nil
}

// Resolve looks up a built-in adapter by name, falling back to Passthrough
// for any name it does not recognize (including the empty string).
func Resolve(name string) FormatAdapter {
	switch name {
	case "markdown", "md":
		return NewMarkdown()
	case "mdx":
		return NewMDX()
	default:
		return NewPassthrough(".md")
	}
}
