package lang

import "regexp"

// RustParser is an (expansion) addition beyond spec.md's reference four
// language families, following the same forgiving-regex technique: it
// covers top-level fn, struct, trait (with "impl … for" relationships),
// and use imports.
type RustParser struct{}

func NewRust() *RustParser { return &RustParser{} }

func (p *RustParser) Languages() []string { return []string{"rust"} }

var (
	rustFnRe       = regexp.MustCompile(`(?m)^(?:pub\s+)?fn\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?:<[^>]*>)?\s*\(`)
	rustStructRe   = regexp.MustCompile(`(?m)^(?:pub\s+)?struct\s+([A-Za-z_][A-Za-z0-9_]*)`)
	rustTraitRe    = regexp.MustCompile(`(?m)^(?:pub\s+)?trait\s+([A-Za-z_][A-Za-z0-9_]*)`)
	rustImplForRe  = regexp.MustCompile(`(?m)^impl(?:<[^>]*>)?\s+([A-Za-z_][A-Za-z0-9_:<>]*)\s+for\s+([A-Za-z_][A-Za-z0-9_:<>]*)`)
	rustUseRe      = regexp.MustCompile(`(?m)^use\s+([A-Za-z0-9_:{},\s*]+);`)
)

func (p *RustParser) Parse(path string, content []byte) ([]Artifact, error) {
	src := string(content)
	var artifacts []Artifact

	for _, m := range rustFnRe.FindAllStringSubmatch(src, -1) {
		artifacts = append(artifacts, Artifact{Kind: "function", Name: m[1], FilePath: path, Language: "rust"})
	}
	for _, m := range rustStructRe.FindAllStringSubmatch(src, -1) {
		artifacts = append(artifacts, Artifact{Kind: "type", Name: m[1], FilePath: path, Language: "rust", Meta: map[string]any{"form": "struct"}})
	}
	for _, m := range rustTraitRe.FindAllStringSubmatch(src, -1) {
		artifacts = append(artifacts, Artifact{Kind: "interface", Name: m[1], FilePath: path, Language: "rust"})
	}
	for _, m := range rustImplForRe.FindAllStringSubmatch(src, -1) {
		artifacts = append(artifacts, Artifact{
			Kind: "class", Name: m[2], FilePath: path, Language: "rust",
			Refs: []Ref{{Kind: "implements", Target: m[1]}},
		})
	}

	var refs []Ref
	for _, m := range rustUseRe.FindAllStringSubmatch(src, -1) {
		refs = append(refs, Ref{Kind: "imports", Target: m[1]})
	}
	if len(refs) > 0 {
		artifacts = append(artifacts, Artifact{Kind: "file", Name: path, FilePath: path, Language: "rust", Refs: refs})
	}

	return artifacts, nil
}
