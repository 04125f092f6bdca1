package lang

import "regexp"

// JavaParser is an (expansion) addition beyond spec.md's reference four
// language families: top-level class/interface declarations with their
// extends/implements clauses, and import statements.
type JavaParser struct{}

func NewJava() *JavaParser { return &JavaParser{} }

func (p *JavaParser) Languages() []string { return []string{"java"} }

var (
	javaClassRe     = regexp.MustCompile(`(?m)^(?:public\s+)?(?:final\s+|abstract\s+)?class\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?:extends\s+([A-Za-z0-9_.]+))?\s*(?:implements\s+([A-Za-z0-9_.,\s]+?))?\s*\{`)
	javaInterfaceRe = regexp.MustCompile(`(?m)^(?:public\s+)?interface\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?:extends\s+([A-Za-z0-9_.,\s]+?))?\s*\{`)
	javaImportRe    = regexp.MustCompile(`(?m)^import\s+(?:static\s+)?([A-Za-z0-9_.]+)\s*;`)
)

func (p *JavaParser) Parse(path string, content []byte) ([]Artifact, error) {
	src := string(content)
	var artifacts []Artifact

	for _, m := range javaClassRe.FindAllStringSubmatch(src, -1) {
		var refs []Ref
		if m[2] != "" {
			refs = append(refs, Ref{Kind: "extends", Target: m[2]})
		}
		for _, iface := range splitCommaList(m[3]) {
			refs = append(refs, Ref{Kind: "implements", Target: iface})
		}
		artifacts = append(artifacts, Artifact{Kind: "class", Name: m[1], FilePath: path, Language: "java", Refs: refs})
	}
	for _, m := range javaInterfaceRe.FindAllStringSubmatch(src, -1) {
		var refs []Ref
		for _, base := range splitCommaList(m[2]) {
			refs = append(refs, Ref{Kind: "extends", Target: base})
		}
		artifacts = append(artifacts, Artifact{Kind: "interface", Name: m[1], FilePath: path, Language: "java", Refs: refs})
	}

	var refs []Ref
	for _, m := range javaImportRe.FindAllStringSubmatch(src, -1) {
		refs = append(refs, Ref{Kind: "imports", Target: m[1]})
	}
	if len(refs) > 0 {
		artifacts = append(artifacts, Artifact{Kind: "file", Name: path, FilePath: path, Language: "java", Refs: refs})
	}

	return artifacts, nil
}
