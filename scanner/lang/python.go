package lang

import (
	"regexp"
	"strings"
)

// PythonParser extracts top-level function defs (with preceding decorators
// recorded as meta), classes with their base list, and import statements.
type PythonParser struct{}

func NewPython() *PythonParser { return &PythonParser{} }

func (p *PythonParser) Languages() []string { return []string{"python"} }

var (
	pyDefRe        = regexp.MustCompile(`(?m)^def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	pyDecoratorRe  = regexp.MustCompile(`(?m)^@([A-Za-z_][A-Za-z0-9_.]*)`)
	pyClassRe      = regexp.MustCompile(`(?m)^class\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?:\(([^)]*)\))?\s*:`)
	pyImportRe     = regexp.MustCompile(`(?m)^import\s+([A-Za-z0-9_., ]+)`)
	pyFromImportRe = regexp.MustCompile(`(?m)^from\s+([A-Za-z0-9_.]+)\s+import\s+`)
)

func (p *PythonParser) Parse(path string, content []byte) ([]Artifact, error) {
	src := string(content)
	lines := strings.Split(src, "\n")
	var artifacts []Artifact

	for i, line := range lines {
		m := pyDefRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var decorators []string
		for j := i - 1; j >= 0; j-- {
			trimmed := strings.TrimSpace(lines[j])
			if trimmed == "" {
				continue
			}
			if dm := pyDecoratorRe.FindStringSubmatch(trimmed); dm != nil {
				decorators = append([]string{dm[1]}, decorators...)
				continue
			}
			break
		}
		meta := map[string]any{}
		if len(decorators) > 0 {
			meta["decorators"] = decorators
		}
		artifacts = append(artifacts, Artifact{Kind: "function", Name: m[1], FilePath: path, Language: "python", Meta: meta, Line: i + 1})
	}

	for _, m := range pyClassRe.FindAllStringSubmatch(src, -1) {
		var refs []Ref
		bases := strings.TrimSpace(m[2])
		if bases != "" {
			for _, b := range strings.Split(bases, ",") {
				b = strings.TrimSpace(b)
				if b != "" && b != "object" {
					refs = append(refs, Ref{Kind: "extends", Target: b})
				}
			}
		}
		artifacts = append(artifacts, Artifact{Kind: "class", Name: m[1], FilePath: path, Language: "python", Refs: refs})
	}

	var refs []Ref
	for _, m := range pyImportRe.FindAllStringSubmatch(src, -1) {
		for _, mod := range strings.Split(m[1], ",") {
			mod = strings.TrimSpace(mod)
			if mod != "" {
				refs = append(refs, Ref{Kind: "imports", Target: mod})
			}
		}
	}
	for _, m := range pyFromImportRe.FindAllStringSubmatch(src, -1) {
		refs = append(refs, Ref{Kind: "imports", Target: m[1]})
	}
	if len(refs) > 0 {
		artifacts = append(artifacts, Artifact{Kind: "file", Name: path, FilePath: path, Language: "python", Refs: refs})
	}

	return artifacts, nil
}
