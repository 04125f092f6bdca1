package lang

import (
	"regexp"
	"strings"
)

// GoParser extracts functions (capturing a receiver when present), struct
// and interface type declarations, and import literals/blocks. A go.mod
// file yields a module artifact plus one dependency artifact per require
// line, per spec.md §4.7.
type GoParser struct{}

func NewGo() *GoParser { return &GoParser{} }

func (p *GoParser) Languages() []string { return []string{"go"} }

var (
	goFuncRe       = regexp.MustCompile(`(?m)^func\s+(?:\(([^)]*)\)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	goStructRe     = regexp.MustCompile(`(?m)^type\s+([A-Za-z_][A-Za-z0-9_]*)\s+struct\b`)
	goInterfaceRe  = regexp.MustCompile(`(?m)^type\s+([A-Za-z_][A-Za-z0-9_]*)\s+interface\b`)
	goImportLineRe = regexp.MustCompile(`(?m)^import\s+"([^"]+)"`)
	goImportBlkRe  = regexp.MustCompile(`(?s)import\s*\(([^)]*)\)`)
	goImportPathRe = regexp.MustCompile(`"([^"]+)"`)
	goModModuleRe  = regexp.MustCompile(`(?m)^module\s+(\S+)`)
	goModRequireRe = regexp.MustCompile(`(?m)^\s*([A-Za-z0-9._/\-]+)\s+v[0-9][A-Za-z0-9.\-+]*`)
)

func (p *GoParser) Parse(path string, content []byte) ([]Artifact, error) {
	if strings.HasSuffix(path, "go.mod") {
		return p.parseGoMod(path, content), nil
	}

	src := string(content)
	var artifacts []Artifact

	for _, m := range goFuncRe.FindAllStringSubmatch(src, -1) {
		receiver := strings.TrimSpace(m[1])
		name := m[2]
		meta := map[string]any{}
		if receiver != "" {
			meta["receiver"] = receiver
		}
		artifacts = append(artifacts, Artifact{
			Kind: "function", Name: name, FilePath: path, Language: "go", Meta: meta,
		})
	}

	for _, m := range goStructRe.FindAllStringSubmatch(src, -1) {
		artifacts = append(artifacts, Artifact{Kind: "type", Name: m[1], FilePath: path, Language: "go", Meta: map[string]any{"form": "struct"}})
	}
	for _, m := range goInterfaceRe.FindAllStringSubmatch(src, -1) {
		artifacts = append(artifacts, Artifact{Kind: "interface", Name: m[1], FilePath: path, Language: "go"})
	}

	var imports []string
	for _, m := range goImportLineRe.FindAllStringSubmatch(src, -1) {
		imports = append(imports, m[1])
	}
	for _, blk := range goImportBlkRe.FindAllStringSubmatch(src, -1) {
		for _, m := range goImportPathRe.FindAllStringSubmatch(blk[1], -1) {
			imports = append(imports, m[1])
		}
	}
	if len(imports) > 0 {
		refs := make([]Ref, 0, len(imports))
		for _, imp := range imports {
			refs = append(refs, Ref{Kind: "imports", Target: imp})
		}
		artifacts = append(artifacts, Artifact{
			Kind: "file", Name: path, FilePath: path, Language: "go", Refs: refs,
		})
	}

	return artifacts, nil
}

func (p *GoParser) parseGoMod(path string, content []byte) []Artifact {
	src := string(content)
	var artifacts []Artifact

	moduleName := path
	if m := goModModuleRe.FindStringSubmatch(src); m != nil {
		moduleName = m[1]
	}

	var moduleRefs []Ref
	inRequire := false
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "require (") {
			inRequire = true
			continue
		}
		if inRequire && trimmed == ")" {
			inRequire = false
			continue
		}
		isRequireLine := inRequire || strings.HasPrefix(trimmed, "require ")
		if !isRequireLine {
			continue
		}
		candidate := strings.TrimPrefix(trimmed, "require ")
		if m := goModRequireRe.FindStringSubmatch(candidate); m != nil {
			artifacts = append(artifacts, Artifact{Kind: "dependency", Name: m[1], FilePath: path, Language: "go"})
			moduleRefs = append(moduleRefs, Ref{Kind: "depends_on", Target: m[1]})
		}
	}

	artifacts = append([]Artifact{{Kind: "module", Name: moduleName, FilePath: path, Language: "go", Refs: moduleRefs}}, artifacts...)
	return artifacts
}
