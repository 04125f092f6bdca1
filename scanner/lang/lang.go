// Package lang implements the scanner's pluggable per-language parser
// registry, grounded on spec.md §9's "Scanner with overridable parsers"
// design note: a LanguageParser is a capability keyed by language name,
// and later registrations win over earlier ones including the built-ins.
package lang

import (
	"path/filepath"
	"strings"
)

// Artifact mirrors scanner.RawArtifact without importing the scanner
// package, avoiding an import cycle (scanner imports lang, not vice versa).
type Artifact struct {
	Kind     string
	Name     string
	FilePath string
	Language string
	Meta     map[string]any
	Line     int
	Refs     []Ref
}

// Ref mirrors scanner.Ref.
type Ref struct {
	Kind   string
	Target string
}

// Parser consumes one file's content and yields the artifacts it finds.
// A parser error aborts only that one file; the scanner skips it and
// continues.
type Parser interface {
	Languages() []string
	Parse(path string, content []byte) ([]Artifact, error)
}

// Registry dispatches to a Parser by detected language, with later
// registrations overriding earlier ones for a given language name.
type Registry struct {
	byLanguage map[string]Parser
}

// NewRegistry returns a Registry pre-loaded with the built-in parsers:
// Typed-JS, Python, Go, Rust, Java, and Generic.
func NewRegistry() *Registry {
	r := &Registry{byLanguage: make(map[string]Parser)}
	r.Register(NewTypedJS())
	r.Register(NewPython())
	r.Register(NewGo())
	r.Register(NewRust())
	r.Register(NewJava())
	r.Register(NewGeneric())
	return r
}

// Register installs p for every language it declares, overriding any
// parser already registered for that language.
func (r *Registry) Register(p Parser) {
	for _, l := range p.Languages() {
		r.byLanguage[l] = p
	}
}

// For returns the parser registered for language, or the generic parser
// if none is registered.
func (r *Registry) For(language string) Parser {
	if p, ok := r.byLanguage[language]; ok {
		return p
	}
	return r.byLanguage["generic"]
}

// basenameLanguage maps a recognized basename directly to a language,
// independent of extension. Checked before extension-based detection.
var basenameLanguage = map[string]string{
	"go.mod":         "go",
	"package.json":   "generic",
	"tsconfig.json":  "generic",
	".env":           "generic",
	"Dockerfile":     "generic",
}

// extLanguage maps a file extension to a language family.
var extLanguage = map[string]string{
	".go":   "go",
	".py":   "python",
	".ts":   "typedjs",
	".tsx":  "typedjs",
	".js":   "typedjs",
	".jsx":  "typedjs",
	".rs":   "rust",
	".java": "java",
	".json": "generic",
}

// Detect returns the language for path: basename match first, then
// extension, falling through to "generic".
func Detect(path string) string {
	base := filepath.Base(path)
	if l, ok := basenameLanguage[base]; ok {
		return l
	}
	ext := strings.ToLower(filepath.Ext(path))
	if l, ok := extLanguage[ext]; ok {
		return l
	}
	return "generic"
}
