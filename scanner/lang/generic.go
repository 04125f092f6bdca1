package lang

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
)

// GenericParser recognizes a handful of manifest basenames (package.json,
// tsconfig.json, .env, Dockerfile), falls back to a bare JSON parse for
// other .json files, and otherwise emits a bare file artifact.
type GenericParser struct{}

func NewGeneric() *GenericParser { return &GenericParser{} }

func (p *GenericParser) Languages() []string { return []string{"generic"} }

var envLineRe = regexp.MustCompile(`(?m)^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=`)

func (p *GenericParser) Parse(path string, content []byte) ([]Artifact, error) {
	switch filepath.Base(path) {
	case "package.json":
		return p.parsePackageJSON(path, content)
	case "tsconfig.json":
		return []Artifact{{Kind: "config_key", Name: "tsconfig", FilePath: path, Language: "generic"}}, nil
	case ".env":
		return p.parseEnv(path, content), nil
	case "Dockerfile":
		return []Artifact{{Kind: "file", Name: path, FilePath: path, Language: "generic", Meta: map[string]any{"manifest": "dockerfile"}}}, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var probe any
		if json.Unmarshal(content, &probe) == nil {
			return []Artifact{{Kind: "file", Name: path, FilePath: path, Language: "generic", Meta: map[string]any{"manifest": "json"}}}, nil
		}
	}

	return []Artifact{{Kind: "file", Name: path, FilePath: path, Language: "generic"}}, nil
}

func (p *GenericParser) parsePackageJSON(path string, content []byte) ([]Artifact, error) {
	var manifest struct {
		Name            string            `json:"name"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(content, &manifest); err != nil {
		return []Artifact{{Kind: "file", Name: path, FilePath: path, Language: "generic"}}, nil
	}

	name := manifest.Name
	if name == "" {
		name = path
	}
	artifacts := []Artifact{{Kind: "module", Name: name, FilePath: path, Language: "generic"}}

	for dep := range manifest.Dependencies {
		artifacts = append(artifacts, Artifact{
			Kind: "dependency", Name: dep, FilePath: path, Language: "generic",
			Refs: []Ref{{Kind: "depends_on", Target: dep}},
		})
	}
	for dep := range manifest.DevDependencies {
		artifacts = append(artifacts, Artifact{
			Kind: "dependency", Name: dep, FilePath: path, Language: "generic",
			Meta: map[string]any{"dev": true},
			Refs: []Ref{{Kind: "depends_on", Target: dep}},
		})
	}
	return artifacts, nil
}

func (p *GenericParser) parseEnv(path string, content []byte) []Artifact {
	var artifacts []Artifact
	for _, m := range envLineRe.FindAllStringSubmatch(string(content), -1) {
		artifacts = append(artifacts, Artifact{Kind: "env_var", Name: m[1], FilePath: path, Language: "generic"})
	}
	return artifacts
}
