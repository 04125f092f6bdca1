// Package scanner implements the Codebase Scanner (C7): a five-stage
// pipeline (discover, incremental, parse, map, ingest) that turns a
// filesystem tree (or a freshly shallow-cloned remote repository) into
// entities and relationships through the mutation pipeline. Grounded on
// vjache-cie/pkg/ingestion's own discover→parse→map→ingest shape, adapted
// from that repo's CozoDB-backed entity/function/call extraction to
// memgraph's schema-registry-mapped, temporal graph target.
package scanner

import (
	"github.com/memgraph/memgraph/config"
)

// RefKind names the kind of a typed pointer from one artifact to another.
type RefKind string

const (
	RefImports    RefKind = "imports"
	RefExtends    RefKind = "extends"
	RefImplements RefKind = "implements"
	RefCalls      RefKind = "calls"
	RefDependsOn  RefKind = "depends_on"
	RefConfigures RefKind = "configures"
)

// relationshipForRef maps a RefKind to the structural relationship type
// created between two ingested entities that share it.
var relationshipForRef = map[RefKind]string{
	RefImports:    "IMPORTS",
	RefExtends:    "EXTENDS",
	RefImplements: "IMPLEMENTS",
	RefCalls:      "CALLS",
	RefDependsOn:  "DEPENDS_ON",
	RefConfigures: "CONFIGURES",
}

// ArtifactKind is drawn from a closed set recognized by every parser.
type ArtifactKind string

const (
	KindFile        ArtifactKind = "file"
	KindModule      ArtifactKind = "module"
	KindFunction    ArtifactKind = "function"
	KindClass       ArtifactKind = "class"
	KindInterface   ArtifactKind = "interface"
	KindType        ArtifactKind = "type"
	KindAPIEndpoint ArtifactKind = "api_endpoint"
	KindDependency  ArtifactKind = "dependency"
	KindEnvVar      ArtifactKind = "env_var"
	KindConfigKey   ArtifactKind = "config_key"
	KindExport      ArtifactKind = "export"
)

// Location points into the source file an artifact was parsed from.
type Location struct {
	Line int `json:"line,omitempty"`
}

// Ref is a typed pointer from an artifact to an external name, resolved
// during ingest against the rest of the batch.
type Ref struct {
	Kind   RefKind `json:"kind"`
	Target string  `json:"target"`
}

// RawArtifact is one thing a language parser found in a source file.
type RawArtifact struct {
	Kind     ArtifactKind   `json:"kind"`
	Name     string         `json:"name"`
	FilePath string         `json:"filePath"`
	Language string         `json:"language"`
	Meta     map[string]any `json:"meta,omitempty"`
	Location *Location      `json:"location,omitempty"`
	Refs     []Ref          `json:"refs,omitempty"`
}

// FileFingerprint is the persisted record for one discovered file.
type FileFingerprint struct {
	Hash    string `json:"hash"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"modTime"`
}

// FingerprintStore is the whole-file-rewritten JSON map under
// <root>/.scanstate/fingerprints.
type FingerprintStore map[string]FileFingerprint

// Options configures one Scan call. Mappings, Include/Exclude, and
// Languages come straight off config.ScanConfig; Target/DryRun/Actor are
// supplied per invocation.
type Options struct {
	Target    string
	DryRun    bool
	Actor     string
	Include   []string
	Exclude   []string
	Languages []string
	Mappings  []config.MappingRule
	Remote    *config.RemoteConfig
}

// SkipReason counts why a candidate file did not produce an entity.
type SkipReason string

const (
	SkipExcluded      SkipReason = "excluded"
	SkipUnparseable   SkipReason = "unparseable_language"
	SkipParseError    SkipReason = "parse_error"
	SkipUnmapped      SkipReason = "unmapped"
	SkipFilteredOut   SkipReason = "filter_excluded"
	SkipUnchanged     SkipReason = "unchanged"
)

// Result summarizes one Scan call.
type Result struct {
	FilesDiscovered   int
	FilesParsed       int
	FilesSkipped      int
	FilesRemoved      int
	EntitiesUpserted  int
	EntitiesUnmapped  int
	RelationshipsMade int
	Errors            []string
	SkipCounts        map[SkipReason]int
	DryRun            bool
}
