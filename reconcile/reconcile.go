// Package reconcile implements the Reconciliation Engine (C6): computing a
// changeset between the graph's current state and a tree of rendered
// documents, resolving conflicts by strategy, and applying the result
// through the mutation pipeline and document projection.
package reconcile

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/memgraph/memgraph/docs"
	"github.com/memgraph/memgraph/docs/adapter"
	"github.com/memgraph/memgraph/graphstore"
	"github.com/memgraph/memgraph/memerr"
	"github.com/memgraph/memgraph/pipeline"
	"github.com/memgraph/memgraph/reader"
)

// Strategy names a conflict resolution policy.
type Strategy string

const (
	StrategyGraphWins Strategy = "graph-wins"
	StrategyDocsWins  Strategy = "docs-wins"
	StrategyMerge     Strategy = "merge"
	StrategyFail      Strategy = "fail"
)

// ChangeKind classifies one entity's changeset entry.
type ChangeKind string

const (
	ChangeCreate   ChangeKind = "create"
	ChangeUpdate   ChangeKind = "update"
	ChangeConflict ChangeKind = "conflict"
	ChangeNone     ChangeKind = "none"
)

// ConflictRecord names one entity whose graph and doc states have both
// drifted from the last known sync hash.
type ConflictRecord struct {
	EntityID  string   `json:"entityId"`
	Label     string   `json:"label"`
	GraphHash string   `json:"graphHash"`
	DocHash   string   `json:"docHash"`
	Strategy  Strategy `json:"strategy"`
}

// ChangeError pairs an entity with a non-fatal error encountered applying
// its change.
type ChangeError struct {
	EntityID string `json:"entityId"`
	Message  string `json:"message"`
}

// SyncResult is the outcome of one Sync call.
type SyncResult struct {
	Created   int
	Updated   int
	Deleted   int
	Conflicts []ConflictRecord
	Errors    []ChangeError
}

// Engine wires the mutation pipeline, the temporal reader, and a FormatAdapter
// to the filesystem tree that holds rendered documents.
type Engine struct {
	Pipeline *pipeline.Pipeline
	Reader   *reader.Reader
	Store    graphstore.Store
	Actor    string
}

// New returns an Engine.
func New(p *pipeline.Pipeline, r *reader.Reader, store graphstore.Store) *Engine {
	return &Engine{Pipeline: p, Reader: r, Store: store}
}

type candidate struct {
	id        string
	label     string
	graph     *graphstore.EntityState
	doc       *docs.ParsedDoc
	graphHash string
	docHash   string
}

// Sync reconciles docsDir against the graph for the given labels, using
// fa's extension to select which files to parse and fa to render
// surviving documents back out.
func (e *Engine) Sync(ctx context.Context, docsDir string, fa adapter.FormatAdapter, strategy Strategy, actor string, labels []string) (SyncResult, error) {
	var result SyncResult

	candidates, err := e.loadCandidates(ctx, docsDir, fa, labels)
	if err != nil {
		return result, err
	}

	for id, c := range candidates {
		kind, err := classify(c)
		if err != nil {
			return result, err
		}

		switch kind {
		case ChangeNone:
			continue
		case ChangeConflict:
			record := ConflictRecord{EntityID: id, Label: c.label, GraphHash: c.graphHash, DocHash: c.docHash, Strategy: strategy}
			if strategy == StrategyFail {
				return result, &memerr.ConflictError{EntityID: id, Label: c.label}
			}
			// A conflict is counted exactly once, in Conflicts; it is
			// never also counted in Updated even when resolution
			// applies a change.
			result.Conflicts = append(result.Conflicts, record)
			if err := e.applyConflict(ctx, c, strategy, actor); err != nil {
				result.Errors = append(result.Errors, ChangeError{EntityID: id, Message: err.Error()})
			}
		case ChangeCreate:
			if err := e.applyCreate(ctx, c, actor); err != nil {
				result.Errors = append(result.Errors, ChangeError{EntityID: id, Message: err.Error()})
				continue
			}
			result.Created++
		case ChangeUpdate:
			if err := e.applyUpdate(ctx, c, actor); err != nil {
				result.Errors = append(result.Errors, ChangeError{EntityID: id, Message: err.Error()})
				continue
			}
			result.Updated++
		}
	}

	if err := e.rerenderTree(ctx, docsDir, fa, labels); err != nil {
		return result, err
	}

	return result, nil
}

func (e *Engine) loadCandidates(ctx context.Context, docsDir string, fa adapter.FormatAdapter, labels []string) (map[string]*candidate, error) {
	out := map[string]*candidate{}

	for _, label := range labels {
		entities, err := e.Reader.ByLabel(ctx, label)
		if err != nil {
			return nil, err
		}
		for i := range entities {
			es := entities[i]
			out[es.Entity.ID] = &candidate{
				id: es.Entity.ID, label: label, graph: &es,
				graphHash: docs.ComputeSyncHash(es.State.Properties),
			}
		}
	}

	err := filepath.WalkDir(docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != fa.Extension() {
			return nil
		}
		raw, readErr := readFile(path)
		if readErr != nil {
			return nil
		}
		rel, _ := filepath.Rel(docsDir, path)
		parsed, parseErr := docs.ParseDoc(path, rel, raw)
		if parseErr != nil {
			return nil // missing identity: skip with warning, handled by caller's logger
		}
		id, _ := parsed.Frontmatter["_id"].(string)
		label, _ := parsed.Frontmatter["_label"].(string)
		if !containsLabel(labels, label) {
			return nil
		}
		c, ok := out[id]
		if !ok {
			c = &candidate{id: id, label: label}
			out[id] = c
		}
		parsedCopy := parsed
		c.doc = &parsedCopy
		if h, ok := parsed.Frontmatter["_syncHash"].(string); ok {
			c.docHash = h
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// classify implements the changeset rule: recompute the graph's sync hash
// and compare it to the frontmatter's recorded _syncHash. If they match,
// the graph has not moved since the doc was last rendered, so a direct
// property comparison tells us whether the doc was hand-edited. If they
// don't match, the graph has drifted since the last render and the entity
// is treated as a conflict regardless of the doc's own state.
func classify(c *candidate) (ChangeKind, error) {
	switch {
	case c.graph != nil && c.doc == nil:
		return ChangeCreate, nil
	case c.graph == nil && c.doc != nil:
		return ChangeCreate, nil
	case c.graph != nil && c.doc != nil:
		if c.graphHash != c.docHash {
			return ChangeConflict, nil
		}
		if deepEqualProps(c.graph.State.Properties, c.doc.UserProperties()) {
			return ChangeNone, nil
		}
		return ChangeUpdate, nil
	default:
		return ChangeNone, nil
	}
}

// deepEqualProps compares two property maps, skipping underscore-prefixed
// temporal keys on both sides.
func deepEqualProps(a, b map[string]any) bool {
	av, bv := stripUnderscored(a), stripUnderscored(b)
	if len(av) != len(bv) {
		return false
	}
	for k, v := range av {
		if !deepEqualValue(v, bv[k]) {
			return false
		}
	}
	return true
}

func stripUnderscored(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if !strings.HasPrefix(k, "_") {
			out[k] = v
		}
	}
	return out
}

// deepEqualValue compares a graph-side property value (normalized by
// schema.coerce into float64 for KindNumber and []string for
// KindStringList) against the same property parsed back out of a document's
// YAML frontmatter (where gopkg.in/yaml.v3 produces int for an
// integral scalar and []any for any sequence). It is permissive about both
// splits, so an unedited, re-rendered document
// compares equal to the graph state it came from instead of drifting into
// ChangeUpdate on every sync.
func deepEqualValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if an, ok := asFloat64(a); ok {
		bn, ok := asFloat64(b)
		return ok && an == bn
	}

	if al, ok := asAnySlice(a); ok {
		bl, ok := asAnySlice(b)
		if !ok || len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !deepEqualValue(al[i], bl[i]) {
				return false
			}
		}
		return true
	}

	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !deepEqualValue(v, bv[k]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// asFloat64 reports whether v is one of the numeric kinds that JSON, YAML,
// and schema.coerce produce, returning it widened to float64.
func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// asAnySlice reports whether v is a slice-typed property value, returning
// its elements widened to []any so a graph-side []string compares
// element-by-element against a doc-side []any from YAML.
func asAnySlice(v any) ([]any, bool) {
	switch sv := v.(type) {
	case []any:
		return sv, true
	case []string:
		out := make([]any, len(sv))
		for i, s := range sv {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func (e *Engine) applyCreate(ctx context.Context, c *candidate, actor string) error {
	if c.graph != nil && c.doc == nil {
		// Graph → doc: nothing to write to the graph, rerenderTree covers it.
		return nil
	}
	// Doc → graph: upsert the graph with the document's properties.
	props := c.doc.UserProperties()
	_, err := e.Pipeline.Upsert(ctx, c.label, c.id, props, actor)
	return err
}

func (e *Engine) applyUpdate(ctx context.Context, c *candidate, actor string) error {
	props := c.doc.UserProperties()
	_, err := e.Pipeline.Upsert(ctx, c.label, c.id, props, actor)
	return err
}

func (e *Engine) applyConflict(ctx context.Context, c *candidate, strategy Strategy, actor string) error {
	switch strategy {
	case StrategyGraphWins:
		// Graph keeps its properties; rerenderTree will overwrite the doc.
		return nil
	case StrategyDocsWins:
		props := c.doc.UserProperties()
		_, err := e.Pipeline.Upsert(ctx, c.label, c.id, props, actor)
		return err
	case StrategyMerge:
		merged := map[string]any{}
		if c.graph != nil {
			for k, v := range c.graph.State.Properties {
				if !strings.HasPrefix(k, "_") {
					merged[k] = v
				}
			}
		}
		for k, v := range c.doc.UserProperties() {
			merged[k] = v
		}
		_, err := e.Pipeline.Upsert(ctx, c.label, c.id, merged, actor)
		return err
	default:
		return memerr.Conflict
	}
}

// rerenderTree rewrites the entire current-state tree under docsDir for the
// given labels, using active relationships fetched through the reader.
// Re-rendering guarantees every surviving document ends with the current
// _syncHash.
func (e *Engine) rerenderTree(ctx context.Context, docsDir string, fa adapter.FormatAdapter, labels []string) error {
	var entries []adapter.IndexEntry
	for _, label := range labels {
		entities, err := e.Reader.ByLabel(ctx, label)
		if err != nil {
			return err
		}
		for _, es := range entities {
			rels, err := e.Reader.Relationships(ctx, es.Entity.ID)
			if err != nil {
				return err
			}
			raw, err := docs.RenderEntity(es.Entity, es.State, rels, fa)
			if err != nil {
				return err
			}
			relPath := docs.PathFor(label, es.Entity.ID, fa.Extension())
			if err := writeFileIfChanged(filepath.Join(docsDir, relPath), raw); err != nil {
				return err
			}
			entries = append(entries, adapter.IndexEntry{ID: es.Entity.ID, Label: label, Path: relPath})
		}
	}
	return fa.GenerateIndex(entries, docsDir)
}
