package scanner

import (
	"context"

	"github.com/memgraph/memgraph/pipeline"
)

// ingestBatch is the set of entities mapped in one scan, indexed for ref
// resolution during the relationship pass.
type ingestBatch struct {
	byID      map[string]mappedEntity
	idsByName map[string][]string // name -> candidate entity ids
	idByPath  map[string]string   // file path -> entity id (file-kind artifacts only)
	labelOf   map[string]string   // entity id -> label
}

func newIngestBatch() *ingestBatch {
	return &ingestBatch{
		byID:      map[string]mappedEntity{},
		idsByName: map[string][]string{},
		idByPath:  map[string]string{},
		labelOf:   map[string]string{},
	}
}

// ingest runs the two ingest passes described in spec.md §4.7: upsert
// every mapped entity, then resolve refs against the batch and create
// relationships for the ones that map to a declared relationship type.
// Per-artifact and per-relationship failures are accumulated, never
// aborting the batch.
func ingest(ctx context.Context, p *pipeline.Pipeline, root string, mapped []mappedEntity, actor string, dryRun bool, result *Result) {
	batch := newIngestBatch()

	for _, m := range mapped {
		id := entityID(root, m.artifact.FilePath, m.artifact.Kind, m.artifact.Name)
		batch.byID[id] = m
		batch.idsByName[m.artifact.Name] = append(batch.idsByName[m.artifact.Name], id)
		if m.artifact.Kind == KindFile {
			batch.idByPath[m.artifact.FilePath] = id
		}
		batch.labelOf[id] = m.label
	}

	if dryRun {
		result.EntitiesUpserted = len(batch.byID)
		return
	}

	for id, m := range batch.byID {
		if _, err := p.Upsert(ctx, m.label, id, m.props, actor); err != nil {
			result.Errors = append(result.Errors, "upsert "+id+": "+err.Error())
			continue
		}
		result.EntitiesUpserted++
	}

	for fromID, m := range batch.byID {
		for _, ref := range m.artifact.Refs {
			relType, ok := relationshipForRef[ref.Kind]
			if !ok {
				continue
			}
			toID, ok := resolveRef(batch, ref.Target)
			if !ok {
				continue
			}
			fromLabel, toLabel := batch.labelOf[fromID], batch.labelOf[toID]
			if err := p.Relate(ctx, fromID, toID, relType, fromLabel, toLabel, nil, actor); err != nil {
				continue // relationship failures are silent: schema may not declare this ref kind
			}
			result.RelationshipsMade++
		}
	}
}

// resolveRef implements the fallback order spec.md §4.7 mandates: direct
// id match, then name match, then file-path match for file artifacts.
func resolveRef(batch *ingestBatch, target string) (string, bool) {
	if _, ok := batch.byID[target]; ok {
		return target, true
	}
	if ids, ok := batch.idsByName[target]; ok && len(ids) > 0 {
		return ids[0], true
	}
	if id, ok := batch.idByPath[target]; ok {
		return id, true
	}
	return "", false
}
