// Package pipeline implements the mutation pipeline (C3): validate, version,
// and audit a mutation as a single atomic unit against the Schema Registry
// and the Temporal Store.
//
// Grounded on services.DeletionCollector's shape — a small struct wrapping
// a repository, exposing focused operations with their own error handling —
// generalized from "repository" (tag-based) to graphstore.Store.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/memgraph/memgraph/graphstore"
	"github.com/memgraph/memgraph/logger"
	"github.com/memgraph/memgraph/memerr"
	"github.com/memgraph/memgraph/schema"
)

// Clock abstracts time.Now so tests can pin timestamps; production code
// uses the default real clock.
type Clock func() time.Time

// Pipeline wires the Schema Registry to a Store and exposes the four
// agent-facing mutation operations.
type Pipeline struct {
	store    graphstore.Store
	registry *schema.Registry
	now      Clock
}

// New returns a Pipeline. If clock is nil, time.Now is used.
func New(store graphstore.Store, registry *schema.Registry, clock Clock) *Pipeline {
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{store: store, registry: registry, now: clock}
}

// UpsertResult is returned by Upsert.
type UpsertResult struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Created bool   `json:"created"`
}

// Upsert implements spec.md §4.3's upsert: validate against the compiled
// node validator, generate an id when omitted, and create or update
// depending on whether a current head already exists.
func (p *Pipeline) Upsert(ctx context.Context, label string, id string, props map[string]any, actor string) (UpsertResult, error) {
	normalized, err := p.registry.ValidateNode(label, props)
	if err != nil {
		return UpsertResult{}, err
	}

	if id == "" {
		id = uuid.NewString()
	}

	existing, err := p.store.GetCurrent(ctx, id)
	if err != nil {
		return UpsertResult{}, err
	}

	now := p.now()
	auditID := uuid.NewString()

	if existing == nil {
		logger.TraceIf("pipeline", "creating %s %s", label, id)
		state, err := p.store.CreateEntity(ctx, id, label, normalized, actor, now, auditID)
		if err != nil {
			return UpsertResult{}, err
		}
		return UpsertResult{ID: id, Version: state.Version, Created: true}, nil
	}

	changes := diffChanges(existing.State.Properties, normalized)
	logger.TraceIf("pipeline", "updating %s %s: %d field(s) changed", label, id, len(changes))
	state, err := p.store.UpdateEntity(ctx, id, normalized, actor, now, auditID, changes)
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{ID: id, Version: state.Version, Created: false}, nil
}

// Delete soft-deletes an entity. Deleting an already-deleted entity is
// idempotent, per spec.md §4.3.
func (p *Pipeline) Delete(ctx context.Context, id, actor string) error {
	return p.store.SoftDeleteEntity(ctx, id, actor, p.now(), uuid.NewString())
}

// Relate validates the edge against the (fromLabel, type, toLabel)
// validator and forwards to CreateRelationship.
func (p *Pipeline) Relate(ctx context.Context, fromID, toID, typ, fromLabel, toLabel string, props map[string]any, actor string) error {
	normalized, err := p.registry.ValidateEdge(fromLabel, typ, toLabel, props)
	if err != nil {
		return err
	}
	_, err = p.store.CreateRelationship(ctx, fromID, toID, typ, normalized, actor, p.now(), uuid.NewString())
	return err
}

// Unrelate closes the active edge of the given type; a no-op if none is
// active.
func (p *Pipeline) Unrelate(ctx context.Context, fromID, toID, typ, actor string) error {
	return p.store.CloseRelationship(ctx, fromID, toID, typ, actor, p.now(), uuid.NewString())
}

// UpsertRequest is one member of a BatchUpsert call.
type UpsertRequest struct {
	Label string
	ID    string
	Props map[string]any
	Actor string
}

// BatchItemResult pairs one request with its outcome.
type BatchItemResult struct {
	Request UpsertRequest
	Result  UpsertResult
	Err     error
}

// BatchResult is the outcome of BatchUpsert.
type BatchResult struct {
	Items []BatchItemResult
}

// BatchUpsert validates every member first — accumulating ValidationErrors
// without committing anything — then commits each valid member in its own
// transaction, accumulating per-member failures. This matches spec.md §7's
// propagation policy for batch operations.
func (p *Pipeline) BatchUpsert(ctx context.Context, requests []UpsertRequest) BatchResult {
	normalized := make([]map[string]any, len(requests))
	validationErrs := make([]error, len(requests))
	for i, req := range requests {
		n, err := p.registry.ValidateNode(req.Label, req.Props)
		normalized[i] = n
		validationErrs[i] = err
	}

	items := make([]BatchItemResult, len(requests))
	for i, req := range requests {
		items[i].Request = req
		if validationErrs[i] != nil {
			items[i].Err = validationErrs[i]
			continue
		}
		res, err := p.Upsert(ctx, req.Label, req.ID, req.Props, req.Actor)
		items[i].Result = res
		items[i].Err = err
	}

	return BatchResult{Items: items}
}

// diffChanges produces the property-delta map passed to UpdateEntity's audit
// record: a flat {property: newValue} map for every property that changed,
// was added, or was removed (a removed property maps to nil). This is the
// lightweight delta the store's audit log carries inline, not the reader
// package's full old/new Diff.
func diffChanges(oldProps, newProps map[string]any) map[string]any {
	changes := map[string]any{}
	for k, v := range newProps {
		if old, ok := oldProps[k]; !ok || !deepEqual(old, v) {
			changes[k] = v
		}
	}
	for k := range oldProps {
		if _, ok := newProps[k]; !ok {
			changes[k] = nil
		}
	}
	return changes
}

func deepEqual(a, b any) bool {
	return fieldsEqual(a, b)
}

// fieldsEqual compares two dynamically-typed property values recursively.
// Other scalars, numbers included, compare with ==, so an int and a float64
// of the same value are unequal; the schema normalizes number-kind
// properties to float64 before they reach here.
func fieldsEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !fieldsEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !fieldsEqual(v, bv[k]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// ErrEntityExists is an alias of memerr.NotFound; Upsert does not return
// it. Upserting the id of a soft-deleted entity finds no current head, so
// Upsert calls CreateEntity with an id the store already holds, and memstore
// rejects that with a ValidationError ("entity already exists").
var ErrEntityExists = memerr.NotFound
