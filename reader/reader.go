// Package reader implements the Temporal Reader (C4): a thin projection
// over graphstore.Store plus the two derived operations, diff and
// changelog, that the store itself has no notion of.
package reader

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/memgraph/memgraph/graphstore"
)

// Reader is a read-only facade over a Store.
type Reader struct {
	store graphstore.Store
}

// New returns a Reader over store.
func New(store graphstore.Store) *Reader {
	return &Reader{store: store}
}

// Current returns the entity's head state, or nil if it is deleted or
// unknown.
func (r *Reader) Current(ctx context.Context, id string) (*graphstore.EntityState, error) {
	return r.store.GetCurrent(ctx, id)
}

// AtTime returns the state whose validity interval contains t.
func (r *Reader) AtTime(ctx context.Context, id string, t time.Time) (*graphstore.State, error) {
	return r.store.GetAtTime(ctx, id, t)
}

// History returns every version of id, most recent first.
func (r *Reader) History(ctx context.Context, id string) ([]graphstore.State, error) {
	return r.store.GetHistory(ctx, id)
}

// ByLabel returns every non-deleted current-head entity of label.
func (r *Reader) ByLabel(ctx context.Context, label string) ([]graphstore.EntityState, error) {
	return r.store.QueryByLabel(ctx, label)
}

// Relationships returns id's active edges, direction-tagged.
func (r *Reader) Relationships(ctx context.Context, id string) ([]graphstore.DirectedRelationship, error) {
	return r.store.GetRelationships(ctx, id)
}

// ChangesSince returns entities with audit activity strictly after t.
func (r *Reader) ChangesSince(ctx context.Context, since time.Time, labels, actors []string, limit int) ([]graphstore.ChangeSummary, error) {
	return r.store.ChangesSince(ctx, since, labels, actors, limit)
}

// Search filters label's current-head state by conjunctive predicates.
func (r *Reader) Search(ctx context.Context, label string, filters []graphstore.Filter, limit int, orderBy *graphstore.OrderBy) ([]graphstore.EntityState, error) {
	return r.store.Search(ctx, label, filters, limit, orderBy)
}

// SnapshotAt returns every matching entity's state plus every edge active
// at t.
func (r *Reader) SnapshotAt(ctx context.Context, at time.Time, labels []string) (*graphstore.Snapshot, error) {
	return r.store.SnapshotAt(ctx, at, labels)
}

// PropertyChange is one changed, added, or removed user property between
// two states.
type PropertyChange struct {
	Property string `json:"property"`
	Old      any    `json:"old,omitempty"`
	New      any    `json:"new,omitempty"`
}

// Diff is the result of diffing two states of the same entity.
type Diff struct {
	EntityID    string           `json:"entityId"`
	FromVersion int              `json:"fromVersion"`
	ToVersion   int              `json:"toVersion"`
	Changes     []PropertyChange `json:"changes"`
}

// DiffStates computes the set difference over user properties between two
// states of the same entity, skipping underscore-prefixed temporal keys and
// comparing values with deep-structural equality. A property present on
// only one side is reported as an add or remove (nil on the absent side).
func DiffStates(oldState, newState graphstore.State) Diff {
	d := Diff{EntityID: newState.EntityID, FromVersion: oldState.Version, ToVersion: newState.Version}

	keys := map[string]struct{}{}
	for k := range oldState.Properties {
		if !isTemporalKey(k) {
			keys[k] = struct{}{}
		}
	}
	for k := range newState.Properties {
		if !isTemporalKey(k) {
			keys[k] = struct{}{}
		}
	}

	var names []string
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		oldVal, oldOK := oldState.Properties[k]
		newVal, newOK := newState.Properties[k]
		if oldOK && newOK && deepEqual(oldVal, newVal) {
			continue
		}
		change := PropertyChange{Property: k}
		if oldOK {
			change.Old = oldVal
		}
		if newOK {
			change.New = newVal
		}
		d.Changes = append(d.Changes, change)
	}
	return d
}

// isTemporalKey reports whether a property key is one of the reserved
// underscore-prefixed bookkeeping keys that diff and changelog must skip.
func isTemporalKey(k string) bool {
	return strings.HasPrefix(k, "_")
}

// Changelog sorts an entity's history ascending by version and returns the
// pairwise diff of each adjacent pair.
func (r *Reader) Changelog(ctx context.Context, id string) ([]Diff, error) {
	history, err := r.store.GetHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Version < history[j].Version })

	var diffs []Diff
	for i := 1; i < len(history); i++ {
		diffs = append(diffs, DiffStates(history[i-1], history[i]))
	}
	return diffs, nil
}

// deepEqual recursively compares two dynamically-typed property values.
func deepEqual(a, b any) bool {
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
			if !deepEqual(av[i], bv[i]) {
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
			if !deepEqual(v, bv[k]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
