package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/memgraph/memgraph/graphstore"
)

// GetCurrent implements graphstore.Store. Returns nil, nil if the entity is
// deleted or unknown.
func (s *Store) GetCurrent(ctx context.Context, id string) (*graphstore.EntityState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.entities[id]
	if !ok || rec.entity.DeletedAt != nil || len(rec.states) == 0 {
		return nil, nil
	}
	head := rec.states[len(rec.states)-1]
	if !head.IsCurrent() {
		return nil, nil
	}
	return &graphstore.EntityState{Entity: rec.entity, State: head}, nil
}

// GetAtTime implements graphstore.Store: the state whose validity interval
// contains t, walking the version chain from the head back to v1.
func (s *Store) GetAtTime(ctx context.Context, id string, t time.Time) (*graphstore.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.entities[id]
	if !ok {
		return nil, nil
	}
	for i := len(rec.states) - 1; i >= 0; i-- {
		st := rec.states[i]
		if t.Before(st.ValidFrom) {
			continue
		}
		if st.ValidTo == nil || t.Before(*st.ValidTo) {
			out := st
			return &out, nil
		}
	}
	return nil, nil
}

// GetHistory implements graphstore.Store, ordered by descending version.
func (s *Store) GetHistory(ctx context.Context, id string) ([]graphstore.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.entities[id]
	if !ok {
		return nil, nil
	}
	out := make([]graphstore.State, len(rec.states))
	copy(out, rec.states)
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

// QueryByLabel implements graphstore.Store: all non-deleted entities of
// label whose head state is active.
func (s *Store) QueryByLabel(ctx context.Context, label string) ([]graphstore.EntityState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []graphstore.EntityState
	for _, rec := range s.entities {
		if rec.entity.Label != label || rec.entity.DeletedAt != nil || len(rec.states) == 0 {
			continue
		}
		head := rec.states[len(rec.states)-1]
		if !head.IsCurrent() {
			continue
		}
		out = append(out, graphstore.EntityState{Entity: rec.entity, State: head})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity.ID < out[j].Entity.ID })
	return out, nil
}

// reservedEdgeTypes mirrors schema.reservedEdgeTypes; GetRelationships must
// never surface the structural edges that back the version chain.
var reservedEdgeTypes = map[string]bool{"CURRENT": true, "PREVIOUS": true, "AUDITED": true}

// GetRelationships implements graphstore.Store: active outgoing and
// incoming edges, direction-tagged, excluding reserved structural edges.
func (s *Store) GetRelationships(ctx context.Context, id string) ([]graphstore.DirectedRelationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []graphstore.DirectedRelationship
	for _, r := range s.relations {
		if !r.IsActive() || reservedEdgeTypes[r.Type] {
			continue
		}
		switch {
		case r.FromID == id:
			out = append(out, graphstore.DirectedRelationship{Relationship: r, Direction: graphstore.DirectionOutgoing})
		case r.ToID == id:
			out = append(out, graphstore.DirectedRelationship{Relationship: r, Direction: graphstore.DirectionIncoming})
		}
	}
	return out, nil
}

// ChangesSince implements graphstore.Store: entities whose audit log
// contains an entry after t, most recently active first.
func (s *Store) ChangesSince(ctx context.Context, since time.Time, labels, actors []string, limit int) ([]graphstore.ChangeSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	labelSet := toSet(labels)
	actorSet := toSet(actors)

	latest := map[string]graphstore.ChangeSummary{}
	for _, a := range s.audit {
		if !a.Timestamp.After(since) {
			continue
		}
		if len(labelSet) > 0 && !labelSet[a.EntityLabel] {
			continue
		}
		if len(actorSet) > 0 && !actorSet[a.Actor] {
			continue
		}
		cur, seen := latest[a.EntityID]
		if !seen || a.Timestamp.After(cur.LastActivity) {
			latest[a.EntityID] = graphstore.ChangeSummary{
				EntityID: a.EntityID, EntityLabel: a.EntityLabel,
				LastAction: a.Action, LastActor: a.Actor, LastActivity: a.Timestamp,
			}
		}
	}

	out := make([]graphstore.ChangeSummary, 0, len(latest))
	for _, v := range latest {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Search implements graphstore.Store: filter current-head state of label by
// conjunctive predicates.
func (s *Store) Search(ctx context.Context, label string, filters []graphstore.Filter, limit int, orderBy *graphstore.OrderBy) ([]graphstore.EntityState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candidates, err := s.QueryByLabel(ctx, label)
	if err != nil {
		return nil, err
	}

	out := candidates[:0:0]
	for _, es := range candidates {
		if matchesAll(es.State.Properties, filters) {
			out = append(out, es)
		}
	}

	if orderBy != nil {
		sort.SliceStable(out, func(i, j int) bool {
			less := compareLess(out[i].State.Properties[orderBy.Property], out[j].State.Properties[orderBy.Property])
			if orderBy.Descending {
				return !less && out[i].State.Properties[orderBy.Property] != out[j].State.Properties[orderBy.Property]
			}
			return less
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SnapshotAt implements graphstore.Store: every matching entity's state at
// t plus every edge active at t.
func (s *Store) SnapshotAt(ctx context.Context, at time.Time, labels []string) (*graphstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	labelSet := toSet(labels)
	snap := &graphstore.Snapshot{At: at}

	for _, rec := range s.entities {
		if len(labelSet) > 0 && !labelSet[rec.entity.Label] {
			continue
		}
		if rec.entity.CreatedAt.After(at) {
			continue
		}
		for i := len(rec.states) - 1; i >= 0; i-- {
			st := rec.states[i]
			if at.Before(st.ValidFrom) {
				continue
			}
			if st.ValidTo == nil || at.Before(*st.ValidTo) {
				snap.Entities = append(snap.Entities, graphstore.EntityState{Entity: rec.entity, State: st})
				break
			}
		}
	}

	for _, r := range s.relations {
		if reservedEdgeTypes[r.Type] {
			continue
		}
		if r.ValidFrom.After(at) {
			continue
		}
		if r.ValidTo == nil || at.Before(*r.ValidTo) {
			snap.Edges = append(snap.Edges, r)
		}
	}

	sort.Slice(snap.Entities, func(i, j int) bool { return snap.Entities[i].Entity.ID < snap.Entities[j].Entity.ID })
	return snap, nil
}

// GetAuditLog implements graphstore.Store: every audit entry recorded for
// id, oldest first.
func (s *Store) GetAuditLog(ctx context.Context, id string) ([]graphstore.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []graphstore.AuditEntry
	for _, a := range s.audit {
		if a.EntityID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func toSet(vals []string) map[string]bool {
	if len(vals) == 0 {
		return nil
	}
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

func matchesAll(props map[string]any, filters []graphstore.Filter) bool {
	for _, f := range filters {
		if !matches(props[f.Property], f) {
			return false
		}
	}
	return true
}

func matches(actual any, f graphstore.Filter) bool {
	switch f.Op {
	case graphstore.OpEq:
		return fmt.Sprint(actual) == fmt.Sprint(f.Value)
	case graphstore.OpContains:
		as, aok := actual.(string)
		vs, vok := f.Value.(string)
		return aok && vok && strings.Contains(as, vs)
	case graphstore.OpGT:
		return compareLess(f.Value, actual)
	case graphstore.OpLT:
		return compareLess(actual, f.Value)
	case graphstore.OpGTE:
		return !compareLess(actual, f.Value)
	case graphstore.OpLTE:
		return !compareLess(f.Value, actual)
	case graphstore.OpIn:
		list, ok := f.Value.([]any)
		if !ok {
			return false
		}
		for _, v := range list {
			if fmt.Sprint(v) == fmt.Sprint(actual) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// compareLess gives a best-effort ordering across the dynamic types a
// property value may hold (float64, string, time.Time, or their common
// decoded forms), returning false rather than panicking when the two
// operands are not comparable.
func compareLess(a, b any) bool {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	}
	return false
}
