package neo4jstore

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/memgraph/memgraph/graphstore"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// neoRecord aliases the driver's record type so the marshalling helpers in
// this file read the same whether called from a single-record or streaming
// result loop.
type neoRecord = neo4j.Record

func parseTime(v any) time.Time {
	switch t := v.(type) {
	case string:
		parsed, _ := time.Parse(time.RFC3339Nano, t)
		return parsed
	case time.Time:
		return t
	case dbtype.LocalDateTime:
		return t.Time()
	default:
		return time.Time{}
	}
}

func actorString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func propsMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func stateFromNode(node any, entityID string) graphstore.State {
	n, ok := node.(dbtype.Node)
	if !ok {
		return graphstore.State{EntityID: entityID}
	}
	props := n.Props
	st := graphstore.State{
		EntityID:   entityID,
		Version:    int(toInt64(props["version"])),
		ValidFrom:  parseTime(props["validFrom"]),
		RecordedAt: parseTime(props["recordedAt"]),
		Actor:      actorString(props["actor"]),
		Properties: propsMap(props["props"]),
	}
	if vt, ok := props["validTo"]; ok && vt != nil {
		t := parseTime(vt)
		st.ValidTo = &t
	}
	return st
}

func entityFromNode(node any, label string) graphstore.Entity {
	n, ok := node.(dbtype.Node)
	if !ok {
		return graphstore.Entity{Label: label}
	}
	props := n.Props
	e := graphstore.Entity{
		ID:        actorString(props["id"]),
		Label:     label,
		CreatedAt: parseTime(props["_createdAt"]),
	}
	if d, ok := props["_deletedAt"]; ok && d != nil {
		t := parseTime(d)
		e.DeletedAt = &t
	}
	if db, ok := props["_deletedBy"]; ok && db != nil {
		e.DeletedBy = actorString(db)
	}
	return e
}

func recordToEntityState(record *neoRecord) (any, error) {
	eNode, _ := record.Get("e")
	label, _ := record.Get("label")
	stNode, _ := record.Get("st")

	lbl := actorString(label)
	entity := entityFromNode(eNode, lbl)
	state := stateFromNode(stNode, entity.ID)
	return graphstore.EntityState{Entity: entity, State: state}, nil
}

func recordToEntityStateWithLabel(record *neoRecord, label string) (graphstore.EntityState, error) {
	eNode, _ := record.Get("e")
	stNode, _ := record.Get("st")
	entity := entityFromNode(eNode, label)
	state := stateFromNode(stNode, entity.ID)
	return graphstore.EntityState{Entity: entity, State: state}, nil
}

func filterLocally(all []graphstore.EntityState, filters []graphstore.Filter, limit int, orderBy *graphstore.OrderBy) []graphstore.EntityState {
	out := all[:0:0]
	for _, es := range all {
		if matchesAll(es.State.Properties, filters) {
			out = append(out, es)
		}
	}
	if orderBy != nil {
		sortByProperty(out, *orderBy)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortByProperty(items []graphstore.EntityState, ob graphstore.OrderBy) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].State.Properties[ob.Property], items[j].State.Properties[ob.Property]
		as, aok := a.(string)
		bs, bok := b.(string)
		var less bool
		if aok && bok {
			less = as < bs
		}
		if ob.Descending {
			return !less
		}
		return less
	})
}

func matchesAll(props map[string]any, filters []graphstore.Filter) bool {
	for _, f := range filters {
		v, ok := props[f.Property]
		if !ok {
			return false
		}
		switch f.Op {
		case graphstore.OpEq:
			if fmt.Sprint(v) != fmt.Sprint(f.Value) {
				return false
			}
		case graphstore.OpContains:
			s, ok := v.(string)
			target, ok2 := f.Value.(string)
			if !ok || !ok2 || !strings.Contains(s, target) {
				return false
			}
		case graphstore.OpGT:
			if !compareLess(f.Value, v) {
				return false
			}
		case graphstore.OpLT:
			if !compareLess(v, f.Value) {
				return false
			}
		case graphstore.OpGTE:
			if compareLess(v, f.Value) {
				return false
			}
		case graphstore.OpLTE:
			if compareLess(f.Value, v) {
				return false
			}
		case graphstore.OpIn:
			values, ok := f.Value.([]any)
			if !ok {
				return false
			}
			found := false
			for _, candidate := range values {
				if fmt.Sprint(candidate) == fmt.Sprint(v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// compareLess reports whether a < b for the property value types the store
// supports: numbers, strings, and RFC3339-ish times. Unlike memstore's
// comparison, two strings that both parse as RFC3339 timestamps are ordered
// by time rather than lexically.
func compareLess(a, b any) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av < bv
	case string:
		if bt, err := time.Parse(time.RFC3339Nano, av); err == nil {
			if bv, ok := b.(string); ok {
				if bbt, err := time.Parse(time.RFC3339Nano, bv); err == nil {
					return bt.Before(bbt)
				}
			}
		}
		bv, ok := b.(string)
		return ok && av < bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Before(bv)
	default:
		return false
	}
}
