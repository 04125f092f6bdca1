package neo4jstore

import (
	"context"
	"time"

	"github.com/memgraph/memgraph/graphstore"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GetCurrent implements graphstore.Store.
func (s *Store) GetCurrent(ctx context.Context, id string) (*graphstore.EntityState, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e {id: $id})
			WHERE e._deletedAt IS NULL
			MATCH (e)-[:CURRENT]->(st:State)
			RETURN e, labels(e)[0] AS label, st
		`
		result, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, nil // not found is not an error here
		}
		return recordToEntityState(record)
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	es := res.(graphstore.EntityState)
	return &es, nil
}

// GetAtTime implements graphstore.Store.
func (s *Store) GetAtTime(ctx context.Context, id string, t time.Time) (*graphstore.State, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e {id: $id})-[:CURRENT|PREVIOUS*0..]->(st:State)
			WHERE st.validFrom <= $t AND (st.validTo IS NULL OR st.validTo > $t)
			RETURN st LIMIT 1
		`
		result, err := tx.Run(ctx, query, map[string]any{"id": id, "t": t.Format(time.RFC3339Nano)})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, nil
		}
		node, _ := record.Get("st")
		return stateFromNode(node, id), nil
	})
	if err != nil || res == nil {
		return nil, err
	}
	st := res.(graphstore.State)
	return &st, nil
}

// GetHistory implements graphstore.Store.
func (s *Store) GetHistory(ctx context.Context, id string) ([]graphstore.State, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e {id: $id})-[:CURRENT|PREVIOUS*0..]->(st:State)
			RETURN st ORDER BY st.version DESC
		`
		result, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		var out []graphstore.State
		for result.Next(ctx) {
			node, _ := result.Record().Get("st")
			out = append(out, stateFromNode(node, id))
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]graphstore.State), nil
}

// QueryByLabel implements graphstore.Store.
func (s *Store) QueryByLabel(ctx context.Context, label string) ([]graphstore.EntityState, error) {
	if err := graphstore.ValidateIdentifier(label); err != nil {
		return nil, err
	}
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e:` + label + `)-[:CURRENT]->(st:State)
			WHERE e._deletedAt IS NULL
			RETURN e, st
		`
		result, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		var out []graphstore.EntityState
		for result.Next(ctx) {
			es, err := recordToEntityStateWithLabel(result.Record(), label)
			if err != nil {
				return nil, err
			}
			out = append(out, es)
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]graphstore.EntityState), nil
}

// GetRelationships implements graphstore.Store.
func (s *Store) GetRelationships(ctx context.Context, id string) ([]graphstore.DirectedRelationship, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e {id: $id})-[r]->(other)
			WHERE r.validTo IS NULL AND NOT type(r) IN ['CURRENT', 'PREVIOUS', 'AUDITED']
			RETURN type(r) AS typ, e.id AS fromId, other.id AS toId, r.validFrom AS validFrom, r.actor AS actor, r.props AS props, 'outgoing' AS direction
			UNION
			MATCH (other)-[r]->(e {id: $id})
			WHERE r.validTo IS NULL AND NOT type(r) IN ['CURRENT', 'PREVIOUS', 'AUDITED']
			RETURN type(r) AS typ, other.id AS fromId, e.id AS toId, r.validFrom AS validFrom, r.actor AS actor, r.props AS props, 'incoming' AS direction
		`
		result, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		var out []graphstore.DirectedRelationship
		for result.Next(ctx) {
			rec := result.Record()
			typ, _ := rec.Get("typ")
			fromID, _ := rec.Get("fromId")
			toID, _ := rec.Get("toId")
			validFrom, _ := rec.Get("validFrom")
			actor, _ := rec.Get("actor")
			props, _ := rec.Get("props")
			direction, _ := rec.Get("direction")

			dr := graphstore.DirectedRelationship{
				Relationship: graphstore.Relationship{
					Type: typ.(string), FromID: fromID.(string), ToID: toID.(string),
					ValidFrom: parseTime(validFrom), Actor: actorString(actor),
					Properties: propsMap(props),
				},
				Direction: graphstore.Direction(direction.(string)),
			}
			out = append(out, dr)
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]graphstore.DirectedRelationship), nil
}

// ChangesSince implements graphstore.Store.
func (s *Store) ChangesSince(ctx context.Context, since time.Time, labels, actors []string, limit int) ([]graphstore.ChangeSummary, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e)-[:AUDITED]->(a:AuditEntry)
			WHERE a.timestamp > $since
			  AND ($labels IS NULL OR a.entityLabel IN $labels)
			  AND ($actors IS NULL OR a.actor IN $actors)
			WITH a.entityId AS entityId, a.entityLabel AS entityLabel, a ORDER BY a.timestamp DESC
			WITH entityId, collect(a)[0] AS latest, entityLabel
			RETURN entityId, entityLabel, latest.action AS action, latest.actor AS actor, latest.timestamp AS ts
			ORDER BY ts DESC
			LIMIT $limit
		`
		params := map[string]any{
			"since": since.Format(time.RFC3339Nano), "limit": effectiveLimit(limit),
		}
		if len(labels) > 0 {
			params["labels"] = labels
		} else {
			params["labels"] = nil
		}
		if len(actors) > 0 {
			params["actors"] = actors
		} else {
			params["actors"] = nil
		}
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var out []graphstore.ChangeSummary
		for result.Next(ctx) {
			rec := result.Record()
			entityID, _ := rec.Get("entityId")
			entityLabel, _ := rec.Get("entityLabel")
			action, _ := rec.Get("action")
			actor, _ := rec.Get("actor")
			ts, _ := rec.Get("ts")
			out = append(out, graphstore.ChangeSummary{
				EntityID: entityID.(string), EntityLabel: entityLabel.(string),
				LastAction: graphstore.Action(action.(string)), LastActor: actorString(actor),
				LastActivity: parseTime(ts),
			})
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]graphstore.ChangeSummary), nil
}

// GetAuditLog implements graphstore.Store: every audit entry recorded for
// id, oldest first.
func (s *Store) GetAuditLog(ctx context.Context, id string) ([]graphstore.AuditEntry, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e {id: $id})-[:AUDITED]->(a:AuditEntry)
			RETURN a.id AS id, a.entityId AS entityId, a.entityLabel AS entityLabel,
			       a.action AS action, a.actor AS actor, a.timestamp AS ts, a.changes AS changes
			ORDER BY a.timestamp ASC
		`
		result, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		var out []graphstore.AuditEntry
		for result.Next(ctx) {
			rec := result.Record()
			entryID, _ := rec.Get("id")
			entityID, _ := rec.Get("entityId")
			entityLabel, _ := rec.Get("entityLabel")
			action, _ := rec.Get("action")
			actor, _ := rec.Get("actor")
			ts, _ := rec.Get("ts")
			changes, _ := rec.Get("changes")
			entry := graphstore.AuditEntry{
				ID: entryID.(string), EntityID: entityID.(string), EntityLabel: entityLabel.(string),
				Action: graphstore.Action(action.(string)), Actor: actorString(actor), Timestamp: parseTime(ts),
			}
			if m, ok := changes.(map[string]any); ok {
				entry.Changes = m
			}
			out = append(out, entry)
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]graphstore.AuditEntry), nil
}

// Search implements graphstore.Store. It loads the label's current heads
// with QueryByLabel and applies every filter, the limit and orderBy
// client-side; no operator is pushed down into Cypher, since the property
// map is stored as an opaque JSON-ish blob rather than individual typed
// columns.
func (s *Store) Search(ctx context.Context, label string, filters []graphstore.Filter, limit int, orderBy *graphstore.OrderBy) ([]graphstore.EntityState, error) {
	all, err := s.QueryByLabel(ctx, label)
	if err != nil {
		return nil, err
	}
	return filterLocally(all, filters, limit, orderBy), nil
}

// SnapshotAt implements graphstore.Store for entities only: it returns the
// state of each matching entity that is valid at `at`. Snapshot.Edges is
// left empty; relationships active at that time are not included.
func (s *Store) SnapshotAt(ctx context.Context, at time.Time, labels []string) (*graphstore.Snapshot, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e)-[:CURRENT|PREVIOUS*0..]->(st:State)
			WHERE st.validFrom <= $at AND (st.validTo IS NULL OR st.validTo > $at)
			  AND ($labels IS NULL OR labels(e)[0] IN $labels)
			RETURN e, labels(e)[0] AS label, st
		`
		params := map[string]any{"at": at.Format(time.RFC3339Nano)}
		if len(labels) > 0 {
			params["labels"] = labels
		} else {
			params["labels"] = nil
		}
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		snap := &graphstore.Snapshot{At: at}
		for result.Next(ctx) {
			es, err := recordToEntityState(result.Record())
			if err != nil {
				return nil, err
			}
			snap.Entities = append(snap.Entities, es.(graphstore.EntityState))
		}
		return snap, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.(*graphstore.Snapshot), nil
}

func effectiveLimit(limit int) int64 {
	if limit <= 0 {
		return 1000
	}
	return int64(limit)
}
