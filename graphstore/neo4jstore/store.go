// Package neo4jstore implements graphstore.Store against a Neo4j Bolt
// endpoint via github.com/neo4j/neo4j-go-driver/v5. It is the reference
// implementation of the storage backend contract in spec.md §6: labeled
// nodes with property maps, typed directed edges, per-transaction
// serializability, parameter binding, and CREATE CONSTRAINT/CREATE INDEX.
//
// Grounded on eve.evalgo.org/db/repository.Neo4jRepository: one driver
// session per call, ExecuteWrite/ExecuteRead closures, MERGE/MATCH Cypher
// with every value bound as a parameter. Never string-interpolate a value;
// only a label or relationship type name, and only after
// graphstore.ValidateIdentifier has accepted it.
package neo4jstore

import (
	"context"
	"time"

	"github.com/memgraph/memgraph/graphstore"
	"github.com/memgraph/memgraph/memerr"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/pkg/errors"
)

// Store is a Neo4j-backed graphstore.Store.
type Store struct {
	driver neo4j.DriverWithContext
}

// Open creates the driver, verifies connectivity, and returns a ready Store.
func Open(ctx context.Context, uri, username, password string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, errors.Wrap(err, "neo4jstore: creating driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, errors.Wrap(err, "neo4jstore: verifying connectivity")
	}
	return &Store{driver: driver}, nil
}

// Close releases the underlying driver's connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Bootstrap issues the CREATE CONSTRAINT / CREATE INDEX statements the
// storage backend contract calls for, running each given statement in
// turn (app.constraintStatements renders them from the schema).
func (s *Store) Bootstrap(ctx context.Context, constraintStatements []string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, stmt := range constraintStatements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return errors.Wrapf(err, "neo4jstore: bootstrap statement %q", stmt)
		}
	}
	return nil
}

func (s *Store) write(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	var result any
	err := graphstore.RetryTransient(func() error {
		r, err := session.ExecuteWrite(ctx, fn)
		result = r
		return err
	}, memerr.IsTransient)
	if err != nil {
		return nil, errors.Wrap(memerr.Storage, err.Error())
	}
	return result, nil
}

func (s *Store) read(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, fn)
	if err != nil {
		return nil, errors.Wrap(memerr.Storage, err.Error())
	}
	return result, nil
}

// CreateEntity implements graphstore.Store.
func (s *Store) CreateEntity(ctx context.Context, id, label string, props map[string]any, actor string, now time.Time, auditID string) (graphstore.State, error) {
	if err := graphstore.ValidateIdentifier(label); err != nil {
		return graphstore.State{}, err
	}

	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			CREATE (e:` + label + ` {id: $id, _createdAt: $now})
			CREATE (st:State {entityId: $id, version: 1, validFrom: $now, validTo: null, recordedAt: $now, actor: $actor, props: $props})
			CREATE (e)-[:CURRENT]->(st)
			CREATE (a:AuditEntry {id: $auditId, entityId: $id, entityLabel: $label, action: 'create', actor: $actor, timestamp: $now})
			CREATE (e)-[:AUDITED]->(a)
		`
		params := map[string]any{
			"id": id, "now": now.Format(time.RFC3339Nano), "actor": actor,
			"props": props, "auditId": auditID, "label": label,
		}
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	if err != nil {
		return graphstore.State{}, err
	}

	return graphstore.State{
		EntityID: id, Version: 1, ValidFrom: now, RecordedAt: now, Actor: actor,
		Properties: props,
	}, nil
}

// UpdateEntity implements graphstore.Store.
func (s *Store) UpdateEntity(ctx context.Context, id string, props map[string]any, actor string, now time.Time, auditID string, changes map[string]any) (graphstore.State, error) {
	res, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		findQuery := `
			MATCH (e {id: $id})-[cur:CURRENT]->(old:State)
			RETURN old.version AS version
		`
		result, err := tx.Run(ctx, findQuery, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, memerr.NotFound
		}
		oldVersion, _ := record.Get("version")
		newVersion := toInt64(oldVersion) + 1

		updateQuery := `
			MATCH (e {id: $id})-[cur:CURRENT]->(old:State)
			SET old.validTo = $now
			DELETE cur
			CREATE (new:State {entityId: $id, version: $newVersion, validFrom: $now, validTo: null, recordedAt: $now, actor: $actor, props: $props})
			CREATE (e)-[:CURRENT]->(new)
			CREATE (new)-[:PREVIOUS]->(old)
			CREATE (a:AuditEntry {id: $auditId, entityId: $id, entityLabel: labels(e)[0], action: 'update', actor: $actor, timestamp: $now, changes: $changes})
			CREATE (e)-[:AUDITED]->(a)
		`
		params := map[string]any{
			"id": id, "now": now.Format(time.RFC3339Nano), "actor": actor,
			"props": props, "newVersion": newVersion, "auditId": auditID, "changes": changes,
		}
		_, err = tx.Run(ctx, updateQuery, params)
		return newVersion, err
	})
	if err != nil {
		return graphstore.State{}, err
	}

	return graphstore.State{
		EntityID: id, Version: int(res.(int64)), ValidFrom: now, RecordedAt: now, Actor: actor,
		Properties: props,
	}, nil
}

// SoftDeleteEntity implements graphstore.Store.
func (s *Store) SoftDeleteEntity(ctx context.Context, id string, actor string, now time.Time, auditID string) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e {id: $id})
			OPTIONAL MATCH (e)-[:CURRENT]->(st:State)
			SET e._deletedAt = $now, e._deletedBy = $actor
			SET st.validTo = coalesce(st.validTo, $now)
			CREATE (a:AuditEntry {id: $auditId, entityId: $id, entityLabel: labels(e)[0], action: 'delete', actor: $actor, timestamp: $now})
			CREATE (e)-[:AUDITED]->(a)
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id": id, "now": now.Format(time.RFC3339Nano), "actor": actor, "auditId": auditID,
		})
		return nil, err
	})
	return err
}

// CreateRelationship implements graphstore.Store.
func (s *Store) CreateRelationship(ctx context.Context, from, to, typ string, props map[string]any, actor string, now time.Time, auditID string) (graphstore.Relationship, error) {
	if err := graphstore.ValidateIdentifier(typ); err != nil {
		return graphstore.Relationship{}, err
	}

	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (a {id: $from}), (b {id: $to})
			CREATE (a)-[r:` + typ + ` {validFrom: $now, validTo: null, actor: $actor, props: $props}]->(b)
			CREATE (audit:AuditEntry {id: $auditId, entityId: $from, entityLabel: labels(a)[0], action: 'relate', actor: $actor, timestamp: $now})
			CREATE (a)-[:AUDITED]->(audit)
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"from": from, "to": to, "now": now.Format(time.RFC3339Nano),
			"actor": actor, "props": props, "auditId": auditID,
		})
		return nil, err
	})
	if err != nil {
		return graphstore.Relationship{}, err
	}

	return graphstore.Relationship{
		ID: from + "_" + typ + "_" + to, Type: typ, FromID: from, ToID: to,
		ValidFrom: now, Actor: actor, Properties: props,
	}, nil
}

// CloseRelationship implements graphstore.Store.
func (s *Store) CloseRelationship(ctx context.Context, from, to, typ string, actor string, now time.Time, auditID string) error {
	if err := graphstore.ValidateIdentifier(typ); err != nil {
		return err
	}

	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (a {id: $from})-[r:` + typ + `]->(b {id: $to})
			WHERE r.validTo IS NULL
			SET r.validTo = $now
			CREATE (audit:AuditEntry {id: $auditId, entityId: $from, entityLabel: labels(a)[0], action: 'unrelate', actor: $actor, timestamp: $now})
			CREATE (a)-[:AUDITED]->(audit)
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"from": from, "to": to, "now": now.Format(time.RFC3339Nano),
			"actor": actor, "auditId": auditID,
		})
		return nil, err
	})
	return err
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
