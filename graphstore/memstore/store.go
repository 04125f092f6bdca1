// Package memstore is an in-process implementation of graphstore.Store. It
// backs every other package's unit tests and is what app.Build opens when
// storageConnection is "memory", so the module is runnable without a live
// graph database.
//
// A single sync.RWMutex serializes all access. The teacher's storage engine
// (storage/binary/locks.go) shards locks per entity and per tag for
// throughput under a memory-mapped file; memstore has no file to protect and
// no mmap readers to avoid blocking, so one coarse lock is the right-sized
// analogue: it gives the same "per-mutation transaction, linearizable per
// entity" guarantee the spec requires with far less machinery.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/memgraph/memgraph/graphstore"
	"github.com/memgraph/memgraph/memerr"
)

type entityRecord struct {
	entity graphstore.Entity
	// states is ordered ascending by version; states[len-1] is the head
	// unless the entity has been soft-deleted.
	states []graphstore.State
}

// Store is an in-memory, mutex-guarded graphstore.Store.
type Store struct {
	mu        sync.RWMutex
	entities  map[string]*entityRecord
	audit     []graphstore.AuditEntry
	relations []graphstore.Relationship
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		entities: make(map[string]*entityRecord),
	}
}

func (s *Store) checkIdentifiers(labels ...string) error {
	for _, l := range labels {
		if l == "" {
			continue
		}
		if err := graphstore.ValidateIdentifier(l); err != nil {
			return err
		}
	}
	return nil
}

// CreateEntity implements graphstore.Store.
func (s *Store) CreateEntity(ctx context.Context, id, label string, props map[string]any, actor string, now time.Time, auditID string) (graphstore.State, error) {
	if err := ctx.Err(); err != nil {
		return graphstore.State{}, err
	}
	if err := s.checkIdentifiers(label); err != nil {
		return graphstore.State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entities[id]; exists {
		return graphstore.State{}, memerr.NewValidationError(label, []memerr.FieldError{
			{Path: "id", Message: "entity already exists"},
		})
	}

	state := graphstore.State{
		EntityID:   id,
		Version:    1,
		ValidFrom:  now,
		RecordedAt: now,
		Actor:      actor,
		Properties: cloneProps(props),
	}
	rec := &entityRecord{
		entity: graphstore.Entity{ID: id, Label: label, CreatedAt: now},
		states: []graphstore.State{state},
	}
	s.entities[id] = rec

	s.audit = append(s.audit, graphstore.AuditEntry{
		ID: auditID, EntityID: id, EntityLabel: label,
		Action: graphstore.ActionCreate, Actor: actor, Timestamp: now,
	})

	return state, nil
}

// UpdateEntity implements graphstore.Store.
func (s *Store) UpdateEntity(ctx context.Context, id string, props map[string]any, actor string, now time.Time, auditID string, changes map[string]any) (graphstore.State, error) {
	if err := ctx.Err(); err != nil {
		return graphstore.State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entities[id]
	if !ok || rec.entity.DeletedAt != nil {
		return graphstore.State{}, memerr.NotFound
	}

	head := &rec.states[len(rec.states)-1]
	if !head.IsCurrent() {
		return graphstore.State{}, memerr.NotFound
	}
	validTo := now
	head.ValidTo = &validTo

	newState := graphstore.State{
		EntityID:   id,
		Version:    head.Version + 1,
		ValidFrom:  now,
		RecordedAt: now,
		Actor:      actor,
		Properties: cloneProps(props),
	}
	rec.states = append(rec.states, newState)

	s.audit = append(s.audit, graphstore.AuditEntry{
		ID: auditID, EntityID: id, EntityLabel: rec.entity.Label,
		Action: graphstore.ActionUpdate, Actor: actor, Timestamp: now, Changes: changes,
	})

	return newState, nil
}

// SoftDeleteEntity implements graphstore.Store.
func (s *Store) SoftDeleteEntity(ctx context.Context, id string, actor string, now time.Time, auditID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entities[id]
	if !ok {
		return memerr.NotFound
	}
	if rec.entity.DeletedAt != nil {
		// Idempotent: already deleted.
		return nil
	}

	if len(rec.states) > 0 {
		head := &rec.states[len(rec.states)-1]
		if head.IsCurrent() {
			validTo := now
			head.ValidTo = &validTo
		}
	}
	deletedAt := now
	rec.entity.DeletedAt = &deletedAt
	rec.entity.DeletedBy = actor

	s.audit = append(s.audit, graphstore.AuditEntry{
		ID: auditID, EntityID: id, EntityLabel: rec.entity.Label,
		Action: graphstore.ActionDelete, Actor: actor, Timestamp: now,
	})

	return nil
}

// CreateRelationship implements graphstore.Store.
func (s *Store) CreateRelationship(ctx context.Context, from, to, typ string, props map[string]any, actor string, now time.Time, auditID string) (graphstore.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return graphstore.Relationship{}, err
	}
	if err := s.checkIdentifiers(typ); err != nil {
		return graphstore.Relationship{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rel := graphstore.Relationship{
		ID:         from + "_" + typ + "_" + to + "@" + now.Format(time.RFC3339Nano),
		Type:       typ,
		FromID:     from,
		ToID:       to,
		ValidFrom:  now,
		Actor:      actor,
		Properties: cloneProps(props),
	}
	s.relations = append(s.relations, rel)

	s.audit = append(s.audit, graphstore.AuditEntry{
		ID: auditID, EntityID: from, EntityLabel: s.labelOf(from),
		Action: graphstore.ActionRelate, Actor: actor, Timestamp: now,
		Changes: map[string]any{"type": typ, "to": to},
	})

	return rel, nil
}

// CloseRelationship implements graphstore.Store. It is a no-op if no active
// edge of the given type exists between the pair.
func (s *Store) CloseRelationship(ctx context.Context, from, to, typ string, actor string, now time.Time, auditID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.relations {
		r := &s.relations[i]
		if r.FromID == from && r.ToID == to && r.Type == typ && r.IsActive() {
			validTo := now
			r.ValidTo = &validTo
			s.audit = append(s.audit, graphstore.AuditEntry{
				ID: auditID, EntityID: from, EntityLabel: s.labelOf(from),
				Action: graphstore.ActionUnrelate, Actor: actor, Timestamp: now,
				Changes: map[string]any{"type": typ, "to": to},
			})
			return nil
		}
	}
	return nil
}

func (s *Store) labelOf(id string) string {
	if rec, ok := s.entities[id]; ok {
		return rec.entity.Label
	}
	return ""
}

func cloneProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
