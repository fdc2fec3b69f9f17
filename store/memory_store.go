// Package store provides sequence.Store implementations: an in-memory store
// for in-process hosts and tests, and a SQL store with Postgres and SQLite
// dialects, plus a DSN-scheme factory for constructing them.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/agentworkforce/seqfield/sequence"
)

// MemoryStore keeps records in process, one map per collection. It
// implements sequence.Store and additionally offers the record CRUD a host
// needs to drive the full write lifecycle.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]sequence.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string]map[string]sequence.Record{}}
}

// Insert stores a copy of rec and returns its id. When the payload carries
// no "id" entry a fresh UUID is assigned.
func (m *MemoryStore) Insert(collection string, rec sequence.Record) string {
	id, _ := rec["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	m.Put(collection, id, rec)
	return id
}

// Put stores a copy of rec under id, replacing any existing record.
func (m *MemoryStore) Put(collection, id string, rec sequence.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.collections[collection]
	if records == nil {
		records = map[string]sequence.Record{}
		m.collections[collection] = records
	}
	records[id] = cloneRecord(rec)
}

// Apply merges the payload's keys onto an existing record, the way an update
// statement would. It reports whether the record existed.
func (m *MemoryStore) Apply(collection, id string, payload sequence.Record) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.collections[collection][id]
	if !ok {
		return false
	}
	for field, value := range payload {
		rec[field] = value
	}
	return true
}

// Get returns a copy of the record and whether it exists.
func (m *MemoryStore) Get(collection, id string) (sequence.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.collections[collection][id]
	if !ok {
		return nil, false
	}
	return cloneRecord(rec), true
}

// Delete removes the record and reports whether it existed.
func (m *MemoryStore) Delete(collection, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection][id]; !ok {
		return false
	}
	delete(m.collections[collection], id)
	return true
}

// Len returns the number of records in a collection.
func (m *MemoryStore) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

// IDsByOrder returns the ids of every record matching groups, sorted by the
// given order field (ties broken by id). Intended for hosts and tests
// inspecting a group's sequence.
func (m *MemoryStore) IDsByOrder(collection string, groups map[string]any, orderField string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type entry struct {
		id    string
		order int64
	}
	entries := make([]entry, 0, len(m.collections[collection]))
	for id, rec := range m.collections[collection] {
		if !matchesGroups(rec, groups) {
			continue
		}
		order, ok := sequence.OrderValue(rec[orderField])
		if !ok {
			continue
		}
		entries = append(entries, entry{id: id, order: order})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].order != entries[j].order {
			return entries[i].order < entries[j].order
		}
		return entries[i].id < entries[j].id
	})
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}

func (m *MemoryStore) ReadField(ctx context.Context, collection, recordID, field string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.collections[collection][recordID]
	if !ok {
		return nil, sequence.ErrNotFound
	}
	return rec[field], nil
}

func (m *MemoryStore) FindOne(ctx context.Context, collection string, filter map[string]any, orderBy string, descending bool) (sequence.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best sequence.Record
	var bestOrder int64
	for _, rec := range m.collections[collection] {
		if !matchesGroups(rec, filter) {
			continue
		}
		order, ok := sequence.OrderValue(rec[orderBy])
		if !ok {
			continue
		}
		if best == nil || (descending && order > bestOrder) || (!descending && order < bestOrder) {
			best = rec
			bestOrder = order
		}
	}
	if best == nil {
		return nil, nil
	}
	return cloneRecord(best), nil
}

func (m *MemoryStore) BulkUpdate(ctx context.Context, collection string, filter sequence.ShiftFilter, field string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.collections[collection] {
		if id == filter.ExcludeRecordID {
			continue
		}
		if !matchesGroups(rec, filter.Groups) {
			continue
		}
		order, ok := sequence.OrderValue(rec[field])
		if !ok {
			continue
		}
		if !filter.Range.Contains(order) {
			continue
		}
		rec[field] = order + delta
	}
	return nil
}

func matchesGroups(rec sequence.Record, groups map[string]any) bool {
	for field, want := range groups {
		if !sequence.ValueEqual(rec[field], want) {
			return false
		}
	}
	return true
}

func cloneRecord(rec sequence.Record) sequence.Record {
	clone := make(sequence.Record, len(rec))
	for field, value := range rec {
		clone[field] = value
	}
	return clone
}
