// Package memory provides in-memory store implementations, used in tests and
// as a storage backend when no database is configured.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/artpar/entrack/core/change"
	"github.com/artpar/entrack/core/model"
	"github.com/artpar/entrack/ports"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("not found")

// RecordStore is an in-memory implementation of ports.RecordStore. Records
// are stored as snapshots, so later mutation of a caller's record does not
// reach the store.
type RecordStore struct {
	model *model.Model

	mu      sync.RWMutex
	records map[string]map[uint64][]change.Record // entity -> key hash -> records
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore(m *model.Model) *RecordStore {
	return &RecordStore{
		model:   m,
		records: make(map[string]map[uint64][]change.Record),
	}
}

// Insert stores a new record. Duplicate keys are an error.
func (s *RecordStore) Insert(ctx context.Context, r change.Record) error {
	e, ok := s.model.Entity(r.Entity)
	if !ok {
		return fmt.Errorf("insert: unknown entity %q", r.Entity)
	}
	key := e.KeyProperty()
	kv := r.Values[key.Name]
	if kv == nil {
		return fmt.Errorf("insert: entity %q record has no key value %q", r.Entity, key.Name)
	}

	snap, err := change.Snapshot(s.model, r)
	if err != nil {
		return err
	}
	hash := key.Comparer.KeyHash(kv)

	s.mu.Lock()
	defer s.mu.Unlock()
	buckets := s.records[r.Entity]
	if buckets == nil {
		buckets = make(map[uint64][]change.Record)
		s.records[r.Entity] = buckets
	}
	for _, b := range buckets[hash] {
		if key.Comparer.KeyEqual(b.Values[key.Name], kv) {
			return fmt.Errorf("insert: entity %q key %v already exists", r.Entity, kv)
		}
	}
	buckets[hash] = append(buckets[hash], snap)
	return nil
}

// Update applies only the changed properties of a detection result.
// An empty set is a no-op.
func (s *RecordStore) Update(ctx context.Context, set change.Set) error {
	if set.Empty() {
		return nil
	}
	e, ok := s.model.Entity(set.Entity)
	if !ok {
		return fmt.Errorf("update: unknown entity %q", set.Entity)
	}
	if set.Key == nil {
		return fmt.Errorf("update: entity %q key is nil", set.Entity)
	}
	for _, c := range set.Changes {
		if _, ok := e.Property(c.Property); !ok {
			return fmt.Errorf("update: entity %q has no property %q", set.Entity, c.Property)
		}
	}
	key := e.KeyProperty()

	s.mu.Lock()
	defer s.mu.Unlock()
	hash := key.Comparer.KeyHash(set.Key)
	bucket := s.records[set.Entity][hash]
	for i, b := range bucket {
		if key.Comparer.KeyEqual(b.Values[key.Name], set.Key) {
			for _, c := range set.Changes {
				p, _ := e.Property(c.Property)
				if c.New == nil {
					bucket[i].Values[c.Property] = nil
					continue
				}
				bucket[i].Values[c.Property] = p.Comparer.Snapshot(c.New)
			}
			return nil
		}
	}
	return ErrNotFound
}

// Get retrieves a snapshot of a record by key value.
func (s *RecordStore) Get(ctx context.Context, entity string, kv any) (change.Record, error) {
	e, ok := s.model.Entity(entity)
	if !ok {
		return change.Record{}, fmt.Errorf("get: unknown entity %q", entity)
	}
	if kv == nil {
		return change.Record{}, fmt.Errorf("get: entity %q key is nil", entity)
	}
	key := e.KeyProperty()

	s.mu.RLock()
	stored, ok := s.lookup(e, key, kv)
	s.mu.RUnlock()
	if !ok {
		return change.Record{}, ErrNotFound
	}
	return change.Snapshot(s.model, stored)
}

// Delete removes a record by key value.
func (s *RecordStore) Delete(ctx context.Context, entity string, kv any) error {
	e, ok := s.model.Entity(entity)
	if !ok {
		return fmt.Errorf("delete: unknown entity %q", entity)
	}
	if kv == nil {
		return fmt.Errorf("delete: entity %q key is nil", entity)
	}
	key := e.KeyProperty()
	hash := key.Comparer.KeyHash(kv)

	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.records[entity][hash]
	for i, b := range bucket {
		if key.Comparer.KeyEqual(b.Values[key.Name], kv) {
			s.records[entity][hash] = append(bucket[:i], bucket[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Count returns the number of stored records for an entity.
func (s *RecordStore) Count(entity string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, bucket := range s.records[entity] {
		n += len(bucket)
	}
	return n
}

// Clear removes all records (for testing).
func (s *RecordStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]map[uint64][]change.Record)
}

func (s *RecordStore) lookup(e *model.Entity, key model.Property, kv any) (change.Record, bool) {
	hash := key.Comparer.KeyHash(kv)
	for _, b := range s.records[e.Name][hash] {
		if key.Comparer.KeyEqual(b.Values[key.Name], kv) {
			return b, true
		}
	}
	return change.Record{}, false
}

// Ensure interface compliance.
var _ ports.RecordStore = (*RecordStore)(nil)
