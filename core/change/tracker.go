package change

import (
	"fmt"
	"sync"

	"github.com/artpar/entrack/core/model"
)

// Tracker holds snapshot baselines for tracked records and runs detection
// passes against them. Baselines are indexed by the key property's KeyHash
// and resolved with KeyEqual, so key equivalence semantics (for example
// case-folded identifiers) decide which baseline a record belongs to.
//
// Comparers are immutable; the tracker guards only its own baseline map, so
// Track and Detect are safe to call concurrently.
type Tracker struct {
	model   *model.Model
	clock   Clock
	metrics Metrics

	mu        sync.RWMutex
	baselines map[string]map[uint64][]Record // entity -> key hash -> records
}

// NewTracker creates a tracker. metrics may be nil.
func NewTracker(m *model.Model, clock Clock, metrics Metrics) *Tracker {
	return &Tracker{
		model:     m,
		clock:     clock,
		metrics:   metrics,
		baselines: make(map[string]map[uint64][]Record),
	}
}

// Track snapshots the record and stores it as the baseline for its key,
// replacing any previous baseline.
func (t *Tracker) Track(r Record) error {
	e, ok := t.model.Entity(r.Entity)
	if !ok {
		return fmt.Errorf("change: unknown entity %q", r.Entity)
	}
	key := e.KeyProperty()
	kv := r.Values[key.Name]
	if kv == nil {
		return fmt.Errorf("change: entity %q record has no key value %q", r.Entity, key.Name)
	}

	snap, err := Snapshot(t.model, r)
	if err != nil {
		return err
	}
	if t.metrics != nil {
		t.metrics.SnapshotTaken(r.Entity)
	}

	hash := key.Comparer.KeyHash(kv)

	t.mu.Lock()
	defer t.mu.Unlock()
	buckets := t.baselines[r.Entity]
	if buckets == nil {
		buckets = make(map[uint64][]Record)
		t.baselines[r.Entity] = buckets
	}
	bucket := buckets[hash]
	for i, b := range bucket {
		if key.Comparer.KeyEqual(b.Values[key.Name], kv) {
			bucket[i] = snap
			return nil
		}
	}
	buckets[hash] = append(bucket, snap)
	return nil
}

// Detect compares the current record against its tracked baseline and
// returns the changed properties. A record with no baseline is an error; the
// caller decides whether that means an insert.
func (t *Tracker) Detect(current Record) (Set, error) {
	e, ok := t.model.Entity(current.Entity)
	if !ok {
		return Set{}, fmt.Errorf("change: unknown entity %q", current.Entity)
	}
	key := e.KeyProperty()
	kv := current.Values[key.Name]
	if kv == nil {
		return Set{}, fmt.Errorf("change: entity %q record has no key value %q", current.Entity, key.Name)
	}

	baseline, ok := t.lookup(e, key, kv)
	if !ok {
		return Set{}, fmt.Errorf("change: entity %q key %v is not tracked", current.Entity, kv)
	}

	set, err := Diff(t.model, baseline, current, t.clock.Now())
	if err != nil {
		return Set{}, err
	}
	if t.metrics != nil {
		t.metrics.DetectPass(current.Entity)
		if !set.Empty() {
			t.metrics.ChangesFound(current.Entity, len(set.Changes))
		}
	}
	return set, nil
}

// Accept replaces the baseline with the current record, typically after its
// changes have been persisted.
func (t *Tracker) Accept(current Record) error {
	return t.Track(current)
}

// Forget drops the baseline for a key, if present. A nil key matches
// nothing.
func (t *Tracker) Forget(entity string, kv any) {
	e, ok := t.model.Entity(entity)
	if !ok || kv == nil {
		return
	}
	key := e.KeyProperty()
	hash := key.Comparer.KeyHash(kv)

	t.mu.Lock()
	defer t.mu.Unlock()
	bucket := t.baselines[entity][hash]
	for i, b := range bucket {
		if key.Comparer.KeyEqual(b.Values[key.Name], kv) {
			t.baselines[entity][hash] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

func (t *Tracker) lookup(e *model.Entity, key model.Property, kv any) (Record, bool) {
	hash := key.Comparer.KeyHash(kv)

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, b := range t.baselines[e.Name][hash] {
		if key.Comparer.KeyEqual(b.Values[key.Name], kv) {
			return b, true
		}
	}
	return Record{}, false
}
