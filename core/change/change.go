// Package change implements snapshot-based change detection over model
// records. A tracker stores an independent snapshot of each record as a
// baseline; a later detection pass compares current values against the
// baseline through each property's value comparer.
package change

import (
	"fmt"
	"time"

	"github.com/artpar/entrack/core/model"
)

// Record holds the property values of one entity instance.
type Record struct {
	Entity string
	Values map[string]any
}

// Change is one modified property with its old and new value.
type Change struct {
	Property string
	Old      any
	New      any
}

// Set is the result of one detection pass over a record.
type Set struct {
	Entity     string
	Key        any
	Changes    []Change
	DetectedAt time.Time
}

// Empty reports whether the detection pass found no changes.
func (s Set) Empty() bool { return len(s.Changes) == 0 }

// Clock provides the detection timestamp. adapters/clock satisfies it.
type Clock interface {
	Now() time.Time
}

// Metrics receives change-detection counters. Implementations live in
// adapters; a nil Metrics disables reporting.
type Metrics interface {
	DetectPass(entity string)
	ChangesFound(entity string, n int)
	SnapshotTaken(entity string)
}

// Snapshot returns an independent copy of a record: every non-nil value is
// copied through its property's comparer, so later mutation of the source
// record cannot corrupt the result. Unknown properties are an error.
func Snapshot(m *model.Model, r Record) (Record, error) {
	e, ok := m.Entity(r.Entity)
	if !ok {
		return Record{}, fmt.Errorf("change: unknown entity %q", r.Entity)
	}

	out := Record{Entity: r.Entity, Values: make(map[string]any, len(r.Values))}
	for name, v := range r.Values {
		p, ok := e.Property(name)
		if !ok {
			return Record{}, fmt.Errorf("change: entity %q has no property %q", r.Entity, name)
		}
		if v == nil {
			out.Values[name] = nil
			continue
		}
		out.Values[name] = p.Comparer.Snapshot(v)
	}
	return out, nil
}

// equalProperty compares two property values nil-safely; the comparer only
// ever sees non-nil values.
func equalProperty(p model.Property, a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return p.Comparer.Equal(a, b)
}

// Diff compares two records of the same entity property by property and
// returns the changed values. The baseline record supplies the old values.
func Diff(m *model.Model, baseline, current Record, at time.Time) (Set, error) {
	if baseline.Entity != current.Entity {
		return Set{}, fmt.Errorf("change: diff across entities %q and %q", baseline.Entity, current.Entity)
	}
	e, ok := m.Entity(current.Entity)
	if !ok {
		return Set{}, fmt.Errorf("change: unknown entity %q", current.Entity)
	}
	for name := range current.Values {
		if _, ok := e.Property(name); !ok {
			return Set{}, fmt.Errorf("change: entity %q has no property %q", current.Entity, name)
		}
	}

	set := Set{Entity: current.Entity, DetectedAt: at}
	key := e.KeyProperty()
	set.Key = current.Values[key.Name]

	for _, p := range e.Properties {
		oldV := baseline.Values[p.Name]
		newV := current.Values[p.Name]
		if !equalProperty(p, oldV, newV) {
			set.Changes = append(set.Changes, Change{Property: p.Name, Old: oldV, New: newV})
		}
	}
	return set, nil
}
