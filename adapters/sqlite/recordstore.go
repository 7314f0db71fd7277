package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/artpar/entrack/core/change"
	"github.com/artpar/entrack/core/model"
	"github.com/artpar/entrack/ports"
)

// RecordStore persists model records in their mapped tables.
type RecordStore struct {
	db    *DB
	model *model.Model
	ids   ports.IDGenerator
}

// NewRecordStore creates a record store over the given model. ids may be nil,
// in which case every inserted record must carry its key value.
func NewRecordStore(db *DB, m *model.Model, ids ports.IDGenerator) *RecordStore {
	return &RecordStore{db: db, model: m, ids: ids}
}

// Insert stores a new record. A missing key value is generated for string
// keys; other missing properties are stored as NULL.
func (s *RecordStore) Insert(ctx context.Context, r change.Record) error {
	e, ok := s.model.Entity(r.Entity)
	if !ok {
		return fmt.Errorf("insert: unknown entity %q", r.Entity)
	}
	for name := range r.Values {
		if _, ok := e.Property(name); !ok {
			return fmt.Errorf("insert: entity %q has no property %q", r.Entity, name)
		}
	}

	key := e.KeyProperty()
	if r.Values[key.Name] == nil {
		if s.ids == nil || key.Kind.GoType().Kind() != reflect.String {
			return fmt.Errorf("insert: entity %q record has no key value %q", r.Entity, key.Name)
		}
		if r.Values == nil {
			r.Values = make(map[string]any, 1)
		}
		r.Values[key.Name] = s.ids.New()
	}

	cols := make([]string, 0, len(e.Properties))
	marks := make([]string, 0, len(e.Properties))
	args := make([]any, 0, len(e.Properties))
	for _, p := range e.Properties {
		cols = append(cols, model.QuoteIdent(p.Column))
		marks = append(marks, "?")
		args = append(args, r.Values[p.Name])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		model.QuoteIdent(e.Table), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.Entity, err)
	}
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
	key := e.KeyProperty()

	assigns := make([]string, 0, len(set.Changes))
	args := make([]any, 0, len(set.Changes)+1)
	for _, c := range set.Changes {
		p, ok := e.Property(c.Property)
		if !ok {
			return fmt.Errorf("update: entity %q has no property %q", set.Entity, c.Property)
		}
		assigns = append(assigns, model.QuoteIdent(p.Column)+" = ?")
		args = append(args, c.New)
	}
	args = append(args, set.Key)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		model.QuoteIdent(e.Table), strings.Join(assigns, ", "), model.QuoteIdent(key.Column))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", set.Entity, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update %s: key %v not found", set.Entity, set.Key)
	}
	return nil
}

// Get retrieves a record by key value. NULL columns come back as nil values.
func (s *RecordStore) Get(ctx context.Context, entity string, key any) (change.Record, error) {
	e, ok := s.model.Entity(entity)
	if !ok {
		return change.Record{}, fmt.Errorf("get: unknown entity %q", entity)
	}
	keyProp := e.KeyProperty()

	cols := make([]string, 0, len(e.Properties))
	for _, p := range e.Properties {
		cols = append(cols, model.QuoteIdent(p.Column))
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(cols, ", "), model.QuoteIdent(e.Table), model.QuoteIdent(keyProp.Column))

	targets := make([]any, len(e.Properties))
	for i, p := range e.Properties {
		targets[i] = scanTarget(p.Kind)
	}
	if err := s.db.QueryRowContext(ctx, query, key).Scan(targets...); err != nil {
		if err == sql.ErrNoRows {
			return change.Record{}, fmt.Errorf("get %s: key %v not found", entity, key)
		}
		return change.Record{}, fmt.Errorf("get %s: %w", entity, err)
	}

	r := change.Record{Entity: entity, Values: make(map[string]any, len(e.Properties))}
	for i, p := range e.Properties {
		r.Values[p.Name] = scannedValue(p.Kind, targets[i])
	}
	return r, nil
}

// Delete removes a record by key value.
func (s *RecordStore) Delete(ctx context.Context, entity string, key any) error {
	e, ok := s.model.Entity(entity)
	if !ok {
		return fmt.Errorf("delete: unknown entity %q", entity)
	}
	keyProp := e.KeyProperty()

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		model.QuoteIdent(e.Table), model.QuoteIdent(keyProp.Column))
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	return nil
}

// scanTarget returns a nullable scan destination for a property kind.
func scanTarget(k model.Kind) any {
	switch k {
	case model.KindInt:
		return &sql.NullInt64{}
	case model.KindFloat:
		return &sql.NullFloat64{}
	case model.KindBool:
		return &sql.NullBool{}
	case model.KindTimestamp:
		return &sql.NullTime{}
	case model.KindBytes:
		return &[]byte{}
	default: // string-backed kinds
		return &sql.NullString{}
	}
}

// scannedValue converts a scan destination back to the kind's Go value, with
// nil for NULL.
func scannedValue(k model.Kind, target any) any {
	switch k {
	case model.KindInt:
		if v := target.(*sql.NullInt64); v.Valid {
			return v.Int64
		}
	case model.KindFloat:
		if v := target.(*sql.NullFloat64); v.Valid {
			return v.Float64
		}
	case model.KindBool:
		if v := target.(*sql.NullBool); v.Valid {
			return v.Bool
		}
	case model.KindTimestamp:
		if v := target.(*sql.NullTime); v.Valid {
			return v.Time.In(time.UTC)
		}
	case model.KindBytes:
		if v := *target.(*[]byte); v != nil {
			return v
		}
	default:
		if v := target.(*sql.NullString); v.Valid {
			return v.String
		}
	}
	return nil
}

// Ensure interface compliance.
var _ ports.RecordStore = (*RecordStore)(nil)
