// Package model defines entity metadata for change tracking and relational
// mapping: entities, typed properties, the value comparer attached to each
// property, and per-dialect column-type mapping.
//
// A model is built once (see Builder or ParseYAML) and immutable afterwards.
package model

import (
	"reflect"
	"time"

	"github.com/artpar/entrack/domain/comparer"
)

// Kind is the abstract property type, independent of any database dialect.
type Kind string

const (
	KindString    Kind = "string"
	KindInt       Kind = "int"
	KindFloat     Kind = "float"
	KindBool      Kind = "bool"
	KindTimestamp Kind = "timestamp"
	KindBytes     Kind = "bytes"
	KindJSON      Kind = "json"
	KindUUID      Kind = "uuid"
)

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{KindString, KindInt, KindFloat, KindBool, KindTimestamp, KindBytes, KindJSON, KindUUID}
}

// GoType returns the runtime Go type for values of this kind.
func (k Kind) GoType() reflect.Type {
	switch k {
	case KindString, KindJSON, KindUUID:
		return reflect.TypeOf((*string)(nil)).Elem()
	case KindInt:
		return reflect.TypeOf((*int64)(nil)).Elem()
	case KindFloat:
		return reflect.TypeOf((*float64)(nil)).Elem()
	case KindBool:
		return reflect.TypeOf((*bool)(nil)).Elem()
	case KindTimestamp:
		return reflect.TypeOf((*time.Time)(nil)).Elem()
	case KindBytes:
		return reflect.TypeOf((*[]byte)(nil)).Elem()
	}
	return nil
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k.GoType() != nil }

// defaultComparer returns the comparer a property of this kind gets when none
// is supplied. UUIDs fold case for key comparison; bytes compare and snapshot
// deeply; timestamps compare instants.
func (k Kind) defaultComparer() (comparer.ValueComparer, error) {
	switch k {
	case KindString, KindJSON:
		c, err := comparer.New[string](comparer.DefaultDef[string]())
		if err != nil {
			return nil, err
		}
		return c.Erased(), nil
	case KindUUID:
		c, err := comparer.New[string](comparer.FoldedStringDef())
		if err != nil {
			return nil, err
		}
		return c.Erased(), nil
	case KindInt:
		c, err := comparer.New[int64](comparer.DefaultDef[int64]())
		if err != nil {
			return nil, err
		}
		return c.Erased(), nil
	case KindFloat:
		c, err := comparer.New[float64](comparer.DefaultDef[float64]())
		if err != nil {
			return nil, err
		}
		return c.Erased(), nil
	case KindBool:
		c, err := comparer.New[bool](comparer.DefaultDef[bool]())
		if err != nil {
			return nil, err
		}
		return c.Erased(), nil
	case KindTimestamp:
		c, err := comparer.New[time.Time](comparer.TimeDef())
		if err != nil {
			return nil, err
		}
		return c.Erased(), nil
	case KindBytes:
		c, err := comparer.New[[]byte](comparer.BytesDef())
		if err != nil {
			return nil, err
		}
		return c.Erased(), nil
	}
	return nil, errUnknownKind(k)
}

// Property is a mapped scalar property of an entity (immutable value type).
type Property struct {
	Name     string
	Kind     Kind
	Column   string // database column name, defaults to Name
	Nullable bool
	Key      bool
	Unique   bool

	// ColumnType overrides the mapped column type in every dialect.
	ColumnType string

	// Comparer provides equality, hashing, and snapshotting for values of
	// this property. Never nil after Build.
	Comparer comparer.ValueComparer
}

// Entity is a mapped entity (immutable after Build).
type Entity struct {
	Name       string
	Table      string
	Properties []Property

	keyIndex int
}

// KeyProperty returns the entity's key property.
func (e *Entity) KeyProperty() Property { return e.Properties[e.keyIndex] }

// Property returns the named property.
func (e *Entity) Property(name string) (Property, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Model is a validated set of entities.
type Model struct {
	Entities []*Entity

	byName map[string]*Entity
}

// Entity returns the named entity.
func (m *Model) Entity(name string) (*Entity, bool) {
	e, ok := m.byName[name]
	return e, ok
}
