package model

import (
	"fmt"

	"github.com/artpar/entrack/domain/comparer"
)

func errUnknownKind(k Kind) error {
	return fmt.Errorf("model: unknown kind %q", k)
}

// Builder assembles a model programmatically. Errors are collected and
// reported once from Build, so definitions chain without per-call checks.
type Builder struct {
	entities []*entityDef
}

type entityDef struct {
	name       string
	table      string
	properties []*propertyDef
}

type propertyDef struct {
	p Property
}

// NewBuilder creates an empty model builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Entity starts a new entity definition. The table name defaults to the
// entity name.
func (b *Builder) Entity(name string) *EntityBuilder {
	def := &entityDef{name: name, table: name}
	b.entities = append(b.entities, def)
	return &EntityBuilder{def: def}
}

// EntityBuilder configures one entity.
type EntityBuilder struct {
	def *entityDef
}

// Table sets the table name.
func (eb *EntityBuilder) Table(name string) *EntityBuilder {
	eb.def.table = name
	return eb
}

// Property adds a property of the given kind.
func (eb *EntityBuilder) Property(name string, kind Kind) *PropertyBuilder {
	def := &propertyDef{p: Property{Name: name, Kind: kind, Column: name}}
	eb.def.properties = append(eb.def.properties, def)
	return &PropertyBuilder{entity: eb, def: def}
}

// PropertyBuilder configures one property.
type PropertyBuilder struct {
	entity *EntityBuilder
	def    *propertyDef
}

// Key marks the property as the entity key.
func (pb *PropertyBuilder) Key() *PropertyBuilder {
	pb.def.p.Key = true
	return pb
}

// Nullable allows null values for the property.
func (pb *PropertyBuilder) Nullable() *PropertyBuilder {
	pb.def.p.Nullable = true
	return pb
}

// Unique adds a uniqueness constraint.
func (pb *PropertyBuilder) Unique() *PropertyBuilder {
	pb.def.p.Unique = true
	return pb
}

// Column sets the database column name.
func (pb *PropertyBuilder) Column(name string) *PropertyBuilder {
	pb.def.p.Column = name
	return pb
}

// ColumnType overrides the mapped column type in every dialect.
func (pb *PropertyBuilder) ColumnType(columnType string) *PropertyBuilder {
	pb.def.p.ColumnType = columnType
	return pb
}

// Comparer attaches a custom value comparer. Its Type must match the
// property kind's Go type; checked in Build.
func (pb *PropertyBuilder) Comparer(vc comparer.ValueComparer) *PropertyBuilder {
	pb.def.p.Comparer = vc
	return pb
}

// Property adds a sibling property on the same entity.
func (pb *PropertyBuilder) Property(name string, kind Kind) *PropertyBuilder {
	return pb.entity.Property(name, kind)
}

// Build validates the definitions and produces an immutable model. Every
// entity needs at least one property and exactly one non-nullable key;
// property comparers default by kind.
func (b *Builder) Build() (*Model, error) {
	m := &Model{byName: make(map[string]*Entity, len(b.entities))}

	for _, ed := range b.entities {
		if ed.name == "" {
			return nil, fmt.Errorf("model: entity with empty name")
		}
		if _, dup := m.byName[ed.name]; dup {
			return nil, fmt.Errorf("model: duplicate entity %q", ed.name)
		}
		if len(ed.properties) == 0 {
			return nil, fmt.Errorf("model: entity %q has no properties", ed.name)
		}

		e := &Entity{Name: ed.name, Table: ed.table, keyIndex: -1}
		seen := make(map[string]bool, len(ed.properties))
		for _, pd := range ed.properties {
			p := pd.p
			if p.Name == "" {
				return nil, fmt.Errorf("model: entity %q has a property with empty name", ed.name)
			}
			if seen[p.Name] {
				return nil, fmt.Errorf("model: entity %q has duplicate property %q", ed.name, p.Name)
			}
			seen[p.Name] = true
			if !p.Kind.Valid() {
				return nil, fmt.Errorf("model: entity %q property %q: %w", ed.name, p.Name, errUnknownKind(p.Kind))
			}
			if p.Key {
				if e.keyIndex >= 0 {
					return nil, fmt.Errorf("model: entity %q has more than one key property", ed.name)
				}
				if p.Nullable {
					return nil, fmt.Errorf("model: entity %q key property %q cannot be nullable", ed.name, p.Name)
				}
				e.keyIndex = len(e.Properties)
			}
			if p.Comparer == nil {
				vc, err := p.Kind.defaultComparer()
				if err != nil {
					return nil, fmt.Errorf("model: entity %q property %q: %w", ed.name, p.Name, err)
				}
				p.Comparer = vc
			} else if p.Comparer.Type() != p.Kind.GoType() {
				return nil, fmt.Errorf("model: entity %q property %q: comparer is for %s, want %s",
					ed.name, p.Name, p.Comparer.Type(), p.Kind.GoType())
			}
			e.Properties = append(e.Properties, p)
		}
		if e.keyIndex < 0 {
			return nil, fmt.Errorf("model: entity %q has no key property", ed.name)
		}

		m.Entities = append(m.Entities, e)
		m.byName[e.Name] = e
	}

	if len(m.Entities) == 0 {
		return nil, fmt.Errorf("model: no entities defined")
	}
	return m, nil
}
