package model

// Introspection shapes for exposing model metadata over HTTP. These types
// let clients discover entities, properties, and the column types a dialect
// assigns to them.

// ModelSchema is returned by GET /api/model.
type ModelSchema struct {
	Entities []EntitySummary `json:"entities"`
	Count    int             `json:"count"`
}

// EntitySummary is a brief overview of an entity.
type EntitySummary struct {
	Name  string `json:"name"`
	Table string `json:"table"`
	Key   string `json:"key"`
}

// EntitySchema is returned by GET /api/model/{entity}.
type EntitySchema struct {
	Name       string           `json:"name"`
	Table      string           `json:"table"`
	Key        string           `json:"key"`
	Properties []PropertySchema `json:"properties"`
}

// PropertySchema describes one property for introspection.
type PropertySchema struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Column     string `json:"column"`
	GoType     string `json:"go_type"`
	Nullable   bool   `json:"nullable,omitempty"`
	Key        bool   `json:"key,omitempty"`
	Unique     bool   `json:"unique,omitempty"`
	ColumnType string `json:"column_type,omitempty"` // explicit override, if any
}

// ColumnSchema is returned by GET /api/model/{entity}/columns.
type ColumnSchema struct {
	Property string `json:"property"`
	Column   string `json:"column"`
	Type     string `json:"type"`
	NotNull  bool   `json:"not_null"`
	Key      bool   `json:"key,omitempty"`
}

// Schema returns the introspection view of the model.
func (m *Model) Schema() ModelSchema {
	out := ModelSchema{Count: len(m.Entities)}
	for _, e := range m.Entities {
		out.Entities = append(out.Entities, EntitySummary{
			Name:  e.Name,
			Table: e.Table,
			Key:   e.KeyProperty().Name,
		})
	}
	return out
}

// Schema returns the introspection view of one entity.
func (e *Entity) Schema() EntitySchema {
	out := EntitySchema{Name: e.Name, Table: e.Table, Key: e.KeyProperty().Name}
	for _, p := range e.Properties {
		out.Properties = append(out.Properties, PropertySchema{
			Name:       p.Name,
			Kind:       string(p.Kind),
			Column:     p.Column,
			GoType:     p.Kind.GoType().String(),
			Nullable:   p.Nullable,
			Key:        p.Key,
			Unique:     p.Unique,
			ColumnType: p.ColumnType,
		})
	}
	return out
}

// Columns resolves the mapped column schema for an entity under a dialect.
func Columns(e *Entity, mapper *TypeMapper, d Dialect) ([]ColumnSchema, error) {
	out := make([]ColumnSchema, 0, len(e.Properties))
	for _, p := range e.Properties {
		ct, err := mapper.ColumnType(d, p)
		if err != nil {
			return nil, err
		}
		out = append(out, ColumnSchema{
			Property: p.Name,
			Column:   p.Column,
			Type:     ct,
			NotNull:  !p.Nullable || p.Key,
			Key:      p.Key,
		})
	}
	return out, nil
}
