package model

import (
	"fmt"
	"strings"
)

// Dialect identifies a target relational database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// Dialects lists every supported dialect.
func Dialects() []Dialect {
	return []Dialect{DialectSQLite, DialectPostgres, DialectMySQL}
}

// ParseDialect validates a dialect name.
func ParseDialect(s string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DialectSQLite, DialectPostgres, DialectMySQL:
		return d, nil
	}
	return "", fmt.Errorf("model: unknown dialect %q", s)
}

type mappingKey struct {
	dialect Dialect
	kind    Kind
}

// TypeMapper resolves the column type a dialect assigns to a property.
// Resolution order: the property's explicit ColumnType, then a registered
// override, then the built-in rule for the dialect/kind pair.
type TypeMapper struct {
	rules     map[mappingKey]string
	overrides map[mappingKey]string
}

// NewTypeMapper creates a mapper seeded with the built-in rules.
func NewTypeMapper() *TypeMapper {
	m := &TypeMapper{
		rules:     make(map[mappingKey]string),
		overrides: make(map[mappingKey]string),
	}
	m.seed(DialectSQLite, map[Kind]string{
		KindString:    "TEXT",
		KindInt:       "INTEGER",
		KindFloat:     "REAL",
		KindBool:      "INTEGER",
		KindTimestamp: "DATETIME",
		KindBytes:     "BLOB",
		KindJSON:      "TEXT",
		KindUUID:      "TEXT",
	})
	m.seed(DialectPostgres, map[Kind]string{
		KindString:    "text",
		KindInt:       "bigint",
		KindFloat:     "double precision",
		KindBool:      "boolean",
		KindTimestamp: "timestamptz",
		KindBytes:     "bytea",
		KindJSON:      "jsonb",
		KindUUID:      "uuid",
	})
	m.seed(DialectMySQL, map[Kind]string{
		KindString:    "text",
		KindInt:       "bigint",
		KindFloat:     "double",
		KindBool:      "tinyint(1)",
		KindTimestamp: "datetime(6)",
		KindBytes:     "blob",
		KindJSON:      "json",
		KindUUID:      "char(36)",
	})
	return m
}

func (m *TypeMapper) seed(d Dialect, kinds map[Kind]string) {
	for k, ct := range kinds {
		m.rules[mappingKey{dialect: d, kind: k}] = ct
	}
}

// Override replaces the mapped column type for a dialect/kind pair. Used for
// configuration-supplied mapping overrides.
func (m *TypeMapper) Override(d Dialect, k Kind, columnType string) error {
	if _, err := ParseDialect(string(d)); err != nil {
		return err
	}
	if !k.Valid() {
		return errUnknownKind(k)
	}
	if strings.TrimSpace(columnType) == "" {
		return fmt.Errorf("model: empty column type for %s/%s override", d, k)
	}
	m.overrides[mappingKey{dialect: d, kind: k}] = columnType
	return nil
}

// ColumnType resolves the column type for p under dialect d.
func (m *TypeMapper) ColumnType(d Dialect, p Property) (string, error) {
	if p.ColumnType != "" {
		return p.ColumnType, nil
	}
	key := mappingKey{dialect: d, kind: p.Kind}
	if ct, ok := m.overrides[key]; ok {
		return ct, nil
	}
	if ct, ok := m.rules[key]; ok {
		return ct, nil
	}
	return "", fmt.Errorf("model: no column type for kind %q in dialect %q", p.Kind, d)
}
