// Package sqlite provides SQLite implementations of storage ports: schema
// creation from model metadata, live column introspection, and a record
// store driven by change sets.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/artpar/entrack/core/model"
	"github.com/artpar/entrack/ports"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a SQLite database connection.
type DB struct {
	*sql.DB
}

// Open creates a new SQLite database connection.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Set pragmas for performance
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	return &DB{DB: db}, nil
}

// CreateTables creates one table per model entity through the sqlite dialect
// mapping. Existing tables are left untouched.
func (db *DB) CreateTables(m *model.Model, mapper *model.TypeMapper) error {
	for _, e := range m.Entities {
		stmt, err := model.DDL(e, mapper, model.DialectSQLite)
		if err != nil {
			return fmt.Errorf("render ddl: %w", err)
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create table %s: %w", e.Table, err)
		}
	}
	return nil
}

// Introspect returns the declared column types the database assigned to a
// table, in column order.
func (db *DB) Introspect(ctx context.Context, table string) ([]ports.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", model.QuoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ports.ColumnInfo
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, ports.ColumnInfo{
			Name:       name,
			Type:       ctype,
			NotNull:    notnull != 0,
			PrimaryKey: pk != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return cols, nil
}

// Ensure interface compliance.
var _ ports.SchemaIntrospector = (*DB)(nil)
