// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/entrack/core/change"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// RecordStore persists entity records in their mapped tables.
type RecordStore interface {
	// Insert stores a new record.
	Insert(ctx context.Context, r change.Record) error

	// Update applies only the changed properties of a detection result.
	Update(ctx context.Context, set change.Set) error

	// Get retrieves a record by key value.
	Get(ctx context.Context, entity string, key any) (change.Record, error)

	// Delete removes a record by key value.
	Delete(ctx context.Context, entity string, key any) error
}

// ColumnInfo describes one live database column.
type ColumnInfo struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

// SchemaIntrospector reports the column metadata a database actually
// assigned to a table, for verification against the model's mapping.
type SchemaIntrospector interface {
	Introspect(ctx context.Context, table string) ([]ColumnInfo, error)
}
