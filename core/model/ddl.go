package model

import (
	"fmt"
	"strings"
)

// DDL renders the CREATE TABLE statement for an entity under the given
// dialect. Column order follows property definition order.
func DDL(e *Entity, mapper *TypeMapper, d Dialect) (string, error) {
	cols := make([]string, 0, len(e.Properties))
	for _, p := range e.Properties {
		ct, err := mapper.ColumnType(d, p)
		if err != nil {
			return "", fmt.Errorf("entity %q property %q: %w", e.Name, p.Name, err)
		}
		col := QuoteIdent(p.Column) + " " + ct
		if p.Key {
			// SQLite allows NULL in primary keys unless told otherwise.
			col += " PRIMARY KEY NOT NULL"
		} else {
			if !p.Nullable {
				col += " NOT NULL"
			}
			if p.Unique {
				col += " UNIQUE"
			}
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		QuoteIdent(e.Table), strings.Join(cols, ",\n\t")), nil
}

// QuoteIdent quotes an identifier with double quotes, doubling embedded
// quotes. Works for every supported dialect (MySQL in ANSI_QUOTES mode).
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
