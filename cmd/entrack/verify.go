package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/artpar/entrack/adapters/sqlite"
	"github.com/artpar/entrack/core/model"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the sqlite column types the model maps to",
	Long: `Create the model's schema in a scratch sqlite database, introspect
the tables, and compare the column types the database assigned against the
configured mapping. Exits non-zero on any mismatch.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	_, m, mapper, err := loadAll()
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "entrack-verify-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	db, err := sqlite.Open(filepath.Join(dir, "verify.db"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateTables(m, mapper); err != nil {
		return err
	}

	ctx := context.Background()
	mismatches := 0
	for _, e := range m.Entities {
		expected, err := model.Columns(e, mapper, model.DialectSQLite)
		if err != nil {
			return fmt.Errorf("entity %s: %w", e.Name, err)
		}
		actual, err := db.Introspect(ctx, e.Table)
		if err != nil {
			return fmt.Errorf("introspect %s: %w", e.Table, err)
		}

		byName := map[string]string{}
		for _, c := range actual {
			byName[c.Name] = c.Type
		}
		for _, want := range expected {
			got, ok := byName[want.Column]
			switch {
			case !ok:
				fmt.Printf("MISSING  %s.%s\n", e.Table, want.Column)
				mismatches++
			case got != want.Type:
				fmt.Printf("MISMATCH %s.%s: database %q, model %q\n", e.Table, want.Column, got, want.Type)
				mismatches++
			default:
				fmt.Printf("OK       %s.%s %s\n", e.Table, want.Column, got)
			}
		}
	}

	if mismatches > 0 {
		return fmt.Errorf("%d column type mismatch(es)", mismatches)
	}
	fmt.Println("schema verified")
	return nil
}
