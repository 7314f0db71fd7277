package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/entrack/core/model"
)

var schemaDialect string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the DDL the model maps to under a dialect",
	Long: `Render the CREATE TABLE statements the entity model maps to.

The dialect defaults to mapping.dialect from the configuration.

Examples:
  entrack schema
  entrack schema --dialect postgres`,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().StringVar(&schemaDialect, "dialect", "", "target dialect (sqlite, postgres, mysql)")
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, m, mapper, err := loadAll()
	if err != nil {
		return err
	}

	name := schemaDialect
	if name == "" {
		name = cfg.Mapping.Dialect
	}
	dialect, err := model.ParseDialect(name)
	if err != nil {
		return err
	}

	for i, e := range m.Entities {
		stmt, err := model.DDL(e, mapper, dialect)
		if err != nil {
			return fmt.Errorf("entity %s: %w", e.Name, err)
		}
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(stmt + ";")
	}
	return nil
}
