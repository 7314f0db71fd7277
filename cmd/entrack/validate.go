package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and entity model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, m, _, err := loadAll()
		if err != nil {
			return err
		}

		fmt.Println("Configuration valid")
		fmt.Printf("  Model:    %s\n", cfg.Model.Path)
		fmt.Printf("  Database: %s\n", cfg.Database.DSN)
		fmt.Printf("  Dialect:  %s\n", cfg.Mapping.Dialect)
		fmt.Printf("  Entities: %d\n", len(m.Entities))
		for _, e := range m.Entities {
			fmt.Printf("    %s (table %s, %d properties)\n", e.Name, e.Table, len(e.Properties))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
