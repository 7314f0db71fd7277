package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/entrack/config"
	"github.com/artpar/entrack/core/model"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "entrack",
	Short: "Entity change tracking with value comparers and column-type mapping",
	Long: `Entrack tracks changes to entity records through per-property value
comparers and maps entity models to relational schemas.

Quick start:
  entrack validate  # Validate configuration and model
  entrack schema    # Print the DDL a dialect would get
  entrack serve     # Start the inspection server

Verification:
  entrack verify    # Create the schema in a scratch database and compare
                    # the column types the database assigned against the model`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "entrack.yaml", "config file path")
}

// loadAll loads configuration, the entity model, and the configured mapper.
func loadAll() (*config.Config, *model.Model, *model.TypeMapper, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, nil, nil, err
	}

	m, err := model.LoadYAML(cfg.Model.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load model: %w", err)
	}

	mapper := model.NewTypeMapper()
	if err := cfg.Mapping.Apply(mapper); err != nil {
		return nil, nil, nil, err
	}

	return cfg, m, mapper, nil
}
