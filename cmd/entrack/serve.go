package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/entrack/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inspection server",
	Long: `Start the entrack inspection server.

The server will:
  - Load configuration from entrack.yaml (or --config)
  - Or load configuration from ENTRACK_* environment variables
  - Load the entity model and create its tables
  - Serve model schemas, mapped column types, and live table
    introspection over HTTP

Environment variables (for Docker deployments):
  ENTRACK_MODEL_PATH      - Entity model YAML path (required)
  ENTRACK_DATABASE_DSN    - Database path (default: entrack.db)
  ENTRACK_SERVER_PORT     - Server port (default: 8080)
  ENTRACK_LOG_LEVEL       - Log level: debug, info, warn, error

Examples:
  entrack serve
  entrack serve --config /etc/entrack/config.yaml

  # Docker (env vars only):
  ENTRACK_MODEL_PATH=/data/model.yaml entrack serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(cfgFile)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return app.Run()
}
