package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowinsight/pkg/config"
	"flowinsight/pkg/database"
	"flowinsight/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "flowinsight",
	Short: "A-share capital-flow aggregation service",
	Long: `flowinsight syncs A-share capital-flow data from the public quote
provider, derives technical indicators, health scores and a daily
recommendation shortlist, and serves everything over a REST API.

Examples:
  flowinsight migrate
  flowinsight api
  flowinsight scheduler
  flowinsight collect stocks
  flowinsight collect flows --secid 1.600519
  flowinsight recommend --date 2025-07-31
  flowinsight health 1.600519`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// runtime bundles the pieces every command needs.
type runtime struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB
}

func (rt *runtime) close() {
	if rt.db != nil {
		rt.db.Close()
	}
}

// setup loads config, builds the logger and connects the database.
func setup() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &runtime{cfg: cfg, log: log, db: db}, nil
}
