package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"flowinsight/pkg/config"
	"flowinsight/pkg/database"
)

var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Test the database connection and show pool statistics",
	RunE:  runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Printf("config loaded (env: %s)\n", cfg.Env)
	fmt.Printf("database url: %s\n", maskPassword(cfg.Database.URL))

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	fmt.Printf("healthy: %v, response time: %v\n", status.Healthy, status.ResponseTime)
	fmt.Printf("pool: %d/%d conns (%d acquired, %d idle), %d acquires total\n",
		status.Stats.TotalConns, status.Stats.MaxConns,
		status.Stats.AcquiredConns, status.Stats.IdleConns,
		status.Stats.AcquireCount)
	return nil
}

// maskPassword hides the credential part of a postgres URL for display.
func maskPassword(url string) string {
	if len(url) < 55 {
		if len(url) > 30 {
			return url[:30] + "***"
		}
		return "***"
	}
	return url[:30] + "***" + url[len(url)-25:]
}
