package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowinsight/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	if err := storage.Migrate(cmd.Context(), rt.db.Pool); err != nil {
		return err
	}
	fmt.Println("schema up to date")
	return nil
}
