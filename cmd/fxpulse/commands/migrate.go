package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fxpulse/pkg/config"
	"github.com/wonny/fxpulse/pkg/database"
)

// migrateCmd applies the embedded schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage != config.StoragePostgres {
		return fmt.Errorf("migrate requires STORAGE_DRIVER=postgres")
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	applied, err := db.Migrate(cmd.Context())
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		PrintInfo("Schema is up to date")
		return nil
	}
	for _, v := range applied {
		PrintSuccess("Applied " + v)
	}
	return nil
}
