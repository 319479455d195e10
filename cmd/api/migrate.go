package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fiddyhq/autopublisher/config"
	"github.com/fiddyhq/autopublisher/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	db, err := database.NewClient(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// NewClient applies the schema on connect; the statements are
	// idempotent so reapplying is safe.
	if err := db.Migrate(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("Migrations completed successfully")
	return nil
}
