package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/isdelr/murmur/internal/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations to the SQLite database.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("database_path", cfg.DatabasePath).Wrap(err)
	}
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
