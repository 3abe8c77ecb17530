package cmd

import (
	"database/sql"
	"os"

	"github.com/greenstash/greenstash/internal/config"
	"github.com/greenstash/greenstash/internal/db"
	"github.com/greenstash/greenstash/internal/logger"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}

	cmd.AddCommand(migrateStepCmd("up", "Apply all pending migrations", db.RunMigrations))
	cmd.AddCommand(migrateStepCmd("down", "Roll back the last migration", db.MigrateDown))
	cmd.AddCommand(migrateStepCmd("status", "Show migration status", db.Status))
	return cmd
}

func migrateStepCmd(use, short string, step func(*sql.DB, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			flush := logger.Init(os.Stderr, cfg.IsDevelopment(), cfg.SentryDSN, cfg.AppEnv)
			defer flush()

			database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(database) }()

			return step(database.DB, cfg.DBDriver)
		},
	}
}
