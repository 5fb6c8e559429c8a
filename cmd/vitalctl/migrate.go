package main

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/vitalvision/backend/internal/config"
	"github.com/vitalvision/backend/internal/migrations"
	"go.uber.org/zap"
)

// openDB is replaced in tests
var openDB = func(url string) (*sql.DB, error) {
	return sql.Open("postgres", url)
}

// withDB resolves the database URL, from the flag or configuration, and runs
// fn against an open connection.
func withDB(cmd *cobra.Command, fn func(db *sql.DB, logger *zap.Logger) error) error {
	cfg, err := config.Read()
	if err != nil {
		return err
	}

	url, _ := cmd.Flags().GetString("database-url")
	if url == "" {
		url = cfg.Database.URL
	}
	if url == "" {
		return errors.New("database url is required: set DATABASE_URL or --database-url")
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := openDB(url)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return fn(db, logger)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL, defaults to DATABASE_URL")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *sql.DB, logger *zap.Logger) error {
				applied, err := migrations.Up(cmd.Context(), db, logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *sql.DB, logger *zap.Logger) error {
				reverted, err := migrations.Down(cmd.Context(), db, logger)
				if err != nil {
					return err
				}
				if !reverted {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to revert")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "reverted 1 migration")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *sql.DB, logger *zap.Logger) error {
				all, err := migrations.All()
				if err != nil {
					return err
				}
				current, err := migrations.Version(cmd.Context(), db)
				if err != nil {
					return err
				}

				latest, pending := 0, 0
				for _, m := range all {
					latest = m.Version
					if m.Version > current {
						pending++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (latest %d, %d pending)\n", current, latest, pending)
				return nil
			})
		},
	})

	return cmd
}
