package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/subtrackr/subtrackr/internal/app"
	"github.com/subtrackr/subtrackr/internal/config"
	"github.com/subtrackr/subtrackr/internal/repository"
)

func newMigrateCommand() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFile(); err != nil {
				return err
			}
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return errors.New("DATABASE_URL is not set; pass --database-url")
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (defaults to DATABASE_URL)")

	withMigrator := func(fn func(cmd *cobra.Command, m *repository.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			m, err := repository.NewMigrator(databaseURL)
			if err != nil {
				return errors.New(app.SanitizeError(err, databaseURL))
			}
			defer m.Close()
			return fn(cmd, m)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *repository.Migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			return printStatus(cmd, m)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *repository.Migrator) error {
			if err := m.Down(); err != nil {
				return err
			}
			return printStatus(cmd, m)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(printStatus),
	})

	return cmd
}

func printStatus(cmd *cobra.Command, m *repository.Migrator) error {
	status, err := m.Status()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case status.Empty:
		_, err = fmt.Fprintln(out, "no migrations applied")
	case status.Dirty:
		_, err = fmt.Fprintf(out, "version %d (dirty)\n", status.Version)
	default:
		_, err = fmt.Fprintf(out, "version %d\n", status.Version)
	}
	return err
}
