package main

import (
	"fmt"

	"github.com/jonathan/rank-engine/internal/db"
	"github.com/spf13/cobra"
)

var migrateList bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Apply every embedded SQL migration not yet recorded in schema_migrations. Safe to run concurrently.",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateList, "list", false, "List embedded migrations without connecting")
	rootCmd.AddCommand(migrateCmd)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func runMigrate(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if migrateList {
		migrations, err := db.Migrations()
		if err != nil {
			return err
		}
		for _, m := range migrations {
			fmt.Fprintln(out, m.Name)
		}
		return nil
	}

	if err := cfg.Validate(true); err != nil {
		return err
	}
	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	applied, err := database.Migrate(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(out, "Database is up to date")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(out, "Applied %s\n", name)
	}
	return nil
}
