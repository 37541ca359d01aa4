package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema file.
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded migrations in apply order.
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := migrationsFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Name: e.Name(), SQL: string(b)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Migrate applies every embedded migration not yet recorded in schema_migrations.
// Returns the names of the migrations applied by this call.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	_, err := db.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
		     name VARCHAR(255) PRIMARY KEY,
		     applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		 )`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, m := range migrations {
		ok, err := db.applyMigration(ctx, m)
		if err != nil {
			return applied, err
		}
		if ok {
			applied = append(applied, m.Name)
		}
	}
	return applied, nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) (bool, error) {
	applied := false
	err := db.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// Serializes concurrent migrators.
		if _, err := tx.Exec(ctx, `LOCK TABLE schema_migrations IN EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock schema_migrations: %w", err)
		}

		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, m.Name,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", m.Name, err)
		}
		if exists {
			return nil
		}

		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.Name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.Name, err)
		}
		applied = true
		return nil
	})
	return applied, err
}
