package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// Migrations are embedded so the binary can be run from any working
// directory.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies all pending SQL migrations in lexical order,
// tracking applied ones in schema_migrations.
func (db *DB) RunMigrations(ctx context.Context) error {
	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, name := range names {
		base := filepath.Base(name)
		if applied[base] {
			continue
		}

		if err := db.runMigration(ctx, name); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", base, err)
		}
		if err := db.recordMigration(ctx, base); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", base, err)
		}

		db.logger.Info("migration_applied", fmt.Sprintf("Applied migration: %s", base), "startup", nil)
	}

	return nil
}

// createMigrationsTable creates the migrations tracking table
func (db *DB) createMigrationsTable(ctx context.Context) error {
	sql := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			migration_name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	return db.Exec(ctx, sql)
}

// getAppliedMigrations returns a map of already applied migrations
func (db *DB) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := db.Query(ctx, "SELECT migration_name FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var migrationName string
		if err := rows.Scan(&migrationName); err != nil {
			return nil, err
		}
		applied[migrationName] = true
	}

	return applied, rows.Err()
}

// runMigration executes a single embedded migration file in a transaction
func (db *DB) runMigration(ctx context.Context, name string) error {
	content, err := migrationsFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	return tx.Commit(ctx)
}

// recordMigration records that a migration has been applied
func (db *DB) recordMigration(ctx context.Context, filename string) error {
	sql := "INSERT INTO schema_migrations (migration_name) VALUES ($1)"
	return db.Exec(ctx, sql, filename)
}
