// Package db opens the dialect-agnostic database handle shared by every
// store in the entity store (§5). Eludris instances run on either
// Postgres or SQLite; dbutil lets the rest of the codebase write
// `$1`-style placeholders regardless of which driver is active.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/util/dbutil"

	"github.com/eludris-go/eludris/internal/config"
)

// Open connects to cfg's configured dialect and wraps it in a
// dbutil.Database so callers can use `$N` placeholders uniformly.
func Open(cfg config.DatabaseConfig) (*dbutil.Database, error) {
	dialect := cfg.Dialect
	if dialect == "" {
		dialect = "sqlite3"
	}
	raw, err := sql.Open(dialect, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	db, err := dbutil.NewWithDB(raw, dialect)
	if err != nil {
		return nil, fmt.Errorf("wrap %s handle: %w", dialect, err)
	}
	return db, nil
}

// Migrate applies the schema in schema.go. It is idempotent: every
// statement uses CREATE TABLE/INDEX IF NOT EXISTS.
func Migrate(ctx context.Context, database *dbutil.Database) error {
	for _, stmt := range schemaStatements {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
