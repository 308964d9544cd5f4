// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/kabyedict/internal/dbx"
	"github.com/dmitrijs2005/kabyedict/internal/server/migrations"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/entries"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	mu     sync.RWMutex
	schema entries.Schema
}

// Entries returns an entries.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Entries(db dbx.DBTX) entries.Repository {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return entries.NewPostgresRepository(db, m.schema)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

const validationColumnsQuery = `
	SELECT COUNT(*) FROM information_schema.columns
	WHERE table_schema = current_schema() AND table_name = 'mots_kabye'
	AND column_name IN ('statut_validation', 'notes_validation', 'date_validation')`

// DetectSchema checks whether the validation columns exist. Databases that
// were never migrated keep working in legacy mode.
func (m *PostgresRepositoryManager) DetectSchema(ctx context.Context, db dbx.DBTX) (entries.Schema, error) {
	var n int
	if err := db.QueryRowContext(ctx, validationColumnsQuery).Scan(&n); err != nil {
		return entries.Schema{}, fmt.Errorf("failed to inspect schema: %w", err)
	}

	schema := entries.Schema{Validation: n == 3}

	m.mu.Lock()
	m.schema = schema
	m.mu.Unlock()
	return schema, nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
// Repositories use the full schema until DetectSchema says otherwise.
func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &PostgresRepositoryManager{schema: entries.Schema{Validation: true}}, nil
}
