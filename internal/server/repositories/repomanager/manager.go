package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/kabyedict/internal/dbx"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/entries"
)

// RepositoryManager vends repositories bound to a connection or transaction
// and owns the schema lifecycle.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	// DetectSchema inspects the live table and fixes the column set used by
	// repositories vended afterwards.
	DetectSchema(context.Context, dbx.DBTX) (entries.Schema, error)
	Entries(db dbx.DBTX) entries.Repository
}
