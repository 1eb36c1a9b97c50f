// Package repomanager provides a concrete RepositoryManager for the SQL
// backends, wiring together repository constructors and database
// migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/dmitrijs2005/vaultsync/internal/server/migrations"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/notes"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/users"
)

// SQLRepositoryManager vends repositories for one SQL dialect and exposes a
// schema migration hook.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

// Dialect reports the backend the repositories are bound to.
func (m *SQLRepositoryManager) Dialect() dbx.Dialect {
	return m.dialect
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewSQLRepository(db, m.dialect)
}

// Notes returns a notes.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Notes(db dbx.DBTX) notes.Repository {
	return notes.NewSQLRepository(db, m.dialect)
}

// Attachments returns an attachments.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Attachments(db dbx.DBTX) attachments.Repository {
	return attachments.NewSQLRepository(db, m.dialect)
}

// migrateUp is a seam for testing migrations.Up.
var migrateUp = migrations.Up

// RunMigrations applies the embedded migrations of the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, db, m.dialect)
}

// NewSQLRepositoryManager constructs a RepositoryManager for dialect.
func NewSQLRepositoryManager(dialect dbx.Dialect) (RepositoryManager, error) {
	d, err := dbx.ParseDialect(string(dialect))
	if err != nil {
		return nil, err
	}
	return &SQLRepositoryManager{dialect: d}, nil
}
