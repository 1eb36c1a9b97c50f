package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/notes"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Dialect() dbx.Dialect
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Notes(db dbx.DBTX) notes.Repository
	Attachments(db dbx.DBTX) attachments.Repository
}
