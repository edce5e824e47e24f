package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/livedesk/internal/dbx"
	"github.com/dmitrijs2005/livedesk/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/livedesk/internal/server/repositories/secretconfig"
	"github.com/dmitrijs2005/livedesk/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so services can run
// them against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	SecretConfig(db dbx.DBTX) secretconfig.Repository
}
