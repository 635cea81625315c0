package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cityfix/internal/dbx"
	"github.com/dmitrijs2005/cityfix/internal/server/repositories/issues"
	"github.com/dmitrijs2005/cityfix/internal/server/repositories/statusupdates"
	"github.com/dmitrijs2005/cityfix/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or an open
// transaction, so one unit of work can span several repositories.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Issues(db dbx.DBTX) issues.Repository
	StatusUpdates(db dbx.DBTX) statusupdates.Repository
}
