package repomanager

import (
	"context"
	"database/sql"

	"github.com/mailadvisor/backend/internal/dbx"
	"github.com/mailadvisor/backend/internal/server/repositories/accounts"
	"github.com/mailadvisor/backend/internal/server/repositories/payments"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// repository code runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Payments(db dbx.DBTX) payments.Repository
}
