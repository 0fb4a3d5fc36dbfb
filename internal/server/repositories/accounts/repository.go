package accounts

import (
	"context"

	"github.com/mailadvisor/backend/internal/server/models"
)

// Repository is the credential store plus the balance ledger. Balance
// mutations are single atomic statements evaluated by the database; callers
// must never read-modify-write a balance.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)

	SaveRefreshToken(ctx context.Context, username string, token string) error
	ClearRefreshToken(ctx context.Context, username string) error

	// IncreaseBalance adds amount to the account's balance in one statement.
	IncreaseBalance(ctx context.Context, username string, amount int64) error
	// DecreaseBalance subtracts amount with a zero floor in one statement and
	// reports the number of rows updated (zero means the account is gone).
	DecreaseBalance(ctx context.Context, username string, amount int64) (int64, error)
}
