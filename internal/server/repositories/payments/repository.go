package payments

import (
	"context"

	"github.com/mailadvisor/backend/internal/server/models"
)

// Repository persists purchase records. Rows are written exactly once, as
// the terminal step of a confirmed purchase, and never updated.
type Repository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	// ListRecent returns up to limit records for the account, newest first.
	ListRecent(ctx context.Context, accountID string, limit int) ([]*models.Payment, error)
}
