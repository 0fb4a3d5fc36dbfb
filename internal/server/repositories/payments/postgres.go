// Package payments provides a PostgreSQL-backed repository for purchase
// records created by confirmed gateway charges.
package payments

import (
	"context"
	"fmt"

	"github.com/mailadvisor/backend/internal/dbx"
	"github.com/mailadvisor/backend/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a purchase record and fills in the generated id and
// creation timestamp.
func (r *PostgresRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	query := `
		INSERT INTO payments (account_id, order_id, payment_key, amount, tokens, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		payment.AccountID, payment.OrderID, payment.PaymentKey,
		payment.Amount, payment.Tokens, payment.Status).
		Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return payment, nil
}

// ListRecent returns the account's purchase records, newest first, bounded
// by limit. An account with no purchases yields an empty slice.
func (r *PostgresRepository) ListRecent(ctx context.Context, accountID string, limit int) ([]*models.Payment, error) {
	query := `
		SELECT id, account_id, order_id, payment_key, amount, tokens, status, created_at
		FROM payments
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Payment, 0, limit)
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.AccountID, &p.OrderID, &p.PaymentKey,
			&p.Amount, &p.Tokens, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
