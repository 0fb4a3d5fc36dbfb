// Package accounts provides the PostgreSQL-backed credential store and
// balance ledger for user accounts.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mailadvisor/backend/internal/common"
	"github.com/mailadvisor/backend/internal/dbx"
	"github.com/mailadvisor/backend/internal/server/models"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account. A duplicate username maps to
// common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (username, password_hash, token_amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.Username, account.PasswordHash, account.TokenAmount).
		Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

// GetByUsername returns the account row for the given username.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `
		SELECT id, username, password_hash, token_amount, refresh_token, created_at
		FROM accounts
		WHERE username = $1
	`
	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&account.ID, &account.Username, &account.PasswordHash,
		&account.TokenAmount, &account.RefreshToken, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

// SaveRefreshToken overwrites the account's stored refresh token. A login
// must fully replace, not merge with, whatever was there before.
func (r *PostgresRepository) SaveRefreshToken(ctx context.Context, username string, token string) error {
	query := `
		UPDATE accounts SET refresh_token = $1
		WHERE username = $2
	`
	if _, err := r.db.ExecContext(ctx, query, token, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ClearRefreshToken nulls out the stored refresh token. Clearing an already
// cleared token is fine: logout is idempotent.
func (r *PostgresRepository) ClearRefreshToken(ctx context.Context, username string) error {
	query := `
		UPDATE accounts SET refresh_token = NULL
		WHERE username = $1
	`
	if _, err := r.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// IncreaseBalance adds amount to the balance. The addition happens inside
// the UPDATE itself, so concurrent increments never lose updates.
func (r *PostgresRepository) IncreaseBalance(ctx context.Context, username string, amount int64) error {
	query := `
		UPDATE accounts SET token_amount = token_amount + $1
		WHERE username = $2
	`
	if _, err := r.db.ExecContext(ctx, query, amount, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DecreaseBalance subtracts amount, flooring at zero. The floor is applied
// inside the single UPDATE statement, so the balance can never be observed
// negative regardless of interleaving. Zero rows affected signals that the
// account no longer exists.
func (r *PostgresRepository) DecreaseBalance(ctx context.Context, username string, amount int64) (int64, error) {
	query := `
		UPDATE accounts SET token_amount = GREATEST(token_amount - $1, 0)
		WHERE username = $2
	`
	res, err := r.db.ExecContext(ctx, query, amount, username)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return rows, nil
}
