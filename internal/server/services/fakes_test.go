package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mailadvisor/backend/internal/common"
	"github.com/mailadvisor/backend/internal/dbx"
	"github.com/mailadvisor/backend/internal/logging"
	"github.com/mailadvisor/backend/internal/server/models"
	"github.com/mailadvisor/backend/internal/server/repositories/accounts"
	"github.com/mailadvisor/backend/internal/server/repositories/payments"
)

// fakeAccountsRepo is an in-memory accounts.Repository. Every mutation runs
// under one mutex, mirroring the single-statement atomicity the real store
// guarantees.
type fakeAccountsRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	nextID   int

	increaseErr error
	createErr   error
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{accounts: make(map[string]*models.Account)}
}

func (r *fakeAccountsRepo) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.accounts[account.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}
	r.nextID++
	account.ID = fmt.Sprintf("acc-%d", r.nextID)
	account.CreatedAt = time.Now()
	stored := *account
	r.accounts[account.Username] = &stored
	return account, nil
}

func (r *fakeAccountsRepo) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *stored
	if stored.RefreshToken != nil {
		token := *stored.RefreshToken
		copy.RefreshToken = &token
	}
	return &copy, nil
}

func (r *fakeAccountsRepo) SaveRefreshToken(ctx context.Context, username string, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.accounts[username]; ok {
		stored.RefreshToken = &token
	}
	return nil
}

func (r *fakeAccountsRepo) ClearRefreshToken(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.accounts[username]; ok {
		stored.RefreshToken = nil
	}
	return nil
}

func (r *fakeAccountsRepo) IncreaseBalance(ctx context.Context, username string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.increaseErr != nil {
		return r.increaseErr
	}
	if stored, ok := r.accounts[username]; ok {
		stored.TokenAmount += amount
	}
	return nil
}

func (r *fakeAccountsRepo) DecreaseBalance(ctx context.Context, username string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[username]
	if !ok {
		return 0, nil
	}
	stored.TokenAmount -= amount
	if stored.TokenAmount < 0 {
		stored.TokenAmount = 0
	}
	return 1, nil
}

func (r *fakeAccountsRepo) balance(username string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.accounts[username]; ok {
		return stored.TokenAmount
	}
	return -1
}

// fakePaymentsRepo is an in-memory payments.Repository.
type fakePaymentsRepo struct {
	mu      sync.Mutex
	records []*models.Payment
	nextID  int

	createErr error
}

func newFakePaymentsRepo() *fakePaymentsRepo {
	return &fakePaymentsRepo{}
}

func (r *fakePaymentsRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	payment.ID = fmt.Sprintf("pay-%d", r.nextID)
	payment.CreatedAt = time.Now()
	stored := *payment
	r.records = append(r.records, &stored)
	return payment, nil
}

func (r *fakePaymentsRepo) ListRecent(ctx context.Context, accountID string, limit int) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Payment, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(result) < limit; i-- {
		if r.records[i].AccountID == accountID {
			copy := *r.records[i]
			result = append(result, &copy)
		}
	}
	return result, nil
}

// fakeRepoManager vends the fakes regardless of the DBTX handed in.
type fakeRepoManager struct {
	accountsRepo *fakeAccountsRepo
	paymentsRepo *fakePaymentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accountsRepo: newFakeAccountsRepo(),
		paymentsRepo: newFakePaymentsRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository { return m.accountsRepo }

func (m *fakeRepoManager) Payments(db dbx.DBTX) payments.Repository { return m.paymentsRepo }

// fakeGateway simulates the payment gateway.
type fakeGateway struct {
	mu         sync.Mutex
	calls      int
	paymentKey string
	err        error
}

func (g *fakeGateway) ConfirmPayment(ctx context.Context, orderID string, amount int64, customerName string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	if g.paymentKey != "" {
		return g.paymentKey, nil
	}
	return "toss_" + orderID, nil
}

func newTestAccount(username string, balance int64) *models.Account {
	return &models.Account{Username: username, PasswordHash: "x", TokenAmount: balance}
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
