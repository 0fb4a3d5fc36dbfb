package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailadvisor/backend/internal/common"
	"github.com/mailadvisor/backend/internal/dbx"
	"github.com/mailadvisor/backend/internal/logging"
	"github.com/mailadvisor/backend/internal/server/models"
	"github.com/mailadvisor/backend/internal/server/repositories/repomanager"
)

// Gateway is the external payment gateway contract: charge synchronously,
// return the gateway-assigned payment key.
type Gateway interface {
	ConfirmPayment(ctx context.Context, orderID string, amount int64, customerName string) (string, error)
}

// ConfirmResult reports a credited purchase.
type ConfirmResult struct {
	Tokens    int64
	PaymentID string
}

// PaymentService confirms purchases with the gateway and credits the ledger.
// The gateway call always happens before, and outside of, the local
// transaction: the store is never held open while waiting on an external
// dependency.
type PaymentService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	gateway      Gateway
	historyLimit int
	logger       logging.Logger
}

// NewPaymentService constructs a PaymentService. The gateway must already be
// configured; a client without credentials never gets this far.
func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, gateway Gateway, historyLimit int, logger logging.Logger) *PaymentService {
	return &PaymentService{
		db:           db,
		repomanager:  m,
		gateway:      gateway,
		historyLimit: historyLimit,
		logger:       logger.With("module", "payments"),
	}
}

// Confirm charges the order with the gateway and then, in one local
// transaction, credits the balance (1 token per monetary unit) and writes
// the purchase record. A gateway failure leaves no local state. A local
// failure after the gateway charged is reported as ErrorPartialFailure and
// logged with the order id and amount so it can be reconciled.
func (s *PaymentService) Confirm(ctx context.Context, orderID string, amount int64, username string) (*ConfirmResult, error) {
	if amount <= 0 {
		return nil, common.ErrorNegativeAmount
	}

	paymentKey, err := s.gateway.ConfirmPayment(ctx, orderID, amount, username)
	if err != nil {
		if errors.Is(err, common.ErrorPaymentFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorPaymentFailed, err)
	}

	tokens := amount // 1 KRW = 1 token

	var payment *models.Payment
	txErr := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accountRepo := s.repomanager.Accounts(tx)

		account, err := accountRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}

		if err := accountRepo.IncreaseBalance(ctx, username, tokens); err != nil {
			return err
		}

		payment, err = s.repomanager.Payments(tx).Create(ctx, &models.Payment{
			AccountID:  account.ID,
			OrderID:    orderID,
			PaymentKey: paymentKey,
			Amount:     amount,
			Tokens:     tokens,
			Status:     models.PaymentStatusSuccess,
		})
		return err
	})

	if txErr != nil {
		// The gateway has already charged: whatever went wrong locally must
		// be loud enough to reconcile by hand.
		s.logger.Error(ctx, "payment charged but not credited",
			"order_id", orderID, "amount", amount, "username", username, "error", txErr.Error())
		if errors.Is(txErr, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: order %s", common.ErrorNotFound, orderID)
		}
		return nil, fmt.Errorf("%w: order %s amount %d", common.ErrorPartialFailure, orderID, amount)
	}

	s.logger.Info(ctx, "purchase credited",
		"order_id", orderID, "amount", amount, "tokens", tokens, "payment_id", payment.ID)

	return &ConfirmResult{Tokens: tokens, PaymentID: payment.ID}, nil
}

// History returns the account's most recent purchase records, newest first.
// An unknown account yields an empty slice: the read path is not
// authoritative for existence.
func (s *PaymentService) History(ctx context.Context, username string) ([]*models.Payment, error) {
	accountRepo := s.repomanager.Accounts(s.db)

	account, err := accountRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return []*models.Payment{}, nil
		}
		return nil, common.ErrorInternal
	}

	history, err := s.repomanager.Payments(s.db).ListRecent(ctx, account.ID, s.historyLimit)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return history, nil
}
