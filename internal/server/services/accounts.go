// Package services contains server-side business logic. This file implements
// AccountService: signup, login, logout, refresh, and the token ledger
// operations every consuming call charges through.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mailadvisor/backend/internal/common"
	"github.com/mailadvisor/backend/internal/server/auth"
	"github.com/mailadvisor/backend/internal/server/config"
	"github.com/mailadvisor/backend/internal/server/models"
	"github.com/mailadvisor/backend/internal/server/repositories/repomanager"
)

// bcryptCost is the fixed work factor for password hashing.
const bcryptCost = 10

// LoginResult bundles the issued token pair with the account's balance.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	TokenAmount  int64
}

// AccountService provides the session lifecycle and balance operations:
//   - Signup / Login / Logout / Refresh
//   - IncreaseBalance / DecreaseBalance (atomic, zero-floored)
type AccountService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	signupBonus                  int64
}

// NewAccountService constructs an AccountService using repositories and
// server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		signupBonus:                  cfg.SignupBonus,
	}
}

// Signup hashes the password and creates an account with the starting
// balance. A taken username yields common.ErrorAlreadyExists and leaves the
// existing account untouched.
func (s *AccountService) Signup(ctx context.Context, username, password string) (*models.SafeView, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.Create(ctx, &models.Account{
		Username:     username,
		PasswordHash: string(hash),
		TokenAmount:  s.signupBonus,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	return account.Safe(), nil
}

// Login verifies the credentials and, on success, issues a new token pair
// and persists the refresh token, overwriting any previous value. A missing
// account and a wrong password both yield the same common.ErrorUnauthorized
// so the response never leaks which half failed.
func (s *AccountService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	accessToken, err := auth.GenerateToken(account.Username, account.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshToken, err := auth.GenerateToken(account.Username, account.ID, s.jwtSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := repo.SaveRefreshToken(ctx, username, refreshToken); err != nil {
		return nil, common.ErrorInternal
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenAmount:  account.TokenAmount,
	}, nil
}

// Logout clears the stored refresh token unconditionally. Logging out an
// already-logged-out account succeeds silently.
func (s *AccountService) Logout(ctx context.Context, username string) error {
	repo := s.repomanager.Accounts(s.db)
	if err := repo.ClearRefreshToken(ctx, username); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// Refresh verifies the presented refresh token, requires it to exactly match
// the account's stored one (a replay after logout or after a newer login on
// another device fails here), and issues a new access token. The refresh
// token itself is not rotated.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := auth.ParseToken(refreshToken, s.jwtSecret)
	if err != nil {
		return "", common.ErrorUnauthorized
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if account.RefreshToken == nil || *account.RefreshToken != refreshToken {
		return "", common.ErrorUnauthorized
	}

	accessToken, err := auth.GenerateToken(account.Username, account.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	return accessToken, nil
}

// IncreaseBalance credits amount tokens. The addition is evaluated by the
// database in a single statement.
func (s *AccountService) IncreaseBalance(ctx context.Context, username string, amount int64) error {
	if amount < 0 {
		return common.ErrorNegativeAmount
	}
	repo := s.repomanager.Accounts(s.db)
	if err := repo.IncreaseBalance(ctx, username, amount); err != nil {
		return fmt.Errorf("error increasing balance: %w", err)
	}
	return nil
}

// DecreaseBalance debits amount tokens, flooring the balance at zero inside
// the same atomic statement. common.ErrorNotFound reports an account that no
// longer exists.
func (s *AccountService) DecreaseBalance(ctx context.Context, username string, amount int64) error {
	if amount < 0 {
		return common.ErrorNegativeAmount
	}
	repo := s.repomanager.Accounts(s.db)
	rows, err := repo.DecreaseBalance(ctx, username, amount)
	if err != nil {
		return fmt.Errorf("error decreasing balance: %w", err)
	}
	if rows == 0 {
		return common.ErrorNotFound
	}
	return nil
}
