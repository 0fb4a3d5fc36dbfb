// Package common defines shared sentinel errors used across the server
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Ledger errors.
	ErrorNegativeAmount = errors.New("amount must not be negative")

	// Payment errors. ErrorPartialFailure marks the case where the gateway
	// charged but the local credit did not commit; it carries enough context
	// when wrapped (order id, amount) to reconcile by hand.
	ErrorPaymentFailed  = errors.New("payment failed")
	ErrorPartialFailure = errors.New("payment charged but not credited")

	// Startup configuration errors (fatal at boot, never per-request).
	ErrorConfiguration = errors.New("configuration error")
)
