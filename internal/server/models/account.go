// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a registered user with a consumable token balance.
//
// TokenAmount never goes below zero: every mutation runs through the
// repository's single-statement atomic updates. RefreshToken holds at most
// one live value; a new login overwrites it, logout clears it.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	TokenAmount  int64
	RefreshToken *string
	CreatedAt    time.Time
}

// SafeView is the account representation returned to callers: identity and
// balance with secret material omitted.
type SafeView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	TokenAmount int64  `json:"tokenAmount"`
}

// Safe returns the account view with secret material omitted.
func (a *Account) Safe() *SafeView {
	return &SafeView{ID: a.ID, Username: a.Username, TokenAmount: a.TokenAmount}
}
