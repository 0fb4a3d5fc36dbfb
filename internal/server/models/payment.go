package models

import "time"

// Payment statuses. A row is written exactly once per confirmed gateway
// charge and is immutable afterwards.
const (
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
	PaymentStatusPending = "PENDING"
)

// Payment records one confirmed purchase: the externally-supplied order id,
// the gateway-assigned payment key, the charged amount, and the token count
// credited for it.
type Payment struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"-"`
	OrderID    string    `json:"orderId"`
	PaymentKey string    `json:"paymentKey"`
	Amount     int64     `json:"amount"`
	Tokens     int64     `json:"tokens"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}
