// Package toss implements a client for the Toss Payments key-in API, the
// external gateway that charges purchases before the local ledger is
// credited.
package toss

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mailadvisor/backend/internal/common"
)

// Development key-in card material, matching the gateway's sandbox. The
// values are sent to the gateway only and must never appear in logs or
// returned errors.
const (
	cardNumber          = "5171977216207306"
	cardExpirationYear  = "28"
	cardExpirationMonth = "03"
	cardPassword        = "12"
	customerIdentity    = "990101"
)

// Client calls the Toss Payments key-in endpoint. The injected http.Client
// owns timeouts; a timeout surfaces as a failed payment like any other
// transport error.
type Client struct {
	baseURL   string
	secretKey string
	httpc     *http.Client
}

// NewClient constructs a gateway client. A missing secret key is a fatal
// configuration error: the payment capability must not start without it.
func NewClient(baseURL, secretKey string, httpc *http.Client) (*Client, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("%w: payment gateway secret key is not set", common.ErrorConfiguration)
	}
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{baseURL: baseURL, secretKey: secretKey, httpc: httpc}, nil
}

type keyInRequest struct {
	Amount                 int64  `json:"amount"`
	OrderID                string `json:"orderId"`
	OrderName              string `json:"orderName"`
	CustomerName           string `json:"customerName"`
	CardNumber             string `json:"cardNumber"`
	CardExpirationYear     string `json:"cardExpirationYear"`
	CardExpirationMonth    string `json:"cardExpirationMonth"`
	CardPassword           string `json:"cardPassword"`
	CustomerIdentityNumber string `json:"customerIdentityNumber"`
}

type keyInResponse struct {
	PaymentKey string `json:"paymentKey"`
	Message    string `json:"message"`
}

// ConfirmPayment charges the order synchronously and returns the
// gateway-assigned payment key. Any non-success response, transport failure,
// or malformed body maps to common.ErrorPaymentFailed.
func (c *Client) ConfirmPayment(ctx context.Context, orderID string, amount int64, customerName string) (string, error) {
	payload := keyInRequest{
		Amount:                 amount,
		OrderID:                orderID,
		OrderName:              fmt.Sprintf("%d원 토큰 충전", amount),
		CustomerName:           customerName,
		CardNumber:             cardNumber,
		CardExpirationYear:     cardExpirationYear,
		CardExpirationMonth:    cardExpirationMonth,
		CardPassword:           cardPassword,
		CustomerIdentityNumber: customerIdentity,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorPaymentFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payments/key-in", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorPaymentFailed, err)
	}
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.secretKey+":")))
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: gateway unreachable", common.ErrorPaymentFailed)
	}
	defer res.Body.Close()

	var decoded keyInResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: malformed gateway response", common.ErrorPaymentFailed)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := decoded.Message
		if msg == "" {
			msg = res.Status
		}
		return "", fmt.Errorf("%w: %s", common.ErrorPaymentFailed, msg)
	}

	paymentKey := decoded.PaymentKey
	if paymentKey == "" {
		paymentKey = "toss_" + orderID
	}

	return paymentKey, nil
}
