package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mailadvisor/backend/internal/common"
	"github.com/mailadvisor/backend/internal/logging"
	"github.com/mailadvisor/backend/internal/server/auth"
	"github.com/mailadvisor/backend/internal/server/models"
	"github.com/mailadvisor/backend/internal/server/services"
)

const testSecret = "test-secret"

type fakeAccounts struct {
	signupView *models.SafeView
	signupErr  error
	loginRes   *services.LoginResult
	loginErr   error
	refreshTok string
	refreshErr error

	loggedOut []string
}

func (f *fakeAccounts) Signup(ctx context.Context, username, password string) (*models.SafeView, error) {
	return f.signupView, f.signupErr
}

func (f *fakeAccounts) Login(ctx context.Context, username, password string) (*services.LoginResult, error) {
	return f.loginRes, f.loginErr
}

func (f *fakeAccounts) Logout(ctx context.Context, username string) error {
	f.loggedOut = append(f.loggedOut, username)
	return nil
}

func (f *fakeAccounts) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return f.refreshTok, f.refreshErr
}

type fakePayments struct {
	confirmRes *services.ConfirmResult
	confirmErr error
	history    []*models.Payment
	historyErr error

	gotOrderID  string
	gotAmount   int64
	gotUsername string
}

func (f *fakePayments) Confirm(ctx context.Context, orderID string, amount int64, username string) (*services.ConfirmResult, error) {
	f.gotOrderID = orderID
	f.gotAmount = amount
	f.gotUsername = username
	return f.confirmRes, f.confirmErr
}

func (f *fakePayments) History(ctx context.Context, username string) ([]*models.Payment, error) {
	return f.history, f.historyErr
}

type fakeAdvisor struct {
	result *services.AdviseResult
	err    error

	gotUsername string
	gotReq      *services.AdviseRequest
}

func (f *fakeAdvisor) Advise(ctx context.Context, username string, req *services.AdviseRequest) (*services.AdviseResult, error) {
	f.gotUsername = username
	f.gotReq = req
	return f.result, f.err
}

func newTestServer(t *testing.T) (*Server, *fakeAccounts, *fakePayments, *fakeAdvisor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	accounts := &fakeAccounts{}
	payments := &fakePayments{}
	advisor := &fakeAdvisor{}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv, err := NewServer(":0", logger, accounts, payments, advisor, testSecret)
	require.NoError(t, err)
	return srv, accounts, payments, advisor
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.router().ServeHTTP(w, req)
	return w
}

func accessTokenFor(t *testing.T, username string) string {
	t.Helper()
	token, err := auth.GenerateToken(username, "acc-1", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return token
}

func TestHealth(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSignup_Created(t *testing.T) {
	srv, accounts, _, _ := newTestServer(t)
	accounts.signupView = &models.SafeView{ID: "acc-1", Username: "alice", TokenAmount: 10000}

	w := doRequest(t, srv, http.MethodPost, "/auth/signup", "",
		gin.H{"username": "alice", "password": "hunter2"})

	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "alice", body["username"])
	require.Equal(t, float64(10000), body["tokenAmount"])
}

func TestSignup_Conflict(t *testing.T) {
	srv, accounts, _, _ := newTestServer(t)
	accounts.signupErr = common.ErrorAlreadyExists

	w := doRequest(t, srv, http.MethodPost, "/auth/signup", "",
		gin.H{"username": "alice", "password": "hunter2"})

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestSignup_MissingFields(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/auth/signup", "", gin.H{"username": "alice"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Success(t *testing.T) {
	srv, accounts, _, _ := newTestServer(t)
	accounts.loginRes = &services.LoginResult{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenAmount:  9500,
	}

	w := doRequest(t, srv, http.MethodPost, "/auth/login", "",
		gin.H{"username": "alice", "password": "hunter2"})

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "access", body["accessToken"])
	require.Equal(t, "refresh", body["refreshToken"])
	require.Equal(t, float64(9500), body["tokenAmount"])
}

func TestLogin_BadCredentials(t *testing.T) {
	srv, accounts, _, _ := newTestServer(t)
	accounts.loginErr = common.ErrorUnauthorized

	w := doRequest(t, srv, http.MethodPost, "/auth/login", "",
		gin.H{"username": "alice", "password": "wrong"})

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh_Success(t *testing.T) {
	srv, accounts, _, _ := newTestServer(t)
	accounts.refreshTok = "new-access"

	w := doRequest(t, srv, http.MethodPost, "/auth/refresh", "",
		gin.H{"refreshToken": "some-refresh"})

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "new-access", body["accessToken"])
}

func TestRefresh_Invalid(t *testing.T) {
	srv, accounts, _, _ := newTestServer(t)
	accounts.refreshErr = common.ErrorUnauthorized

	w := doRequest(t, srv, http.MethodPost, "/auth/refresh", "",
		gin.H{"refreshToken": "stale"})

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_RequiresAuth(t *testing.T) {
	srv, accounts, _, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/auth/logout", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, accounts.loggedOut)
}

func TestLogout_UsesPrincipalFromToken(t *testing.T) {
	srv, accounts, _, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/auth/logout", accessTokenFor(t, "alice"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"alice"}, accounts.loggedOut)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	srv.router().ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ForeignSecret(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	forged, err := auth.GenerateToken("alice", "acc-1", []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	w := doRequest(t, srv, http.MethodPost, "/auth/logout", forged, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConfirmPayment_Success(t *testing.T) {
	srv, _, payments, _ := newTestServer(t)
	payments.confirmRes = &services.ConfirmResult{Tokens: 5000, PaymentID: "pay-1"}

	w := doRequest(t, srv, http.MethodPost, "/payment/confirm", accessTokenFor(t, "alice"),
		gin.H{"orderId": "order-1", "amount": 5000})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "order-1", payments.gotOrderID)
	require.Equal(t, int64(5000), payments.gotAmount)
	require.Equal(t, "alice", payments.gotUsername)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, float64(5000), body["tokens"])
	require.Equal(t, "pay-1", body["paymentId"])
}

func TestConfirmPayment_GatewayFailure(t *testing.T) {
	srv, _, payments, _ := newTestServer(t)
	payments.confirmErr = common.ErrorPaymentFailed

	w := doRequest(t, srv, http.MethodPost, "/payment/confirm", accessTokenFor(t, "alice"),
		gin.H{"orderId": "order-1", "amount": 5000})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmPayment_PartialFailure_Is500(t *testing.T) {
	srv, _, payments, _ := newTestServer(t)
	payments.confirmErr = common.ErrorPartialFailure

	w := doRequest(t, srv, http.MethodPost, "/payment/confirm", accessTokenFor(t, "alice"),
		gin.H{"orderId": "order-1", "amount": 5000})

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestConfirmPayment_RequiresAuth(t *testing.T) {
	srv, _, payments, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/payment/confirm", "",
		gin.H{"orderId": "order-1", "amount": 5000})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, payments.gotOrderID)
}

func TestPaymentHistory(t *testing.T) {
	srv, _, payments, _ := newTestServer(t)
	payments.history = []*models.Payment{
		{OrderID: "order-2", Amount: 2000, Tokens: 2000, Status: models.PaymentStatusSuccess},
		{OrderID: "order-1", Amount: 1000, Tokens: 1000, Status: models.PaymentStatusSuccess},
	}

	w := doRequest(t, srv, http.MethodGet, "/payment/history", accessTokenFor(t, "alice"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		History []map[string]any `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.History, 2)
	require.Equal(t, "order-2", body.History[0]["orderId"])
}

func TestPaymentHistory_Empty(t *testing.T) {
	srv, _, payments, _ := newTestServer(t)
	payments.history = []*models.Payment{}

	w := doRequest(t, srv, http.MethodGet, "/payment/history", accessTokenFor(t, "alice"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"history":[]}`, w.Body.String())
}

func TestAdvise_Success(t *testing.T) {
	srv, _, _, advisor := newTestServer(t)
	advisor.result = &services.AdviseResult{Output: "안녕하세요. 검토 부탁드립니다.", Tokens: 120}

	w := doRequest(t, srv, http.MethodPost, "/advisor", accessTokenFor(t, "alice"),
		gin.H{"text": "검토 바람", "toneLevel": "정중하게"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "alice", advisor.gotUsername)
	require.Equal(t, "검토 바람", advisor.gotReq.Text)
	require.Equal(t, "정중하게", advisor.gotReq.ToneLevel)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, float64(120), body["tokens"])
}

func TestAdvise_MissingText(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/advisor", accessTokenFor(t, "alice"), gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdvise_ProviderFailure(t *testing.T) {
	srv, _, _, advisor := newTestServer(t)
	advisor.err = errors.New("provider down")

	w := doRequest(t, srv, http.MethodPost, "/advisor", accessTokenFor(t, "alice"),
		gin.H{"text": "x"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	require.NotEmpty(t, w.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "supplied-id")
	w2 := httptest.NewRecorder()
	srv.router().ServeHTTP(w2, req)
	require.Equal(t, "supplied-id", w2.Header().Get("X-Request-Id"))
}
