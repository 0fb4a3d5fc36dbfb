// Package http exposes the account, payment, and rewrite operations over
// HTTP/JSON for the browser client.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailadvisor/backend/internal/logging"
	"github.com/mailadvisor/backend/internal/server/models"
	"github.com/mailadvisor/backend/internal/server/services"
)

// AccountOperations is the slice of the account service the transport needs.
type AccountOperations interface {
	Signup(ctx context.Context, username, password string) (*models.SafeView, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, username string) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// PaymentOperations is the slice of the payment service the transport needs.
type PaymentOperations interface {
	Confirm(ctx context.Context, orderID string, amount int64, username string) (*services.ConfirmResult, error)
	History(ctx context.Context, username string) ([]*models.Payment, error)
}

// AdvisorOperations is the slice of the advisor service the transport needs.
type AdvisorOperations interface {
	Advise(ctx context.Context, username string, req *services.AdviseRequest) (*services.AdviseResult, error)
}

type Server struct {
	address   string
	logger    logging.Logger
	accounts  AccountOperations
	payments  PaymentOperations
	advisor   AdvisorOperations
	jwtSecret []byte
}

func NewServer(a string, l logging.Logger, accounts AccountOperations, payments PaymentOperations, advisor AdvisorOperations, secretKey string) (*Server, error) {
	return &Server{
		address:   a,
		logger:    l.With("module", "http_server"),
		accounts:  accounts,
		payments:  payments,
		advisor:   advisor,
		jwtSecret: []byte(secretKey),
	}, nil
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestIDMiddleware())
	r.Use(s.loggingMiddleware())

	r.GET("/health", s.health)

	auth := r.Group("/auth")
	{
		auth.POST("/signup", s.signup)
		auth.POST("/login", s.login)
		auth.POST("/refresh", s.refresh)
		auth.POST("/logout", s.authRequired(), s.logout)
	}

	payment := r.Group("/payment", s.authRequired())
	{
		payment.POST("/confirm", s.confirmPayment)
		payment.GET("/history", s.paymentHistory)
	}

	r.POST("/advisor", s.authRequired(), s.advise)

	return r
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
