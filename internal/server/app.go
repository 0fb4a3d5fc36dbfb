// Package server initializes and runs the Mail Advisor backend: it loads
// configuration, opens the database and runs migrations, wires the gateway
// and provider clients into the services, and serves HTTP until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mailadvisor/backend/internal/logging"
	"github.com/mailadvisor/backend/internal/server/config"
	mahttp "github.com/mailadvisor/backend/internal/server/http"
	"github.com/mailadvisor/backend/internal/server/openai"
	"github.com/mailadvisor/backend/internal/server/repositories/repomanager"
	"github.com/mailadvisor/backend/internal/server/services"
	"github.com/mailadvisor/backend/internal/server/toss"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	accountService *services.AccountService
	paymentService *services.PaymentService
	advisorService *services.AdvisorService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, err
	}

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	gateway, err := toss.NewClient(c.TossAPIURL, c.TossSecretKey, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return nil, err
	}

	completer, err := openai.NewClient(c.OpenAIAPIURL, c.OpenAIAPIKey, c.OpenAIModel, &http.Client{Timeout: 60 * time.Second})
	if err != nil {
		return nil, err
	}

	as := services.NewAccountService(db, rm, c)
	ps := services.NewPaymentService(db, rm, gateway, c.PurchaseHistoryLimit, logger)
	ad := services.NewAdvisorService(completer, as, logger)

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		accountService: as,
		paymentService: ps,
		advisorService: ad,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := mahttp.NewServer(app.config.EndpointAddr, app.logger,
		app.accountService, app.paymentService, app.advisorService, app.config.SecretKey)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
