package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dirham-pay/dirham_pay/internal/banking"
	"github.com/dirham-pay/dirham_pay/internal/config"
	"github.com/dirham-pay/dirham_pay/internal/credential"
	"github.com/dirham-pay/dirham_pay/internal/funding"
	"github.com/dirham-pay/dirham_pay/internal/gateway"
	"github.com/dirham-pay/dirham_pay/internal/identifier"
	"github.com/dirham-pay/dirham_pay/internal/ledger"
	"github.com/dirham-pay/dirham_pay/internal/metrics"
	"github.com/dirham-pay/dirham_pay/internal/middleware"
	"github.com/dirham-pay/dirham_pay/internal/notification"
	"github.com/dirham-pay/dirham_pay/internal/payments"
	"github.com/dirham-pay/dirham_pay/internal/wallet"
)

// The bank rail fixes the challenge value for outbound transfers.
const bankTransferCode = "123456"

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Logger    *slog.Logger
	Collector *metrics.Collector
}

// Setup configures middlewares and all application routes. Postgres, Redis and
// the bank API are each optional: without them the service runs on in-memory
// stores and the static rail simulator.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	var journal ledger.Journal
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
		journal = ledger.NewPostgresJournal(d.DB)
	} else {
		store = ledger.NewMemoryStore()
		journal = ledger.NewMemoryJournal()
	}

	var creds credential.Store
	if d.Cache != nil {
		creds = credential.NewRedisStore(d.Cache, d.Cfg.PendingTTL, d.Cfg.OTPTTL)
	} else {
		creds = credential.NewMemoryStore(d.Cfg.PendingTTL, d.Cfg.OTPTTL)
	}

	var connector gateway.Connector
	if d.Cfg.BankAPIURL != "" {
		adapter := gateway.NewAdapter(d.Logger,
			gateway.WithRetries(d.Cfg.GatewayMaxRetries, d.Cfg.GatewayRetryDelay),
			gateway.WithAttemptHook(d.Collector.RecordGatewayAttempt),
		)
		connector = gateway.NewHTTPConnector(d.Cfg.BankAPIURL, d.Cfg.BankAPIKey, adapter)
	} else {
		connector = gateway.Static{}
	}

	codes := identifier.RandomCode{Length: d.Cfg.OTPLength}
	notifier := notification.NewLoggerNotifier(d.Logger)

	walletSvc := wallet.NewService(store, journal, creds, codes, d.Cfg.OpeningBalance)
	fundingSvc := funding.NewService(store, journal, creds, connector, codes, d.Collector)
	paymentsSvc := payments.NewService(store, journal, creds, connector, codes, notifier, d.Collector)
	bankingSvc := banking.NewService(store, journal, creds, connector, codes, identifier.Static(bankTransferCode), d.Collector)

	walletHandler := wallet.NewHandler(walletSvc)
	fundingHandler := funding.NewHandler(fundingSvc)
	paymentsHandler := payments.NewHandler(paymentsSvc)
	bankingHandler := banking.NewHandler(bankingSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	otpLimiter := middleware.OTPRateLimit(d.Cache, 5)
	RegisterWalletRoutes(api, walletHandler, otpLimiter)
	RegisterFundingRoutes(api, fundingHandler, otpLimiter)
	RegisterPaymentRoutes(api, paymentsHandler, otpLimiter)
	RegisterBankingRoutes(api, bankingHandler, otpLimiter)

	return nil
}
