package routes

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/minledger/minledger/internal/config"
	"github.com/minledger/minledger/internal/ledger"
	"github.com/minledger/minledger/internal/middleware"
	"github.com/minledger/minledger/internal/notification"
	"github.com/minledger/minledger/internal/storage"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg     config.Config
	Backend *storage.Backend
	Cache   *redis.Client
	Logger  *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Backend == nil {
		return fmt.Errorf("storage backend is required")
	}
	if !d.Cfg.IsDev() && d.Backend.Driver == config.DriverMemory {
		d.Logger.Warn("in-memory store outside development, data is lost on restart", slog.String("env", d.Cfg.AppEnv))
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	svc := ledger.NewService(d.Backend.Accounts, d.Backend.Events,
		ledger.WithLogger(d.Logger),
		ledger.WithNotifier(notification.NewLoggerNotifier(d.Logger)),
	)
	RegisterLedgerRoutes(app, ledger.NewHandler(svc), middleware.RateLimit(d.Cache, d.Cfg.RateLimit, d.Logger))

	return nil
}

// RegisterLedgerRoutes mounts the ledger endpoints. writeLimit guards
// POST /event.
func RegisterLedgerRoutes(app *fiber.App, h *ledger.Handler, writeLimit fiber.Handler) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{"detail": "Api running"})
	})
	app.Post("/event", writeLimit, h.Event)
	app.Get("/balance", h.Balance)
	app.Post("/reset", h.Reset)
	app.Post("/reset/accounts", h.ResetAccounts)

	app.Get("/accounts", h.Accounts)
	app.Post("/accounts", h.OpenAccount)
	app.Get("/accounts/:accountId/events", h.History)
}
