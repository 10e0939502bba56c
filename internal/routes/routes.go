package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gramline/gramline/internal/auth"
	"github.com/gramline/gramline/internal/config"
	"github.com/gramline/gramline/internal/delivery"
	"github.com/gramline/gramline/internal/identity"
	"github.com/gramline/gramline/internal/middleware"
	"github.com/gramline/gramline/internal/otp"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Logger != nil {
		app.Use(middleware.Audit(d.Logger))
	}

	RegisterHealthRoutes(app, d)

	// Identity store: Postgres in deployment, memory in dev without a DB.
	var userRepo identity.Repository
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
	}

	// Pending-code registry: shared via Redis when available, otherwise
	// process-local.
	var registry otp.Registry
	if d.Cache != nil {
		registry = otp.NewRedisRegistry(d.Cache, d.Cfg.CodeTTL)
	} else {
		registry = otp.NewMemoryRegistry(d.Cfg.CodeTTL)
	}

	gateway, err := delivery.New(d.Cfg, d.Logger)
	if err != nil {
		return err
	}

	authSvc := auth.NewService(userRepo, registry, gateway, d.Logger)
	authHandler := auth.NewHandler(authSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.CodeRateLimit(d.Cache, d.Cfg.CodeRateLimit)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	protected := api.Group("", middleware.AuthKey(authSvc))
	RegisterAccountRoutes(protected)

	return nil
}
