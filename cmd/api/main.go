package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/centsible/centsible-backend/internal/config"
	"github.com/centsible/centsible-backend/internal/handler"
	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/centsible/centsible-backend/internal/ledger/memory"
	"github.com/centsible/centsible-backend/internal/ledger/postgres"
	"github.com/centsible/centsible-backend/internal/middleware"
	"github.com/centsible/centsible-backend/internal/service"
	"github.com/centsible/centsible-backend/internal/ws"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	store, cleanup, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer cleanup()

	hub := ws.NewHub()

	userService := service.NewUserService(store, hub)
	categoryService := service.NewCategoryService(store, hub)
	groupService := service.NewCategoryGroupService(store, hub)
	transactionService := service.NewTransactionService(store, hub)
	assignmentService := service.NewAssignmentService(store, hub)
	plaidService := service.NewPlaidService(store, hub)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(zerologMiddleware())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RateLimitMiddleware(rateLimiter))

	handler.RegisterRoutes(e, handler.Handlers{
		User:        handler.NewUserHandler(userService),
		Category:    handler.NewCategoryHandler(categoryService, groupService),
		Transaction: handler.NewTransactionHandler(transactionService),
		Assignment:  handler.NewAssignmentHandler(assignmentService),
		Plaid:       handler.NewPlaidHandler(plaidService),
		WebSocket:   handler.NewWebSocketHandler(hub, cfg.CORSOrigins),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.LedgerBackend).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openStore builds the configured ledger backend. The memory backend keeps
// everything in process and is meant for development and tests.
func openStore(cfg *config.Config) (ledger.Store, func(), error) {
	switch cfg.LedgerBackend {
	case config.BackendMemory:
		return memory.New(), func() {}, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(context.Background()); err != nil {
			pool.Close()
			return nil, nil, err
		}

		store := postgres.New(pool)
		if err := store.Init(context.Background()); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().Msg("Connected to database")
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
