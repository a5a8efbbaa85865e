// Package httpapi serves the CashbackHub REST API the client talks to.
package httpapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/cashbackhub/internal/logging"
	"github.com/dmitrijs2005/cashbackhub/internal/server/config"
	"github.com/dmitrijs2005/cashbackhub/internal/server/users"
)

const (
	rateLimitCacheSize = 10_000
	rateLimitTTL       = 10 * time.Minute
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	address string
	app     *fiber.App
	users   *users.Service
	store   Pinger
	logger  logging.Logger
}

func NewServer(cfg *config.Config, logger logging.Logger, us *users.Service, store Pinger) *Server {
	s := &Server{
		address: cfg.Addr,
		users:   us,
		store:   store,
		logger:  logger.With("module", "http_server"),
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           cfg.RequestTimeout,
			WriteTimeout:          cfg.RequestTimeout,
		}),
	}

	if cfg.RequestTimeout > 0 {
		s.app.Use(requestTimeoutMiddleware(cfg.RequestTimeout))
	}
	s.app.Use(requestLogger(s.logger))
	s.app.Use(errorHandlingMiddleware(s.logger))

	limiter := newRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, rateLimitCacheSize, rateLimitTTL)
	s.registerRoutes(limiter)
	return s
}

func (s *Server) registerRoutes(limiter *rateLimiter) {
	s.app.Get("/health", s.health)

	a := s.app.Group("/auth")
	a.Post("/login", limiter.handle, s.login)
	a.Post("/register", limiter.handle, s.register)
	a.Post("/resend-verification", limiter.handle, s.resendVerification)
	a.Post("/refresh", s.refresh)
	a.Post("/logout", s.logout)
	a.Get("/verify-email", s.verifyEmail)

	a.Get("/me", s.authenticate, s.me)
	a.Post("/reset-password", s.authenticate, s.resetPassword)
	a.Post("/2fa/setup", s.authenticate, s.setupTwoFactor)
	a.Post("/2fa/disable", s.authenticate, s.disableTwoFactor)

	s.app.Put("/users/me", s.authenticate, s.updateProfile)
	s.app.Get("/:role/dashboard", s.authenticate, s.dashboard)
}

// Handler exposes the fiber app, mainly for app.Test in tests.
func (s *Server) Handler() *fiber.App {
	return s.app
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- s.app.Listen(s.address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(shutdownCtx)
}
