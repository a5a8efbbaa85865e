package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/cashbackhub/internal/logging"
	"github.com/dmitrijs2005/cashbackhub/internal/server/models"
)

const (
	headerRequestID = "X-Request-ID"
	userKey         = "auth_user"
)

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware renders any returned error, or recovered panic, as
// {"error":{"code","message","details"}}.
func errorHandlingMiddleware(logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.UserContext(), "panic recovered", "panic", r, "stack", string(debug.Stack()))
				err = newError(http.StatusInternalServerError, "internal", "internal error")
			}
			if err == nil {
				return
			}
			de := toDomainError(err)
			body := fiber.Map{"code": de.Code, "message": de.Message}
			if len(de.Details) > 0 {
				body["details"] = de.Details
			}
			if de.HTTPStatus >= 500 {
				logger.Error(c.UserContext(), "request failed", "path", c.Path(), "error", de.Error())
			}
			c.Status(de.HTTPStatus)
			_ = c.JSON(fiber.Map{"error": body})
			err = nil
		}()
		return c.Next()
	}
}

// requestLogger tags each request with an id, echoing the caller's
// X-Request-ID when present, and logs its outcome.
func requestLogger(logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		id := c.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(headerRequestID, id)
		c.SetUserContext(logging.WithRequestID(c.UserContext(), id))

		err := c.Next()

		logger.Info(c.UserContext(), "http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start).String(),
		)
		return err
	}
}

// rateLimiter keeps a token bucket per client IP. Idle buckets expire.
type rateLimiter struct {
	mu       sync.Mutex
	visitors *lru.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func newRateLimiter(limit float64, burst, size int, ttl time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors: lru.NewLRU[string, *rate.Limiter](size, nil, ttl),
		limit:    rate.Limit(limit),
		burst:    burst,
	}
}

func (l *rateLimiter) allow(ip string) bool {
	l.mu.Lock()
	lim, ok := l.visitors.Get(ip)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.visitors.Add(ip, lim)
	}
	l.mu.Unlock()
	return lim.Allow()
}

func (l *rateLimiter) handle(c *fiber.Ctx) error {
	if !l.allow(c.IP()) {
		c.Set(fiber.HeaderRetryAfter, "1")
		return newError(http.StatusTooManyRequests, "rate_limited", "Too many attempts. Try again in a moment.")
	}
	return c.Next()
}

// authenticate resolves the bearer token to an account and stores it in
// the request locals.
func (s *Server) authenticate(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return unauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return unauthorized("invalid authorization header")
	}

	user, err := s.users.Authenticate(c.UserContext(), token)
	if err != nil {
		return err
	}
	c.Locals(userKey, user)
	return c.Next()
}

func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userKey).(*models.User)
	return u
}
