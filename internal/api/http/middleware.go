package http

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/project-docs/internal/api/dto"
	"github.com/spec-kit/project-docs/internal/observability"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares. The request logger runs
// outermost so it sees the status written by the error handler.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("request_id", observability.RequestID(c)))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(routePath(c), c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed",
						zap.Error(domainErr),
						zap.String("request_id", observability.RequestID(c)))
				}
				message := domainErr.Message
				if domainErr.Code == "INTERNAL_ERROR" {
					message = "internal server error"
				}
				_ = c.Status(domainErr.HTTPStatus).JSON(dto.Fail(message, domainErr.Errors))
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also covers errors raised by fiber itself, such as unknown
// routes and unparsable bodies.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := "HTTP_ERROR"
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			code = "VALIDATION_FAILED"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusRequestEntityTooLarge:
			code = "PAYLOAD_TOO_LARGE"
		}
		return apperrors.NewDomainError(code, fiberErr.Message, fiberErr.Code)
	}
	return apperrors.ToDomainError(err)
}

func routePath(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return c.Path()
}

// loginRateLimiter keeps a token bucket per client IP. Buckets idle for
// longer than ttl are evicted by a sweep that runs at most once per
// sweepEvery.
type loginRateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*ipBucket
	perSecond  rate.Limit
	burst      int
	ttl        time.Duration
	sweepEvery time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

type ipBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLoginRateLimiter(perSecond, burst int) *loginRateLimiter {
	if perSecond <= 0 {
		perSecond = 5
	}
	if burst <= 0 {
		burst = perSecond
	}
	return &loginRateLimiter{
		buckets:    make(map[string]*ipBucket),
		perSecond:  rate.Limit(perSecond),
		burst:      burst,
		ttl:        5 * time.Minute,
		sweepEvery: time.Minute,
		now:        time.Now,
	}
}

func (l *loginRateLimiter) allow(ip string) bool {
	if ip == "" {
		ip = "unknown"
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.sweepEvery {
		for key, b := range l.buckets {
			if now.Sub(b.seen) > l.ttl {
				delete(l.buckets, key)
			}
		}
		l.lastSweep = now
	}
	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{lim: rate.NewLimiter(l.perSecond, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// LoginRateLimit rejects bursts of login attempts from one client IP.
func LoginRateLimit(perSecond, burst int) fiber.Handler {
	limiter := newLoginRateLimiter(perSecond, burst)
	return func(c *fiber.Ctx) error {
		if !limiter.allow(c.IP()) {
			return apperrors.NewTooManyRequests("too many login requests")
		}
		return c.Next()
	}
}
