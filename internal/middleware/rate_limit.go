package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/calendar-todo/backend/internal/server"
)

// RateLimitMiddleware throttles abuse-prone endpoints and records hits
// as custom events when New Relic is enabled.
type RateLimitMiddleware struct {
	server *server.Server
}

// NewRateLimitMiddleware constructs a RateLimitMiddleware.
func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// LimitAuth returns a per-IP limiter for the credential endpoints, tight
// enough to slow brute force without bothering real clients.
func (r *RateLimitMiddleware) LimitAuth() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  rate.Limit(5),
			Burst: 10,
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())
			return echo.ErrTooManyRequests
		},
	})
}

// RecordRateLimitHit records a rate limit event for observability.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if r.server.LoggerService != nil && r.server.LoggerService.GetApplication() != nil {
		r.server.LoggerService.GetApplication().RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}
