package middleware

import (
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/calendar-todo/backend/internal/server"
)

// Middlewares groups the middleware components the router wires up.
type Middlewares struct {
	// Global holds CORS, request logging, recovery, secure headers, and
	// the global error handler.
	Global *GlobalMiddlewares

	// Auth enforces session authentication and attaches user context.
	Auth *AuthMiddleware

	// ContextEnhancer gives each request a logger carrying request_id,
	// method, path, ip, and trace/user metadata when present.
	ContextEnhancer *ContextEnhancer

	// Tracing installs New Relic transactions and custom attributes.
	Tracing *TracingMiddleware

	// RateLimit throttles abuse-prone endpoints.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares constructs all middleware components. auth resolves
// session tokens; the service layer provides it.
func NewMiddlewares(s *server.Server, auth Authenticator) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s, auth),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
