// Package router wires the middleware stack and route groups onto an
// Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/calendar-todo/backend/internal/handler"
	"github.com/calendar-todo/backend/internal/middleware"
)

// New builds the HTTP router: the global middleware chain, the system
// routes, and the versioned API groups.
func New(h *handler.Handlers, m *middleware.Middlewares) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = m.Global.GlobalErrorHandler

	e.Use(m.Global.Recover())
	e.Use(middleware.RequestID())
	e.Use(m.Tracing.NewRelicMiddleware())
	e.Use(m.Tracing.EnhanceTracing())
	e.Use(m.ContextEnhancer.EnhanceContext())
	e.Use(m.Global.CORS())
	e.Use(m.Global.Secure())
	e.Use(m.Global.RequestLogger())

	registerSystemRoutes(e, h)

	api := e.Group("/api/v1")
	h.Auth.Routes(api.Group("/auth"), m)
	h.Todos.Routes(api.Group("/todos"), m)
	h.Settings.Routes(api.Group("/settings"), m)

	return e
}
