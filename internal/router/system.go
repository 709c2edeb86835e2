package router

import (
	"github.com/labstack/echo/v4"

	"github.com/calendar-todo/backend/internal/handler"
)

// registerSystemRoutes mounts the operational endpoints that sit outside
// the versioned API.
func registerSystemRoutes(e *echo.Echo, h *handler.Handlers) {
	e.GET("/status", h.Health.CheckHealth)
	e.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
	e.Static("/static", "static")
}
