package handler

import (
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/calendar-todo/backend/internal/server"
)

// OpenAPIHandler serves the docs UI: a static HTML page that renders
// static/openapi.json.
type OpenAPIHandler struct {
	Handler
}

// NewOpenAPIHandler constructs an OpenAPIHandler.
func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPIUI reads static/openapi.html and serves it, uncached so doc
// updates show up immediately.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	templateBytes, err := os.ReadFile("static/openapi.html")

	c.Response().Header().Set("Cache-Control", "no-cache")

	if err != nil {
		return fmt.Errorf("failed to read OpenAPI UI template: %w", err)
	}

	return c.HTML(http.StatusOK, string(templateBytes))
}
