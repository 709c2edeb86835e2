package handler

import (
	"github.com/calendar-todo/backend/internal/server"
	"github.com/calendar-todo/backend/internal/service"
)

// Handlers groups all HTTP handlers so the router wires one object.
type Handlers struct {
	Health   *HealthHandler
	OpenAPI  *OpenAPIHandler
	Auth     *AuthHandler
	Todos    *TodoHandler
	Settings *SettingsHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(s),
		OpenAPI:  NewOpenAPIHandler(s),
		Auth:     NewAuthHandler(s, services),
		Todos:    NewTodoHandler(s, services),
		Settings: NewSettingsHandler(s, services),
	}
}
