package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/calendar-todo/backend/internal/middleware"
	"github.com/calendar-todo/backend/internal/model"
	"github.com/calendar-todo/backend/internal/server"
	"github.com/calendar-todo/backend/internal/service"
)

// SettingsHandler serves the user settings and category endpoints.
type SettingsHandler struct {
	Handler
	services *service.Services
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(s *server.Server, services *service.Services) *SettingsHandler {
	return &SettingsHandler{
		Handler:  NewHandler(s),
		services: services,
	}
}

// UpdateSettingsRequest wraps a partial settings document. Every field is
// optional; validation of the nested values happens field by field.
type UpdateSettingsRequest struct {
	model.SettingsPatch
}

func (r *UpdateSettingsRequest) Validate() error {
	return validate.Struct(r)
}

// AddCategoryRequest creates a category.
type AddCategoryRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"required,hexcolor"`
}

func (r *AddCategoryRequest) Validate() error { return validate.Struct(r) }

// UpdateCategoryRequest renames or recolors a category.
type UpdateCategoryRequest struct {
	ID    string  `param:"id" json:"-" validate:"required"`
	Name  *string `json:"name" validate:"omitempty,max=50"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

func (r *UpdateCategoryRequest) Validate() error { return validate.Struct(r) }

// DeleteCategoryRequest deletes a category. The todos it holds move to
// replacement, or to the first remaining category when absent.
type DeleteCategoryRequest struct {
	ID          string `param:"id" validate:"required"`
	Replacement string `query:"replacement"`
}

func (r *DeleteCategoryRequest) Validate() error { return validate.Struct(r) }

// ReorderCategoriesRequest applies a new category ordering.
type ReorderCategoriesRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

func (r *ReorderCategoriesRequest) Validate() error { return validate.Struct(r) }

// CategoryFilterRequest shows or hides one category in the calendar.
type CategoryFilterRequest struct {
	ID      string `param:"id" validate:"required"`
	Visible *bool  `json:"visible" validate:"required"`
}

func (r *CategoryFilterRequest) Validate() error { return validate.Struct(r) }

// Get returns the user's settings, creating defaults on first access.
func (h *SettingsHandler) Get(c echo.Context, _ *EmptyRequest) (*model.UserSettings, error) {
	return h.services.Settings.Get(c.Request().Context(), middleware.GetUserID(c))
}

// Update applies a partial settings update.
func (h *SettingsHandler) Update(c echo.Context, req *UpdateSettingsRequest) (*model.UserSettings, error) {
	return h.services.Settings.Update(c.Request().Context(), middleware.GetUserID(c), req.SettingsPatch)
}

// Reset restores the default settings.
func (h *SettingsHandler) Reset(c echo.Context, _ *EmptyRequest) (*model.UserSettings, error) {
	return h.services.Settings.Reset(c.Request().Context(), middleware.GetUserID(c))
}

// AddCategory appends a category.
func (h *SettingsHandler) AddCategory(c echo.Context, req *AddCategoryRequest) (*model.UserSettings, error) {
	return h.services.Settings.AddCategory(c.Request().Context(), middleware.GetUserID(c), req.Name, req.Color)
}

// UpdateCategory renames or recolors a category.
func (h *SettingsHandler) UpdateCategory(c echo.Context, req *UpdateCategoryRequest) (*model.UserSettings, error) {
	return h.services.Settings.UpdateCategory(c.Request().Context(), middleware.GetUserID(c), req.ID, req.Name, req.Color)
}

// DeleteCategory removes a category and reassigns its todos.
func (h *SettingsHandler) DeleteCategory(c echo.Context, req *DeleteCategoryRequest) (*model.UserSettings, error) {
	return h.services.Settings.DeleteCategory(c.Request().Context(), middleware.GetUserID(c), req.ID, req.Replacement)
}

// ReorderCategories applies a new category ordering.
func (h *SettingsHandler) ReorderCategories(c echo.Context, req *ReorderCategoriesRequest) (*model.UserSettings, error) {
	return h.services.Settings.ReorderCategories(c.Request().Context(), middleware.GetUserID(c), req.IDs)
}

// SetCategoryFilter shows or hides one category.
func (h *SettingsHandler) SetCategoryFilter(c echo.Context, req *CategoryFilterRequest) (*model.UserSettings, error) {
	return h.services.Settings.SetCategoryFilter(c.Request().Context(), middleware.GetUserID(c), req.ID, *req.Visible)
}

// dataExport is the downloadable snapshot of a user's data. Import accepts
// the same shape.
type dataExport struct {
	ExportedAt time.Time      `json:"exportedAt"`
	Settings   model.Settings `json:"settings"`
	Todos      []*model.Todo  `json:"todos"`
}

// ImportRequest is a previously exported document to restore.
type ImportRequest struct {
	Settings model.Settings `json:"settings"`
	Todos    []*model.Todo  `json:"todos"`
}

func (r *ImportRequest) Validate() error { return validate.Struct(r) }

// ImportResponse reports what an import restored.
type ImportResponse struct {
	Settings      *model.UserSettings `json:"settings"`
	ImportedTodos int                 `json:"importedTodos"`
}

// Export returns the user's settings and todos as a JSON download.
func (h *SettingsHandler) Export(c echo.Context, _ *EmptyRequest) ([]byte, error) {
	ctx := c.Request().Context()
	userID := middleware.GetUserID(c)

	settings, err := h.services.Settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	todos, err := h.services.Todos.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(dataExport{
		ExportedAt: time.Now().UTC(),
		Settings:   settings.Settings,
		Todos:      todos,
	}, "", "  ")
}

// Import restores an exported document: settings wholesale, todos as new
// records owned by the caller.
func (h *SettingsHandler) Import(c echo.Context, req *ImportRequest) (ImportResponse, error) {
	settings, created, err := h.services.Settings.Import(c.Request().Context(), middleware.GetUserID(c), req.Settings, req.Todos)
	if err != nil {
		return ImportResponse{}, err
	}
	return ImportResponse{Settings: settings, ImportedTodos: created}, nil
}

// Routes registers the settings endpoints.
func (h *SettingsHandler) Routes(g *echo.Group, m *middleware.Middlewares) {
	g.Use(m.Auth.RequireAuth)

	g.GET("", Handle(h.Handler, h.Get, http.StatusOK, &EmptyRequest{}))
	g.PATCH("", Handle(h.Handler, h.Update, http.StatusOK, &UpdateSettingsRequest{}))
	g.POST("/reset", Handle(h.Handler, h.Reset, http.StatusOK, &EmptyRequest{}))
	g.GET("/export", HandleFile(h.Handler, h.Export, http.StatusOK, &EmptyRequest{}, "calendar-todo-export.json", "application/json"))
	g.POST("/import", Handle(h.Handler, h.Import, http.StatusOK, &ImportRequest{}))

	g.POST("/categories", Handle(h.Handler, h.AddCategory, http.StatusCreated, &AddCategoryRequest{}))
	g.PUT("/categories/reorder", Handle(h.Handler, h.ReorderCategories, http.StatusOK, &ReorderCategoriesRequest{}))
	g.PATCH("/categories/:id", Handle(h.Handler, h.UpdateCategory, http.StatusOK, &UpdateCategoryRequest{}))
	g.DELETE("/categories/:id", Handle(h.Handler, h.DeleteCategory, http.StatusOK, &DeleteCategoryRequest{}))
	g.PUT("/categories/:id/filter", Handle(h.Handler, h.SetCategoryFilter, http.StatusOK, &CategoryFilterRequest{}))
}
