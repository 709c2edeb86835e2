package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/calendar-todo/backend/internal/errs"
	"github.com/calendar-todo/backend/internal/middleware"
	"github.com/calendar-todo/backend/internal/model"
	"github.com/calendar-todo/backend/internal/server"
	"github.com/calendar-todo/backend/internal/service"
)

// TodoHandler serves the todo CRUD, filter, and calendar endpoints. All
// of them require authentication.
type TodoHandler struct {
	Handler
	services *service.Services
}

// NewTodoHandler constructs a TodoHandler.
func NewTodoHandler(s *server.Server, services *service.Services) *TodoHandler {
	return &TodoHandler{
		Handler:  NewHandler(s),
		services: services,
	}
}

// CreateTodoRequest is the payload for creating a todo.
type CreateTodoRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=high medium low"`
	CategoryID  string    `json:"categoryId"`
	TodoType    string    `json:"todoType" validate:"omitempty,oneof=event task"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
}

func (r *CreateTodoRequest) Validate() error { return validate.Struct(r) }

// UpdateTodoRequest is a partial todo update; absent fields are left
// untouched.
type UpdateTodoRequest struct {
	ID          string     `param:"id" json:"-" validate:"required,uuid"`
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Completed   *bool      `json:"completed"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=high medium low"`
	CategoryID  *string    `json:"categoryId"`
	TodoType    *string    `json:"todoType" validate:"omitempty,oneof=event task"`
	DueDate     *time.Time `json:"dueDate"`
}

func (r *UpdateTodoRequest) Validate() error { return validate.Struct(r) }

// TodoIDRequest addresses one todo by path parameter.
type TodoIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (r *TodoIDRequest) Validate() error { return validate.Struct(r) }

// ListTodosRequest carries the optional list filters. completed and
// category are mutually exclusive; page enables pagination.
type ListTodosRequest struct {
	Completed  *bool  `query:"completed"`
	CategoryID string `query:"category"`
	Page       int    `query:"page" validate:"omitempty,min=1"`
	Limit      int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

func (r *ListTodosRequest) Validate() error { return validate.Struct(r) }

// RangeTodosRequest asks for the todos due inside one calendar window.
type RangeTodosRequest struct {
	From time.Time `query:"from" validate:"required"`
	To   time.Time `query:"to" validate:"required"`
}

func (r *RangeTodosRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.To.Before(r.From) {
		return errs.NewBadRequestError("to must not be before from", true, nil, nil, nil)
	}
	return nil
}

// Create stores a new todo for the user.
func (h *TodoHandler) Create(c echo.Context, req *CreateTodoRequest) (*model.Todo, error) {
	return h.services.Todos.Create(c.Request().Context(), middleware.GetUserID(c), service.CreateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.Priority(req.Priority),
		CategoryID:  req.CategoryID,
		TodoType:    model.TodoType(req.TodoType),
		DueDate:     req.DueDate,
	})
}

// Get returns one todo.
func (h *TodoHandler) Get(c echo.Context, req *TodoIDRequest) (*model.Todo, error) {
	return h.services.Todos.Get(c.Request().Context(), middleware.GetUserID(c), req.ID)
}

// List returns the user's todos, filtered or paginated per the query.
func (h *TodoHandler) List(c echo.Context, req *ListTodosRequest) (interface{}, error) {
	ctx := c.Request().Context()
	userID := middleware.GetUserID(c)

	switch {
	case req.Completed != nil:
		return h.services.Todos.ListByCompleted(ctx, userID, *req.Completed)
	case req.CategoryID != "":
		return h.services.Todos.ListByCategory(ctx, userID, req.CategoryID)
	case req.Page > 0:
		return h.services.Todos.ListPaginated(ctx, userID, req.Page, req.Limit)
	default:
		return h.services.Todos.List(ctx, userID)
	}
}

// Range returns the todos due inside the requested window, the query the
// calendar view runs for each visible month.
func (h *TodoHandler) Range(c echo.Context, req *RangeTodosRequest) ([]*model.Todo, error) {
	return h.services.Todos.ListDueBetween(c.Request().Context(), middleware.GetUserID(c), req.From, req.To)
}

// Stats summarizes the user's todos.
func (h *TodoHandler) Stats(c echo.Context, _ *EmptyRequest) (service.TodoStats, error) {
	return h.services.Todos.Stats(c.Request().Context(), middleware.GetUserID(c))
}

// Update applies a partial update to one todo.
func (h *TodoHandler) Update(c echo.Context, req *UpdateTodoRequest) (*model.Todo, error) {
	in := service.UpdateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		CategoryID:  req.CategoryID,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		in.Priority = &p
	}
	if req.TodoType != nil {
		t := model.TodoType(*req.TodoType)
		in.TodoType = &t
	}

	return h.services.Todos.Update(c.Request().Context(), middleware.GetUserID(c), req.ID, in)
}

// Toggle flips one todo's completion state.
func (h *TodoHandler) Toggle(c echo.Context, req *TodoIDRequest) (*model.Todo, error) {
	return h.services.Todos.Toggle(c.Request().Context(), middleware.GetUserID(c), req.ID)
}

// Delete removes one todo.
func (h *TodoHandler) Delete(c echo.Context, req *TodoIDRequest) error {
	return h.services.Todos.Delete(c.Request().Context(), middleware.GetUserID(c), req.ID)
}

// AutoMove moves the user's overdue tasks to today on demand, the same
// operation the nightly job runs for everyone.
func (h *TodoHandler) AutoMove(c echo.Context, _ *EmptyRequest) (map[string]int, error) {
	moved, err := h.services.Todos.MoveOverdueToToday(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return nil, err
	}
	return map[string]int{"moved": moved}, nil
}

// Routes registers the todo endpoints.
func (h *TodoHandler) Routes(g *echo.Group, m *middleware.Middlewares) {
	g.Use(m.Auth.RequireAuth)

	g.POST("", Handle(h.Handler, h.Create, http.StatusCreated, &CreateTodoRequest{}))
	g.GET("", Handle(h.Handler, h.List, http.StatusOK, &ListTodosRequest{}))
	g.GET("/range", Handle(h.Handler, h.Range, http.StatusOK, &RangeTodosRequest{}))
	g.GET("/stats", Handle(h.Handler, h.Stats, http.StatusOK, &EmptyRequest{}))
	g.POST("/automove", Handle(h.Handler, h.AutoMove, http.StatusOK, &EmptyRequest{}))
	g.GET("/:id", Handle(h.Handler, h.Get, http.StatusOK, &TodoIDRequest{}))
	g.PUT("/:id", Handle(h.Handler, h.Update, http.StatusOK, &UpdateTodoRequest{}))
	g.PATCH("/:id/toggle", Handle(h.Handler, h.Toggle, http.StatusOK, &TodoIDRequest{}))
	g.DELETE("/:id", HandleNoContent(h.Handler, h.Delete, http.StatusNoContent, &TodoIDRequest{}))
}
