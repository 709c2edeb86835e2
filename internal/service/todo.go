package service

import (
	"context"
	"time"

	"github.com/calendar-todo/backend/internal/errs"
	"github.com/calendar-todo/backend/internal/model"
	"github.com/calendar-todo/backend/internal/repository"
	"github.com/calendar-todo/backend/internal/server"
)

// TodoService implements the todo operations. Every method is scoped to
// the acting user; a todo owned by someone else behaves like a missing
// one.
type TodoService struct {
	server   *server.Server
	repos    *repository.Repositories
	settings *SettingsService
}

// NewTodoService constructs the todo service.
func NewTodoService(s *server.Server, repos *repository.Repositories, settings *SettingsService) *TodoService {
	return &TodoService{
		server:   s,
		repos:    repos,
		settings: settings,
	}
}

// CreateTodoInput is the validated payload for creating a todo.
type CreateTodoInput struct {
	Title       string
	Description string
	Priority    model.Priority
	CategoryID  string
	TodoType    model.TodoType
	DueDate     time.Time
}

// UpdateTodoInput is a partial todo update; nil members are left as-is.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *model.Priority
	CategoryID  *string
	TodoType    *model.TodoType
	DueDate     *time.Time
}

// TodoStats summarizes one user's todos.
type TodoStats struct {
	Total          int64   `json:"total"`
	Completed      int64   `json:"completed"`
	Pending        int64   `json:"pending"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completionRate"`
}

var errTodoNotFound = errs.NewNotFoundError("Todo not found.", false, nil)

// Create stores a new todo for the user.
func (s *TodoService) Create(ctx context.Context, userID string, in CreateTodoInput) (*model.Todo, error) {
	todo := &model.Todo{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		CategoryID:  in.CategoryID,
		TodoType:    in.TodoType,
		DueDate:     in.DueDate,
		UserID:      userID,
	}
	todo.ApplyDefaults()

	return s.repos.Todos.Create(ctx, todo)
}

// Get returns one of the user's todos.
func (s *TodoService) Get(ctx context.Context, userID, id string) (*model.Todo, error) {
	todo, err := s.repos.Todos.FindByOwnerAndID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, errTodoNotFound
	}
	return todo, nil
}

// List returns all of the user's todos, newest-first.
func (s *TodoService) List(ctx context.Context, userID string) ([]*model.Todo, error) {
	return s.repos.Todos.FindByOwner(ctx, userID)
}

// ListPaginated returns one newest-first page of the user's todos.
func (s *TodoService) ListPaginated(ctx context.Context, userID string, page, limit int) (repository.Page[*model.Todo], error) {
	return s.repos.Todos.FindByOwnerPaginated(ctx, userID, page, limit)
}

// ListByCategory returns the user's todos in one category.
func (s *TodoService) ListByCategory(ctx context.Context, userID, categoryID string) ([]*model.Todo, error) {
	return s.repos.Todos.FindByOwnerAndCategory(ctx, userID, categoryID)
}

// ListByCompleted returns the user's todos filtered by completion state.
func (s *TodoService) ListByCompleted(ctx context.Context, userID string, completed bool) ([]*model.Todo, error) {
	return s.repos.Todos.FindByOwnerAndCompleted(ctx, userID, completed)
}

// ListDueBetween returns the user's todos due within [from, to], which is
// how the calendar fetches one visible range.
func (s *TodoService) ListDueBetween(ctx context.Context, userID string, from, to time.Time) ([]*model.Todo, error) {
	return s.repos.Todos.FindDueBetween(ctx, userID, from, to)
}

// Update applies a partial update to one of the user's todos.
func (s *TodoService) Update(ctx context.Context, userID, id string, in UpdateTodoInput) (*model.Todo, error) {
	if err := s.requireOwned(ctx, userID, id); err != nil {
		return nil, err
	}

	todo, err := s.repos.Todos.Update(ctx, id, func(t *model.Todo) {
		if in.Title != nil {
			t.Title = *in.Title
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.Completed != nil {
			t.Completed = *in.Completed
		}
		if in.Priority != nil {
			t.Priority = *in.Priority
		}
		if in.CategoryID != nil {
			t.CategoryID = *in.CategoryID
		}
		if in.TodoType != nil {
			t.TodoType = *in.TodoType
		}
		if in.DueDate != nil {
			t.DueDate = *in.DueDate
		}
	})
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, errTodoNotFound
	}
	return todo, nil
}

// Toggle flips the completion state of one of the user's todos.
func (s *TodoService) Toggle(ctx context.Context, userID, id string) (*model.Todo, error) {
	if err := s.requireOwned(ctx, userID, id); err != nil {
		return nil, err
	}

	todo, err := s.repos.Todos.Update(ctx, id, func(t *model.Todo) {
		t.Completed = !t.Completed
	})
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, errTodoNotFound
	}
	return todo, nil
}

// Delete removes one of the user's todos.
func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	if err := s.requireOwned(ctx, userID, id); err != nil {
		return err
	}

	deleted, err := s.repos.Todos.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errTodoNotFound
	}
	return nil
}

// Stats summarizes the user's todos. Overdue counts incomplete tasks due
// before the start of today.
func (s *TodoService) Stats(ctx context.Context, userID string) (TodoStats, error) {
	total, err := s.repos.Todos.CountByOwner(ctx, userID)
	if err != nil {
		return TodoStats{}, err
	}
	completed, err := s.repos.Todos.CountByOwnerAndCompleted(ctx, userID, true)
	if err != nil {
		return TodoStats{}, err
	}

	overdue, err := s.findOverdue(ctx, userID, startOfDay(time.Now()))
	if err != nil {
		return TodoStats{}, err
	}

	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total)
	}

	return TodoStats{
		Total:          total,
		Completed:      completed,
		Pending:        total - completed,
		Overdue:        len(overdue),
		CompletionRate: rate,
	}, nil
}

// MoveOverdueToToday moves the user's overdue incomplete tasks to today,
// preserving each one's time of day. Events stay where they are.
func (s *TodoService) MoveOverdueToToday(ctx context.Context, userID string) (int, error) {
	today := startOfDay(time.Now())

	overdue, err := s.findOverdue(ctx, userID, today)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, t := range overdue {
		due := t.DueDate
		newDue := time.Date(today.Year(), today.Month(), today.Day(),
			due.Hour(), due.Minute(), due.Second(), due.Nanosecond(), due.Location())

		if _, err := s.repos.Todos.Update(ctx, t.ID, func(next *model.Todo) {
			next.DueDate = newDue
		}); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func (s *TodoService) findOverdue(ctx context.Context, userID string, today time.Time) ([]*model.Todo, error) {
	candidates, err := s.repos.Todos.FindDueBetween(ctx, userID, time.Unix(0, 0), today.Add(-time.Second))
	if err != nil {
		return nil, err
	}

	overdue := make([]*model.Todo, 0, len(candidates))
	for _, t := range candidates {
		if t.IsOverdueTask(today) {
			overdue = append(overdue, t)
		}
	}
	return overdue, nil
}

// requireOwned maps a missing or foreign todo to the not-found error
// before a write is attempted.
func (s *TodoService) requireOwned(ctx context.Context, userID, id string) error {
	todo, err := s.repos.Todos.FindByOwnerAndID(ctx, userID, id)
	if err != nil {
		return err
	}
	if todo == nil {
		return errTodoNotFound
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
