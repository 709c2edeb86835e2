package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calendar-todo/backend/internal/errs"
	"github.com/calendar-todo/backend/internal/model"
)

func TestTodoCreateAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	todo, err := services.Todos.Create(ctx, "u1", CreateTodoInput{
		Title:   "plain",
		DueDate: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, todo.Priority)
	assert.Equal(t, model.TodoTypeEvent, todo.TodoType)
	assert.Equal(t, "u1", todo.UserID)
	assert.NotEmpty(t, todo.ID)
}

func TestTodoGetRejectsForeignOwner(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	todo, err := services.Todos.Create(ctx, "u1", CreateTodoInput{Title: "mine"})
	require.NoError(t, err)

	_, err = services.Todos.Get(ctx, "u2", todo.ID)
	require.Error(t, err)
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 404, httpErr.Status)
}

func TestTodoToggle(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	todo, err := services.Todos.Create(ctx, "u1", CreateTodoInput{Title: "x"})
	require.NoError(t, err)
	assert.False(t, todo.Completed)

	toggled, err := services.Todos.Toggle(ctx, "u1", todo.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = services.Todos.Toggle(ctx, "u1", todo.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
}

func TestTodoUpdatePartial(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	todo, err := services.Todos.Create(ctx, "u1", CreateTodoInput{
		Title:       "original",
		Description: "desc",
		Priority:    model.PriorityLow,
	})
	require.NoError(t, err)

	title := "renamed"
	updated, err := services.Todos.Update(ctx, "u1", todo.ID, UpdateTodoInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	// Untouched fields survive.
	assert.Equal(t, "desc", updated.Description)
	assert.Equal(t, model.PriorityLow, updated.Priority)
}

func TestTodoDelete(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	todo, err := services.Todos.Create(ctx, "u1", CreateTodoInput{Title: "x"})
	require.NoError(t, err)

	require.NoError(t, services.Todos.Delete(ctx, "u1", todo.ID))

	err = services.Todos.Delete(ctx, "u1", todo.ID)
	require.Error(t, err)
}

func TestTodoStats(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	now := time.Now().UTC()
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	_, err := services.Todos.Create(ctx, "u1", CreateTodoInput{
		Title: "overdue task", TodoType: model.TodoTypeTask, DueDate: yesterday,
	})
	require.NoError(t, err)
	done, err := services.Todos.Create(ctx, "u1", CreateTodoInput{
		Title: "done", DueDate: tomorrow,
	})
	require.NoError(t, err)
	_, err = services.Todos.Toggle(ctx, "u1", done.ID)
	require.NoError(t, err)
	_, err = services.Todos.Create(ctx, "u1", CreateTodoInput{
		Title: "upcoming", DueDate: tomorrow,
	})
	require.NoError(t, err)

	stats, err := services.Todos.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, 1, stats.Overdue)
	assert.InDelta(t, 1.0/3.0, stats.CompletionRate, 1e-9)
}

func TestMoveOverdueToTodayPreservesTimeOfDay(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	now := time.Now().UTC()
	oldDue := time.Date(now.Year(), now.Month(), now.Day(), 14, 30, 0, 0, time.UTC).Add(-72 * time.Hour)

	task, err := services.Todos.Create(ctx, "u1", CreateTodoInput{
		Title: "late task", TodoType: model.TodoTypeTask, DueDate: oldDue,
	})
	require.NoError(t, err)
	event, err := services.Todos.Create(ctx, "u1", CreateTodoInput{
		Title: "old event", TodoType: model.TodoTypeEvent, DueDate: oldDue,
	})
	require.NoError(t, err)

	moved, err := services.Todos.MoveOverdueToToday(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	movedTask, err := services.Todos.Get(ctx, "u1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, now.Year(), movedTask.DueDate.Year())
	assert.Equal(t, now.YearDay(), movedTask.DueDate.YearDay())
	assert.Equal(t, 14, movedTask.DueDate.Hour())
	assert.Equal(t, 30, movedTask.DueDate.Minute())

	// Events are never moved.
	stayedEvent, err := services.Todos.Get(ctx, "u1", event.ID)
	require.NoError(t, err)
	assert.True(t, oldDue.Equal(stayedEvent.DueDate))
}

func TestTodoListDueBetween(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	_, err := services.Todos.Create(ctx, "u1", CreateTodoInput{Title: "in range", DueDate: base})
	require.NoError(t, err)
	_, err = services.Todos.Create(ctx, "u1", CreateTodoInput{Title: "out of range", DueDate: base.Add(30 * 24 * time.Hour)})
	require.NoError(t, err)

	inRange, err := services.Todos.ListDueBetween(ctx, "u1", base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, "in range", inRange[0].Title)
}
