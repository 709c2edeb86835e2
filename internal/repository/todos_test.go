package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calendar-todo/backend/internal/kv"
	"github.com/calendar-todo/backend/internal/model"
)

func newTestTodosRepo() (*TodosRepository, *kv.Mem, kv.Keys) {
	mem := kv.NewMem()
	keys := kv.NewKeys("test")
	return NewTodosRepository(mem, keys, zerolog.Nop()), mem, keys
}

func seedTodo(t *testing.T, repo *TodosRepository, owner, title string, createdAt, due time.Time, mutate ...func(*model.Todo)) *model.Todo {
	t.Helper()

	todo := &model.Todo{
		Title:    title,
		Priority: model.PriorityMedium,
		TodoType: model.TodoTypeEvent,
		DueDate:  due,
		UserID:   owner,
	}
	todo.CategoryID = "default"
	todo.CreatedAt = createdAt
	for _, m := range mutate {
		m(todo)
	}

	created, err := repo.Create(context.Background(), todo)
	require.NoError(t, err)
	return created
}

func TestTodosFindByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedTodo(t, repo, "u1", "first", base, base)
	seedTodo(t, repo, "u1", "second", base.Add(time.Hour), base)
	seedTodo(t, repo, "u2", "other owner", base.Add(2*time.Hour), base)

	todos, err := repo.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "second", todos[0].Title)
	assert.Equal(t, "first", todos[1].Title)
}

func TestTodosOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mine := seedTodo(t, repo, "u1", "mine", base, base)

	// Another owner cannot reach the record even with its id.
	stolen, err := repo.FindByOwnerAndID(ctx, "u2", mine.ID)
	require.NoError(t, err)
	assert.Nil(t, stolen)

	found, err := repo.FindByOwnerAndID(ctx, "u1", mine.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, mine.ID, found.ID)
}

func TestTodosCategoryIndex(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	work := seedTodo(t, repo, "u1", "work item", base, base, func(x *model.Todo) { x.CategoryID = "work" })
	seedTodo(t, repo, "u1", "home item", base.Add(time.Hour), base, func(x *model.Todo) { x.CategoryID = "home" })

	inWork, err := repo.FindByOwnerAndCategory(ctx, "u1", "work")
	require.NoError(t, err)
	require.Len(t, inWork, 1)
	assert.Equal(t, work.ID, inWork[0].ID)

	// Moving the todo to another category moves its index membership.
	_, err = repo.Update(ctx, work.ID, func(x *model.Todo) { x.CategoryID = "home" })
	require.NoError(t, err)

	inWork, err = repo.FindByOwnerAndCategory(ctx, "u1", "work")
	require.NoError(t, err)
	assert.Empty(t, inWork)

	inHome, err := repo.FindByOwnerAndCategory(ctx, "u1", "home")
	require.NoError(t, err)
	assert.Len(t, inHome, 2)
}

func TestTodosCompletedIndex(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	a := seedTodo(t, repo, "u1", "a", base, base)
	seedTodo(t, repo, "u1", "b", base.Add(time.Hour), base)

	pending, err := repo.FindByOwnerAndCompleted(ctx, "u1", false)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = repo.Update(ctx, a.ID, func(x *model.Todo) { x.Completed = true })
	require.NoError(t, err)

	done, err := repo.FindByOwnerAndCompleted(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, a.ID, done[0].ID)

	nPending, err := repo.CountByOwnerAndCompleted(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nPending)
}

func TestTodosFindDueBetween(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedTodo(t, repo, "u1", "monday", base, time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC))
	seedTodo(t, repo, "u1", "wednesday", base.Add(time.Minute), time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC))
	seedTodo(t, repo, "u1", "next month", base.Add(2*time.Minute), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	week, err := repo.FindDueBetween(ctx, "u1",
		time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 8, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, week, 2)
	// Earliest due first.
	assert.Equal(t, "monday", week[0].Title)
	assert.Equal(t, "wednesday", week[1].Title)
}

func TestTodosDueDateUpdateMovesScore(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	todo := seedTodo(t, repo, "u1", "movable", base, time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC))

	newDue := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
	_, err := repo.Update(ctx, todo.ID, func(x *model.Todo) { x.DueDate = newDue })
	require.NoError(t, err)

	early, err := repo.FindDueBetween(ctx, "u1",
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, early)

	late, err := repo.FindDueBetween(ctx, "u1", newDue.Add(-time.Hour), newDue.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, todo.ID, late[0].ID)
}

func TestTodosMoveCategoryForOwner(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedTodo(t, repo, "u1", "a", base, base, func(x *model.Todo) { x.CategoryID = "old" })
	seedTodo(t, repo, "u1", "b", base.Add(time.Minute), base, func(x *model.Todo) { x.CategoryID = "old" })
	seedTodo(t, repo, "u1", "c", base.Add(2*time.Minute), base, func(x *model.Todo) { x.CategoryID = "keep" })

	moved, err := repo.MoveCategoryForOwner(ctx, "u1", "old", "new")
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	old, err := repo.FindByOwnerAndCategory(ctx, "u1", "old")
	require.NoError(t, err)
	assert.Empty(t, old)

	migrated, err := repo.FindByOwnerAndCategory(ctx, "u1", "new")
	require.NoError(t, err)
	assert.Len(t, migrated, 2)
}

func TestTodosDeleteCleansIndexes(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	todo := seedTodo(t, repo, "u1", "a", base, base, func(x *model.Todo) { x.CategoryID = "work" })

	removed, err := repo.Delete(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	byCat, err := repo.FindByOwnerAndCategory(ctx, "u1", "work")
	require.NoError(t, err)
	assert.Empty(t, byCat)

	byOwner, err := repo.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, byOwner)

	due, err := repo.FindDueBetween(ctx, "u1", base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestTodosDeleteAllByOwner(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedTodo(t, repo, "u1", "a", base, base)
	seedTodo(t, repo, "u1", "b", base.Add(time.Minute), base)
	keep := seedTodo(t, repo, "u2", "c", base.Add(2*time.Minute), base)

	ok, err := repo.DeleteAllByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	mine, err := repo.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := repo.FindByOwner(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, keep.ID, theirs[0].ID)
}

func TestTodosDeleteAllByOwnerEmptyQueuesNothing(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	ok, err := repo.DeleteAllByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTodosDeleteAllByOwnerPartialFailureStillSucceeds(t *testing.T) {
	ctx := context.Background()
	repo, mem, keys := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	bad := seedTodo(t, repo, "u1", "a", base, base)
	seedTodo(t, repo, "u1", "b", base.Add(time.Minute), base)

	// One entity hash refuses to delete; the purge still removes the rest
	// and reports success.
	mem.FailKey(keys.Entity("todos", bad.ID), errors.New("boom"))

	ok, err := repo.DeleteAllByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTodosFindByIDsDropsFailedReads(t *testing.T) {
	ctx := context.Background()
	repo, mem, keys := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	bad := seedTodo(t, repo, "u1", "a", base, base)
	good := seedTodo(t, repo, "u1", "b", base.Add(time.Minute), base)

	mem.FailKey(keys.Entity("todos", bad.ID), errors.New("boom"))

	todos, err := repo.FindByIDs(ctx, []string{bad.ID, good.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, good.ID, todos[0].ID)
}

func TestTodosReconcileOwner(t *testing.T) {
	ctx := context.Background()
	repo, mem, keys := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	gone := seedTodo(t, repo, "u1", "a", base, base)
	seedTodo(t, repo, "u1", "b", base.Add(time.Minute), base)

	// Drop one hash directly, leaving its list and index entries behind.
	_, err := mem.Del(ctx, keys.Entity("todos", gone.ID))
	require.NoError(t, err)

	report, err := repo.ReconcileOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Orphans)

	n, err := repo.CountByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTodosFindByOwnerPaginated(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedTodo(t, repo, "u1", "item", base.Add(time.Duration(i)*time.Minute), base)
	}

	page1, err := repo.FindByOwnerPaginated(ctx, "u1", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 2)
	assert.Equal(t, int64(5), page1.Total)
	assert.True(t, page1.HasNext)
	assert.False(t, page1.HasPrev)

	page3, err := repo.FindByOwnerPaginated(ctx, "u1", 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3.Items, 1)
	assert.False(t, page3.HasNext)
	assert.True(t, page3.HasPrev)
}

func TestTodosFindByOwnerAndDateRange(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestTodosRepo()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	due := base.AddDate(0, 1, 0)
	seedTodo(t, repo, "u1", "before window", base.Add(-48*time.Hour), due)
	seedTodo(t, repo, "u1", "at window start", base, due)
	seedTodo(t, repo, "u1", "inside window", base.Add(12*time.Hour), due)
	seedTodo(t, repo, "u1", "after window", base.Add(72*time.Hour), due)
	seedTodo(t, repo, "u2", "other owner", base.Add(time.Hour), due)

	todos, err := repo.FindByOwnerAndDateRange(ctx, "u1", base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "at window start", todos[0].Title)
	assert.Equal(t, "inside window", todos[1].Title)
}
