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

func TestSettingsGetCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	settings, err := services.Settings.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Len(t, settings.Settings.Categories, 2)
	assert.Equal(t, "system", settings.Settings.Theme)

	again, err := services.Settings.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, settings.ID, again.ID)
}

func TestSettingsUpdateMergesPatch(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	theme := "dark"
	updated, err := services.Settings.Update(ctx, "u1", model.SettingsPatch{Theme: &theme})
	require.NoError(t, err)
	assert.Equal(t, "dark", updated.Settings.Theme)
	assert.Len(t, updated.Settings.Categories, 2)
}

func TestSettingsReset(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	theme := "dark"
	_, err := services.Settings.Update(ctx, "u1", model.SettingsPatch{Theme: &theme})
	require.NoError(t, err)

	reset, err := services.Settings.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "system", reset.Settings.Theme)
}

func TestAddUpdateCategory(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	withNew, err := services.Settings.AddCategory(ctx, "u1", "Errands", "#f97316")
	require.NoError(t, err)
	require.Len(t, withNew.Settings.Categories, 3)

	added := withNew.Settings.Categories[2]
	assert.Equal(t, "Errands", added.Name)
	assert.Equal(t, 2, added.Order)
	assert.True(t, withNew.Settings.CategoryFilter[added.ID])

	name := "Chores"
	renamed, err := services.Settings.UpdateCategory(ctx, "u1", added.ID, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Chores", renamed.FindCategory(added.ID).Name)

	_, err = services.Settings.UpdateCategory(ctx, "u1", "missing", &name, nil)
	require.Error(t, err)
}

func TestDeleteCategoryReassignsTodos(t *testing.T) {
	ctx := context.Background()
	services, repos, _ := newTestEnv()

	settings, err := services.Settings.Get(ctx, "u1")
	require.NoError(t, err)
	doomed := settings.Settings.Categories[1]
	survivor := settings.Settings.Categories[0]

	todo, err := services.Todos.Create(ctx, "u1", CreateTodoInput{
		Title: "in doomed category", CategoryID: doomed.ID,
	})
	require.NoError(t, err)

	after, err := services.Settings.DeleteCategory(ctx, "u1", doomed.ID, "")
	require.NoError(t, err)
	assert.Len(t, after.Settings.Categories, 1)
	assert.Nil(t, after.FindCategory(doomed.ID))
	_, filtered := after.Settings.CategoryFilter[doomed.ID]
	assert.False(t, filtered)

	// The todo moved to the first remaining category.
	moved, err := repos.Todos.FindByOwnerAndID(ctx, "u1", todo.ID)
	require.NoError(t, err)
	assert.Equal(t, survivor.ID, moved.CategoryID)
}

func TestDeleteLastCategoryFails(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	settings, err := services.Settings.Get(ctx, "u1")
	require.NoError(t, err)

	_, err = services.Settings.DeleteCategory(ctx, "u1", settings.Settings.Categories[0].ID, "")
	require.NoError(t, err)

	remaining, err := services.Settings.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, remaining.Settings.Categories, 1)

	_, err = services.Settings.DeleteCategory(ctx, "u1", remaining.Settings.Categories[0].ID, "")
	require.Error(t, err)
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.Status)
}

func TestReorderCategories(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	settings, err := services.Settings.Get(ctx, "u1")
	require.NoError(t, err)
	first := settings.Settings.Categories[0]
	second := settings.Settings.Categories[1]

	reordered, err := services.Settings.ReorderCategories(ctx, "u1", []string{second.ID, first.ID})
	require.NoError(t, err)
	assert.Equal(t, second.ID, reordered.Settings.Categories[0].ID)
	assert.Equal(t, 0, reordered.Settings.Categories[0].Order)
	assert.Equal(t, first.ID, reordered.Settings.Categories[1].ID)
	assert.Equal(t, 1, reordered.Settings.Categories[1].Order)

	// The ordering must cover every category exactly once.
	_, err = services.Settings.ReorderCategories(ctx, "u1", []string{first.ID})
	require.Error(t, err)
	_, err = services.Settings.ReorderCategories(ctx, "u1", []string{first.ID, first.ID})
	require.Error(t, err)
}

func TestSetCategoryFilter(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	settings, err := services.Settings.Get(ctx, "u1")
	require.NoError(t, err)
	target := settings.Settings.Categories[0]

	hidden, err := services.Settings.SetCategoryFilter(ctx, "u1", target.ID, false)
	require.NoError(t, err)
	assert.False(t, hidden.Settings.CategoryFilter[target.ID])

	_, err = services.Settings.SetCategoryFilter(ctx, "u1", "missing", true)
	require.Error(t, err)
}

func TestImportRestoresSettingsAndTodos(t *testing.T) {
	ctx := context.Background()
	services, repos, _ := newTestEnv()

	_, err := services.Settings.Get(ctx, "u1")
	require.NoError(t, err)

	imported := model.DefaultSettings(time.Now())
	imported.Theme = "dark"
	imported.Categories = []model.Category{{ID: "c1", Name: "Imported", Color: "#000000"}}
	imported.CategoryFilter = nil

	todos := []*model.Todo{
		{Title: "kept category", CategoryID: "c1", DueDate: time.Now()},
		{Title: "unknown category", CategoryID: "gone", DueDate: time.Now()},
		{Title: ""},
		nil,
	}

	settings, created, err := services.Settings.Import(ctx, "u1", imported, todos)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, "dark", settings.Settings.Theme)
	require.Len(t, settings.Settings.Categories, 1)
	assert.True(t, settings.Settings.CategoryFilter["c1"])

	stored, err := repos.Todos.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, todo := range stored {
		assert.Equal(t, "u1", todo.UserID)
		assert.Equal(t, "c1", todo.CategoryID)
		assert.NotEmpty(t, todo.ID)
	}

	_, _, err = services.Settings.Import(ctx, "u1", model.Settings{}, nil)
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.Status)
}
