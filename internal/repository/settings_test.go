package repository

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calendar-todo/backend/internal/kv"
	"github.com/calendar-todo/backend/internal/model"
)

func newTestSettingsRepo() *SettingsRepository {
	return NewSettingsRepository(kv.NewMem(), kv.NewKeys("test"), zerolog.Nop())
}

func TestSettingsFindOneByOwnerAbsent(t *testing.T) {
	ctx := context.Background()
	repo := newTestSettingsRepo()

	s, err := repo.FindOneByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSettingsFindOrCreateByOwner(t *testing.T) {
	ctx := context.Background()
	repo := newTestSettingsRepo()

	created, err := repo.FindOrCreateByOwner(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "u1", created.UserID)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.Settings.Categories)
	assert.NotEmpty(t, created.Settings.CategoryFilter)

	// Second access returns the same record, not a new one.
	again, err := repo.FindOrCreateByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	n, err := repo.CountByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSettingsRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	repo := newTestSettingsRepo()

	created, err := repo.FindOrCreateByOwner(ctx, "u1")
	require.NoError(t, err)

	_, err = repo.Update(ctx, created.ID, func(us *model.UserSettings) {
		us.Settings.Theme = "dark"
		us.Settings.AutoMoveTodos = false
	})
	require.NoError(t, err)

	reloaded, err := repo.FindOneByOwner(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, "dark", reloaded.Settings.Theme)
	assert.False(t, reloaded.Settings.AutoMoveTodos)
}
