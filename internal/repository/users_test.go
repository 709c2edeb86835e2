package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calendar-todo/backend/internal/kv"
	"github.com/calendar-todo/backend/internal/model"
)

func newTestUsersRepo() (*UsersRepository, *kv.Mem, kv.Keys) {
	mem := kv.NewMem()
	keys := kv.NewKeys("test")
	return NewUsersRepository(mem, keys, zerolog.Nop()), mem, keys
}

func TestUsersCreateAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestUsersRepo()

	created, err := repo.Create(ctx, &model.User{Email: "A@B.C", Username: "ann", IsActive: true})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	loaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "ann", loaded.Username)
}

func TestUsersFindByIDAbsent(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestUsersRepo()

	u, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUsersFindByEmail(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestUsersRepo()

	created, err := repo.Create(ctx, &model.User{Email: "Ann@Example.com", IsActive: true})
	require.NoError(t, err)

	// The email index is case-insensitive.
	found, err := repo.FindByEmail(ctx, "ann@example.COM")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := repo.FindByEmail(ctx, "other@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	exists, err := repo.ExistsByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUsersUpdateMovesEmailIndex(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestUsersRepo()

	created, err := repo.Create(ctx, &model.User{Email: "old@example.com", IsActive: true})
	require.NoError(t, err)

	_, err = repo.Update(ctx, created.ID, func(u *model.User) {
		u.Email = "new@example.com"
	})
	require.NoError(t, err)

	old, err := repo.FindByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	assert.Nil(t, old)

	moved, err := repo.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, created.ID, moved.ID)
}

func TestUsersStaleEmailIndexYieldsNothing(t *testing.T) {
	ctx := context.Background()
	repo, mem, keys := newTestUsersRepo()

	created, err := repo.Create(ctx, &model.User{Email: "ann@example.com", IsActive: true})
	require.NoError(t, err)

	// Plant a stale index entry pointing at the record under an email it
	// no longer carries.
	staleKey := keys.Index("users", "email", "stale@example.com")
	require.NoError(t, mem.ZAdd(ctx, staleKey, 0, created.ID))

	found, err := repo.FindByEmail(ctx, "stale@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUsersDelete(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestUsersRepo()

	created, err := repo.Create(ctx, &model.User{Email: "ann@example.com", IsActive: true})
	require.NoError(t, err)

	removed, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	// Deleting again is a no-op, not an error.
	removed, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	gone, err := repo.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Nil(t, gone)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUsersFindPaginated(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestUsersRepo()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		u := &model.User{Email: string(rune('a'+i)) + "@example.com", IsActive: true}
		u.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := repo.Create(ctx, u)
		require.NoError(t, err)
	}

	page1, err := repo.FindPaginated(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 2)
	assert.Equal(t, int64(5), page1.Total)
	assert.True(t, page1.HasNext)
	assert.False(t, page1.HasPrev)
	// Newest first.
	assert.Equal(t, "e@example.com", page1.Items[0].Email)

	page3, err := repo.FindPaginated(ctx, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3.Items, 1)
	assert.False(t, page3.HasNext)
	assert.True(t, page3.HasPrev)

	past, err := repo.FindPaginated(ctx, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, past.Items)
}

func TestUsersFindAllSkipsVanishedRecords(t *testing.T) {
	ctx := context.Background()
	repo, mem, keys := newTestUsersRepo()

	created, err := repo.Create(ctx, &model.User{Email: "ann@example.com", IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.User{Email: "bob@example.com", IsActive: true})
	require.NoError(t, err)

	// Simulate drift: the hash is gone but the list still names the id.
	_, err = mem.Del(ctx, keys.Entity("users", created.ID))
	require.NoError(t, err)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "bob@example.com", all[0].Email)
}

func TestUsersReconcileDropsOrphans(t *testing.T) {
	ctx := context.Background()
	repo, mem, keys := newTestUsersRepo()

	created, err := repo.Create(ctx, &model.User{Email: "ann@example.com", IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.User{Email: "bob@example.com", IsActive: true})
	require.NoError(t, err)

	_, err = mem.Del(ctx, keys.Entity("users", created.ID))
	require.NoError(t, err)

	report, err := repo.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Orphans)
	assert.Equal(t, 1, report.Repaired)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUsersExists(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestUsersRepo()

	ok, err := repo.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	created, err := repo.Create(ctx, &model.User{Email: "e@x.io", Username: "e"})
	require.NoError(t, err)

	ok, err = repo.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)

	ok, err = repo.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
