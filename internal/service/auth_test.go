package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calendar-todo/backend/internal/errs"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	services, repos, _ := newTestEnv()

	user, token, err := services.Auth.Register(ctx, "ann@example.com", "ann", "s3cret-pass")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	// Registration seeds the default settings.
	settings, err := repos.Settings.FindOneByOwner(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.NotEmpty(t, settings.Settings.Categories)

	resolved, err := services.Auth.Authenticate(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	_, _, err := services.Auth.Register(ctx, "ann@example.com", "ann", "s3cret-pass")
	require.NoError(t, err)

	_, _, err = services.Auth.Register(ctx, "Ann@Example.COM", "ann2", "other-pass")
	require.Error(t, err)
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 409, httpErr.Status)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	registered, _, err := services.Auth.Register(ctx, "ann@example.com", "ann", "s3cret-pass")
	require.NoError(t, err)

	user, token, err := services.Auth.Login(ctx, "ann@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	// Wrong password and unknown email fail the same way.
	_, _, wrongPass := services.Auth.Login(ctx, "ann@example.com", "wrong")
	_, _, wrongMail := services.Auth.Login(ctx, "nobody@example.com", "s3cret-pass")
	require.Error(t, wrongPass)
	require.Error(t, wrongMail)
	assert.Equal(t, wrongPass.Error(), wrongMail.Error())
}

func TestAuthenticateRejectsUnknownToken(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	user, err := services.Auth.Authenticate(ctx, "not-a-token")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = services.Auth.Authenticate(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	_, token, err := services.Auth.Register(ctx, "ann@example.com", "ann", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, services.Auth.Logout(ctx, token))

	user, err := services.Auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	registered, _, err := services.Auth.Register(ctx, "ann@example.com", "ann", "s3cret-pass")
	require.NoError(t, err)

	name := "annie"
	updated, err := services.Auth.UpdateProfile(ctx, registered.ID, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "annie", updated.Username)
	assert.Equal(t, registered.Email, updated.Email)
}

func TestDeleteAccountPurgesEverything(t *testing.T) {
	ctx := context.Background()
	services, repos, _ := newTestEnv()

	user, token, err := services.Auth.Register(ctx, "ann@example.com", "ann", "s3cret-pass")
	require.NoError(t, err)

	_, err = services.Todos.Create(ctx, user.ID, CreateTodoInput{Title: "task"})
	require.NoError(t, err)

	require.NoError(t, services.Auth.DeleteAccount(ctx, user.ID))

	gone, err := repos.Users.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Nil(t, gone)

	todos, err := repos.Todos.FindByOwner(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, todos)

	settings, err := repos.Settings.FindOneByOwner(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, settings)

	// The session token stops resolving because the user record is gone.
	resolved, err := services.Auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	services, _, _ := newTestEnv()

	user, token, err := services.Auth.Register(ctx, "pat@example.com", "pat", "original-pass")
	require.NoError(t, err)

	err = services.Auth.ChangePassword(ctx, user.ID, "wrong-pass", "replacement-pass")
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.Status)

	require.NoError(t, services.Auth.ChangePassword(ctx, user.ID, "original-pass", "replacement-pass"))

	_, _, err = services.Auth.Login(ctx, "pat@example.com", "original-pass")
	require.Error(t, err)
	_, _, err = services.Auth.Login(ctx, "pat@example.com", "replacement-pass")
	require.NoError(t, err)

	// Outstanding sessions survive the change until their TTL.
	resolved, err := services.Auth.Authenticate(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, resolved)

	err = services.Auth.ChangePassword(ctx, "missing", "original-pass", "replacement-pass")
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 404, httpErr.Status)
}
