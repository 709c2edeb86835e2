package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/calendar-todo/backend/internal/errs"
	"github.com/calendar-todo/backend/internal/lib/job"
	"github.com/calendar-todo/backend/internal/model"
	"github.com/calendar-todo/backend/internal/repository"
	"github.com/calendar-todo/backend/internal/server"
)

// typeSessions names the key namespace for session tokens. Sessions are
// plain string records with a TTL, not repository entities.
const typeSessions = "sessions"

// AuthService manages accounts and session tokens. Tokens are opaque
// random strings stored under {prefix}:sessions:{token} with the user id
// as the value; expiry is the store's TTL.
type AuthService struct {
	server *server.Server
	repos  *repository.Repositories
}

// NewAuthService constructs the auth service.
func NewAuthService(s *server.Server, repos *repository.Repositories) *AuthService {
	return &AuthService{
		server: s,
		repos:  repos,
	}
}

func (s *AuthService) sessionKey(token string) string {
	return s.server.Keys.Entity(typeSessions, token)
}

func (s *AuthService) sessionTTL() time.Duration {
	return time.Duration(s.server.Config.Auth.SessionTTLHours) * time.Hour
}

func (s *AuthService) bcryptCost() int {
	if c := s.server.Config.Auth.BcryptCost; c != 0 {
		return c
	}
	return bcrypt.DefaultCost
}

// Register creates an account, its default settings, and a first session.
// A taken email yields a conflict error.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*model.User, string, error) {
	taken, err := s.repos.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", errs.NewConflictError("An account with this email already exists.", false)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost())
	if err != nil {
		return nil, "", errors.Wrap(err, "hash password")
	}

	user, err := s.repos.Users.Create(ctx, &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     true,
	})
	if err != nil {
		return nil, "", err
	}

	// Seed default settings now so first login never races the lazy
	// creation path.
	if _, err := s.repos.Settings.FindOrCreateByOwner(ctx, user.ID); err != nil {
		s.server.Logger.Warn().Err(err).Str("user_id", user.ID).Msg("could not seed default settings")
	}

	s.enqueueWelcomeEmail(user)

	token, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a session token. Wrong email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	invalid := errs.NewUnauthorizedError("Invalid email or password.", false)

	user, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !user.IsActive {
		return nil, "", invalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", invalid
	}

	token, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a session token to its user. An unknown or
// expired token yields (nil, nil).
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	userID, ok, err := s.server.KV.Get(ctx, s.sessionKey(token))
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	if !ok {
		return nil, nil
	}

	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// Logout invalidates one session token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := s.server.KV.Del(ctx, s.sessionKey(token))
	return err
}

// DeleteAccount removes the user and everything they own. Outstanding
// sessions are not enumerated; they die at their TTL and Authenticate
// rejects them sooner because the user record is gone.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.repos.Todos.DeleteAllByOwner(ctx, userID); err != nil {
		return err
	}
	if _, err := s.repos.Settings.DeleteAllByOwner(ctx, userID); err != nil {
		return err
	}
	if _, err := s.repos.Users.Delete(ctx, userID); err != nil {
		return err
	}
	return nil
}

// UpdateProfile changes the mutable account fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, username, profileImage *string) (*model.User, error) {
	user, err := s.repos.Users.Update(ctx, userID, func(u *model.User) {
		if username != nil {
			u.Username = *username
		}
		if profileImage != nil {
			u.ProfileImage = *profileImage
		}
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.NewNotFoundError("Account not found.", false, nil)
	}
	return user, nil
}

// ChangePassword replaces the user's password after verifying the current
// one. Existing sessions stay valid; they expire at their TTL.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errs.NewNotFoundError("Account not found.", false, nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return errs.NewBadRequestError("Current password is incorrect.", true, nil, nil, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost())
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	_, err = s.repos.Users.Update(ctx, userID, func(u *model.User) {
		u.PasswordHash = string(hash)
	})
	return err
}

// enqueueWelcomeEmail queues the welcome mail. Registration never fails
// over it.
func (s *AuthService) enqueueWelcomeEmail(user *model.User) {
	if s.server.Job == nil {
		return
	}
	task, err := job.NewWelcomeEmailTask(user.Email, user.Username)
	if err != nil {
		s.server.Logger.Warn().Err(err).Str("user_id", user.ID).Msg("could not build welcome email task")
		return
	}
	if _, err := s.server.Job.Client.Enqueue(task); err != nil {
		s.server.Logger.Warn().Err(err).Str("user_id", user.ID).Msg("could not enqueue welcome email")
	}
}

// createSession mints a token and stores it with the configured TTL.
func (s *AuthService) createSession(ctx context.Context, userID string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "generate session token")
	}
	token := hex.EncodeToString(raw)

	if err := s.server.KV.Set(ctx, s.sessionKey(token), userID, s.sessionTTL()); err != nil {
		return "", errors.Wrap(err, "store session")
	}
	return token, nil
}
