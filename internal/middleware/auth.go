package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/calendar-todo/backend/internal/errs"
	"github.com/calendar-todo/backend/internal/model"
	"github.com/calendar-todo/backend/internal/server"
)

// UserKey is the Echo context key the full authenticated user is stored
// under.
const UserKey = "user"

// Authenticator resolves a bearer session token to its user. An unknown
// or expired token yields (nil, nil). The service layer implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// AuthMiddleware enforces session authentication on protected routes.
type AuthMiddleware struct {
	server *server.Server
	auth   Authenticator
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server, auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
		auth:   auth,
	}
}

// RequireAuth reads the Authorization bearer token, resolves it to a
// user, and stores the user id and record in Echo context. Requests
// without a valid session get a 401 through the global error handler.
func (am *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c.Request())
		if token == "" {
			return errs.NewUnauthorizedError("Unauthorized", false)
		}

		user, err := am.auth.Authenticate(c.Request().Context(), token)
		if err != nil {
			return err
		}
		if user == nil {
			am.server.Logger.Warn().
				Str("request_id", GetRequestID(c)).
				Msg("rejected invalid session token")
			return errs.NewUnauthorizedError("Unauthorized", false)
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserKey, user)

		return next(c)
	}
}

// GetUser retrieves the authenticated user set by RequireAuth, or nil.
func GetUser(c echo.Context) *model.User {
	if user, ok := c.Get(UserKey).(*model.User); ok {
		return user
	}
	return nil
}

// SessionToken returns the request's bearer token, or "".
func SessionToken(c echo.Context) string {
	return bearerToken(c.Request())
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}
