package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/calendar-todo/backend/internal/middleware"
	"github.com/calendar-todo/backend/internal/model"
	"github.com/calendar-todo/backend/internal/server"
	"github.com/calendar-todo/backend/internal/service"
)

// AuthHandler serves registration, login, session, and account endpoints.
type AuthHandler struct {
	Handler
	services *service.Services
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(s *server.Server, services *service.Services) *AuthHandler {
	return &AuthHandler{
		Handler:  NewHandler(s),
		services: services,
	}
}

// EmptyRequest is the payload for endpoints that take no input.
type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error { return nil }

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (r *RegisterRequest) Validate() error { return validate.Struct(r) }

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error { return validate.Struct(r) }

// UpdateProfileRequest is a partial account update.
type UpdateProfileRequest struct {
	Username     *string `json:"username" validate:"omitempty,min=3,max=30"`
	ProfileImage *string `json:"profileImage" validate:"omitempty,url"`
}

func (r *UpdateProfileRequest) Validate() error { return validate.Struct(r) }

// ChangePasswordRequest replaces the account password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

func (r *ChangePasswordRequest) Validate() error { return validate.Struct(r) }

// SessionResponse carries a fresh session token and its user.
type SessionResponse struct {
	Token string        `json:"token"`
	User  model.Profile `json:"user"`
}

// Register creates an account and returns its first session.
func (h *AuthHandler) Register(c echo.Context, req *RegisterRequest) (SessionResponse, error) {
	user, token, err := h.services.Auth.Register(c.Request().Context(), req.Email, req.Username, req.Password)
	if err != nil {
		return SessionResponse{}, err
	}

	return SessionResponse{Token: token, User: user.ToProfile()}, nil
}

// Login verifies credentials and returns a session.
func (h *AuthHandler) Login(c echo.Context, req *LoginRequest) (SessionResponse, error) {
	user, token, err := h.services.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return SessionResponse{}, err
	}

	return SessionResponse{Token: token, User: user.ToProfile()}, nil
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context, _ *EmptyRequest) (model.Profile, error) {
	return middleware.GetUser(c).ToProfile(), nil
}

// UpdateProfile changes the mutable account fields.
func (h *AuthHandler) UpdateProfile(c echo.Context, req *UpdateProfileRequest) (model.Profile, error) {
	user, err := h.services.Auth.UpdateProfile(c.Request().Context(), middleware.GetUserID(c), req.Username, req.ProfileImage)
	if err != nil {
		return model.Profile{}, err
	}
	return user.ToProfile(), nil
}

// ChangePassword replaces the account password after verifying the
// current one.
func (h *AuthHandler) ChangePassword(c echo.Context, req *ChangePasswordRequest) error {
	return h.services.Auth.ChangePassword(c.Request().Context(), middleware.GetUserID(c), req.CurrentPassword, req.NewPassword)
}

// Logout invalidates the current session.
func (h *AuthHandler) Logout(c echo.Context, _ *EmptyRequest) error {
	return h.services.Auth.Logout(c.Request().Context(), middleware.SessionToken(c))
}

// DeleteAccount removes the account and everything it owns.
func (h *AuthHandler) DeleteAccount(c echo.Context, _ *EmptyRequest) error {
	return h.services.Auth.DeleteAccount(c.Request().Context(), middleware.GetUserID(c))
}

// Routes registers the auth endpoints. Credential endpoints sit behind
// the auth rate limiter.
func (h *AuthHandler) Routes(g *echo.Group, m *middleware.Middlewares) {
	g.POST("/register", Handle(h.Handler, h.Register, http.StatusCreated, &RegisterRequest{}), m.RateLimit.LimitAuth())
	g.POST("/login", Handle(h.Handler, h.Login, http.StatusOK, &LoginRequest{}), m.RateLimit.LimitAuth())

	g.GET("/me", Handle(h.Handler, h.Me, http.StatusOK, &EmptyRequest{}), m.Auth.RequireAuth)
	g.PATCH("/me", Handle(h.Handler, h.UpdateProfile, http.StatusOK, &UpdateProfileRequest{}), m.Auth.RequireAuth)
	g.PUT("/me/password", HandleNoContent(h.Handler, h.ChangePassword, http.StatusNoContent, &ChangePasswordRequest{}), m.Auth.RequireAuth)
	g.POST("/logout", HandleNoContent(h.Handler, h.Logout, http.StatusNoContent, &EmptyRequest{}), m.Auth.RequireAuth)
	g.DELETE("/me", HandleNoContent(h.Handler, h.DeleteAccount, http.StatusNoContent, &EmptyRequest{}), m.Auth.RequireAuth)
}
