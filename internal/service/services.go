// Package service contains the business logic. It sits between the
// handler and repository layers: handlers pass in validated data, services
// enforce the domain rules and call repositories.
package service

import (
	"github.com/rs/zerolog"

	"github.com/calendar-todo/backend/internal/lib/email"
	"github.com/calendar-todo/backend/internal/lib/job"
	"github.com/calendar-todo/backend/internal/repository"
	"github.com/calendar-todo/backend/internal/server"
)

// Services is the container for all service instances. It also implements
// job.Handlers so the background workers can run through the same logic
// as the API.
type Services struct {
	Auth     *AuthService
	Todos    *TodoService
	Settings *SettingsService
	Job      *job.JobService

	email *email.Client
	repos *repository.Repositories
	log   *zerolog.Logger
}

// NewServices constructs the service layer from the server container and
// repositories.
func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	emailClient := email.NewClient(s.Config, s.Logger)

	settingsService := NewSettingsService(s, repos)
	todoService := NewTodoService(s, repos, settingsService)
	authService := NewAuthService(s, repos)

	return &Services{
		Auth:     authService,
		Todos:    todoService,
		Settings: settingsService,
		Job:      s.Job,
		email:    emailClient,
		repos:    repos,
		log:      s.Logger,
	}, nil
}
