package repository

import (
	"github.com/calendar-todo/backend/internal/server"
)

// Repositories is the container for all repository instances.
type Repositories struct {
	Users    *UsersRepository
	Todos    *TodosRepository
	Settings *SettingsRepository
}

// NewRepositories constructs every repository from the server's shared
// store, key builder, and logger.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Users:    NewUsersRepository(s.KV, s.Keys, *s.Logger),
		Todos:    NewTodosRepository(s.KV, s.Keys, *s.Logger),
		Settings: NewSettingsRepository(s.KV, s.Keys, *s.Logger),
	}
}
