package service

import (
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/calendar-todo/backend/internal/config"
	"github.com/calendar-todo/backend/internal/kv"
	"github.com/calendar-todo/backend/internal/repository"
	"github.com/calendar-todo/backend/internal/server"
)

// newTestEnv builds the service layer over the in-memory store. The job
// service is left nil, so nothing is enqueued.
func newTestEnv() (*Services, *repository.Repositories, *kv.Mem) {
	mem := kv.NewMem()
	log := zerolog.Nop()

	s := &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Auth: config.AuthConfig{
				SessionTTLHours: 24,
				BcryptCost:      bcrypt.MinCost,
			},
		},
		Logger: &log,
		KV:     mem,
		Keys:   kv.NewKeys("test"),
	}

	repos := &repository.Repositories{
		Users:    repository.NewUsersRepository(mem, s.Keys, log),
		Todos:    repository.NewTodosRepository(mem, s.Keys, log),
		Settings: repository.NewSettingsRepository(mem, s.Keys, log),
	}

	services, err := NewServices(s, repos)
	if err != nil {
		panic(err)
	}
	return services, repos, mem
}
