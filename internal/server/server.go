// Package server defines the application container that composes the
// app's shared dependencies: config, loggers, the kv store, the key
// builder, the background job service, and the HTTP server lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/calendar-todo/backend/internal/config"
	"github.com/calendar-todo/backend/internal/kv"
	"github.com/calendar-todo/backend/internal/lib/job"

	loggerPkg "github.com/calendar-todo/backend/internal/logger"
)

// Server holds the shared resources the repository, service, and handler
// layers are built from. It is not the HTTP server itself; it owns one.
type Server struct {
	Config *config.Config

	// Logger is the application's main structured logger.
	Logger *zerolog.Logger

	// LoggerService holds the New Relic application, when enabled.
	LoggerService *loggerPkg.LoggerService

	// KV is the store behind every repository. In production it is the
	// Redis-backed implementation; tests swap in the in-memory one.
	KV kv.Store

	// Keys builds namespaced store keys from the configured prefix.
	Keys kv.Keys

	// Job runs background workers and provides a client for enqueueing.
	Job *job.JobService

	httpServer *http.Server
}

// New constructs the container and connects the store. The job worker is
// created here but started later, once the service layer that implements
// its handlers exists.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	var nrApp = loggerService.GetApplication()

	store := kv.NewRedis(&cfg.Redis, cfg.Observability, *logger, nrApp)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, errors.Wrap(err, "connect to redis")
	}

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		KV:            store,
		Keys:          kv.NewKeys(cfg.Redis.KeyPrefix),
		Job:           job.NewJobService(logger, cfg),
	}, nil
}

// SetupHTTPServer configures the internal net/http server around the
// given handler. Timeout values in config are seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server, the job workers, and the store, in
// that order, so in-flight requests finish before their backends close.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if err := s.KV.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}

	return nil
}
