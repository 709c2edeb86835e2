package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/calendar-todo/backend/internal/config"
	"github.com/calendar-todo/backend/internal/handler"
	"github.com/calendar-todo/backend/internal/logger"
	"github.com/calendar-todo/backend/internal/middleware"
	"github.com/calendar-todo/backend/internal/repository"
	"github.com/calendar-todo/backend/internal/router"
	"github.com/calendar-todo/backend/internal/server"
	"github.com/calendar-todo/backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	loggerService, err := logger.NewLoggerService(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger service")
	}

	appLogger := logger.New(cfg, loggerService)

	s, err := server.New(cfg, &appLogger, loggerService)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos := repository.NewRepositories(s)

	services, err := service.NewServices(s, repos)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to initialize services")
	}

	if err := s.Job.Start(services); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to start job workers")
	}

	middlewares := middleware.NewMiddlewares(s, services.Auth)
	handlers := handler.NewHandlers(s, services)

	s.SetupHTTPServer(router.New(handlers, middlewares))

	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	waitForShutdown(s, &appLogger, loggerService)
}

// waitForShutdown blocks until SIGINT or SIGTERM, then drains the server
// within the shutdown timeout.
func waitForShutdown(s *server.Server, appLogger *zerolog.Logger, loggerService *logger.LoggerService) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	appLogger.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		appLogger.Error().Err(err).Msg("shutdown finished with errors")
	}

	loggerService.Shutdown(5 * time.Second)

	appLogger.Info().Msg("server stopped")
}
