package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/calendar-todo/backend/internal/middleware"
	"github.com/calendar-todo/backend/internal/server"
)

// HealthHandler exposes the endpoint load balancers and uptime monitors
// probe. The store is the only hard dependency, so it is the only check
// that can flip the overall status.
type HealthHandler struct {
	Handler
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth reports overall status plus per-dependency checks. It
// returns 200 when healthy and 503 when the store is unreachable.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      make(map[string]interface{}),
	}

	checks := response["checks"].(map[string]interface{})
	isHealthy := true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisStart := time.Now()

	if err := h.server.KV.Ping(ctx); err != nil {
		checks["redis"] = map[string]interface{}{
			"status":        "unhealthy",
			"response_time": time.Since(redisStart).String(),
			"error":         err.Error(),
		}
		isHealthy = false

		logger.Error().
			Err(err).
			Dur("response_time", time.Since(redisStart)).
			Msg("redis health check failed")

		h.recordHealthEvent("redis", "redis_unhealthy", err.Error(), time.Since(redisStart))
	} else {
		checks["redis"] = map[string]interface{}{
			"status":        "healthy",
			"response_time": time.Since(redisStart).String(),
		}

		logger.Debug().
			Dur("response_time", time.Since(redisStart)).
			Msg("redis health check passed")
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordHealthEvent("overall", "overall_unhealthy", "", time.Since(start))

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordHealthEvent(checkType, errorType, errMsg string, elapsed time.Duration) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}

	attrs := map[string]interface{}{
		"check_type":       checkType,
		"operation":        "health_check",
		"error_type":       errorType,
		"response_time_ms": elapsed.Milliseconds(),
	}
	if errMsg != "" {
		attrs["error_message"] = errMsg
	}

	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", attrs)
}
