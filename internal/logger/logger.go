// Package logger configures the application's logging,
// monitoring, and observability.
//
// It uses zerolog for structured logging and integrates with New Relic to
// instrument the codebase, forwarding logs, metrics, and traces.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/calendar-todo/backend/internal/config"
	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/zerologWriter"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// LoggerService owns the optional New Relic application instance.
//
// When New Relic is not configured (empty license key) the service still
// exists but GetApplication returns nil, and all call sites degrade to
// plain zerolog output.
type LoggerService struct {
	nrApp *newrelic.Application
}

// NewLoggerService initializes the New Relic agent from config.
//
// A missing license key is not an error: the agent is simply disabled.
func NewLoggerService(cfg *config.Config) (*LoggerService, error) {
	nr := cfg.Observability.NewRelic
	if nr.LicenseKey == "" {
		return &LoggerService{}, nil
	}

	opts := []newrelic.ConfigOption{
		newrelic.ConfigAppName(cfg.Observability.ServiceName),
		newrelic.ConfigLicense(nr.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(nr.AppLogForwardingEnabled),
		newrelic.ConfigDistributedTracerEnabled(nr.DistributedTracingEnabled),
	}
	if nr.DebugLogging {
		opts = append(opts, newrelic.ConfigDebugLogger(os.Stderr))
	}

	app, err := newrelic.NewApplication(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize new relic: %w", err)
	}

	return &LoggerService{nrApp: app}, nil
}

// GetApplication returns the New Relic application, or nil when disabled.
func (ls *LoggerService) GetApplication() *newrelic.Application {
	return ls.nrApp
}

// Shutdown flushes pending agent data. Safe to call when disabled.
func (ls *LoggerService) Shutdown(timeout time.Duration) {
	if ls.nrApp != nil {
		ls.nrApp.Shutdown(timeout)
	}
}

// New builds the application's root zerolog logger.
//
// Format "console" writes human-friendly output to stderr; anything else
// writes JSON. When a New Relic application is available and log forwarding
// is enabled, output is routed through zerologWriter so log lines carry
// linking metadata and are forwarded to the agent.
func New(cfg *config.Config, ls *LoggerService) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Observability.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Observability.Logging.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	} else if ls != nil && ls.GetApplication() != nil && cfg.Observability.NewRelic.AppLogForwardingEnabled {
		w := zerologWriter.New(os.Stderr, ls.GetApplication())
		out = &w
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.Observability.ServiceName).
		Str("env", cfg.Observability.Environment).
		Logger()
}

// WithTraceContext returns a child logger carrying trace.id and span.id
// from the given transaction, so log lines can be correlated with traces.
func WithTraceContext(log zerolog.Logger, txn *newrelic.Transaction) zerolog.Logger {
	if txn == nil {
		return log
	}

	md := txn.GetTraceMetadata()
	builder := log.With()
	if md.TraceID != "" {
		builder = builder.Str("trace.id", md.TraceID)
	}
	if md.SpanID != "" {
		builder = builder.Str("span.id", md.SpanID)
	}
	return builder.Logger()
}
