// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/bunpro-yomitan/internal/clock/system"
	"github.com/JakeFAU/bunpro-yomitan/internal/config"
	"github.com/JakeFAU/bunpro-yomitan/internal/id/uuid"
	"github.com/JakeFAU/bunpro-yomitan/internal/logging"
	"github.com/JakeFAU/bunpro-yomitan/internal/metrics"
	"github.com/JakeFAU/bunpro-yomitan/internal/telemetry"
)

// DefaultEnvFile is read at startup when present.
const DefaultEnvFile = ".env"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Options selects where configuration comes from.
type Options struct {
	ConfigPath string
	EnvFile    string
}

// App holds the services shared by every command: configuration, the two-channel
// logger tagged with a run id, and the metrics registry.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	clock   Clock
	runID   string
	tracer  *sdktrace.TracerProvider
	cleanup func()
}

// NewApp loads the .env file and configuration, then builds the logger and
// metrics. It fails fast on any invalid setting.
func NewApp(opts Options) (*App, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, cleanup, err := logging.New(logging.Config{
		ErrorFile:   cfg.Logging.ErrorFile,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	runID, err := uuid.New().NewID()
	if err != nil {
		cleanup()
		return nil, err
	}
	logger = logger.With(zap.String("run_id", runID))

	tp, closeTraces, err := initTracing(cfg.Telemetry, runID)
	if err != nil {
		cleanup()
		return nil, err
	}
	logger.Debug("Application services initialized", zap.String("config", opts.ConfigPath))

	return &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		clock:   system.New(nil),
		runID:   runID,
		tracer:  tp,
		cleanup: func() {
			closeTraces()
			cleanup()
		},
	}, nil
}

// Config returns the validated configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// GetLogger returns the shared logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetMetrics returns the run's metrics.
func (a *App) GetMetrics() *metrics.Metrics {
	return a.metrics
}

// GetClock returns the wall clock.
func (a *App) GetClock() Clock {
	return a.clock
}

// RunID identifies this process invocation in logs.
func (a *App) RunID() string {
	return a.runID
}

// Close flushes spans and metrics, then tears down logging.
func (a *App) Close() {
	if err := a.tracer.Shutdown(context.Background()); err != nil {
		a.logger.Warn("Failed to flush traces", zap.Error(err))
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("Failed to write metrics textfile", zap.Error(err))
	}
	a.cleanup()
}

func initTracing(cfg config.TelemetryConfig, runID string) (*sdktrace.TracerProvider, func(), error) {
	if cfg.TraceFile == "" {
		tp, err := telemetry.InitTracerProvider(context.Background(), runID)
		if err != nil {
			return nil, nil, err
		}
		return tp, func() {}, nil
	}

	// #nosec G304 -- trace file path comes from configuration.
	f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace file %s: %w", cfg.TraceFile, err)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp, err := telemetry.InitTracerProvider(context.Background(), runID, sdktrace.WithSyncer(exporter))
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return tp, func() { _ = f.Close() }, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
