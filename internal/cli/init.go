// Package cli provides the start-up steps shared by cmd/fintrack and
// cmd/fintrack-events.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
)

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error; production sets the environment directly.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// NewLogger builds the application logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config, w io.Writer) *applog.Logger {
	level := applog.ParseLevel(cfg.LogLevel)
	return applog.New(applog.Config{
		Level:     level,
		Component: applog.ComponentApp,
		Handler:   applog.NewHandler(w, cfg.LogFormat, level),
	})
}

// SetupLogger creates the stdout logger and makes it the slog default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	logger := NewLogger(cfg, os.Stdout)
	applog.SetDefault(logger)
	return logger
}

// InitBackend opens the configured store and event publisher.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg backend.Config) *backend.BackendResult {
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.Type)
		os.Exit(1)
	}
	return result
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM. The
// returned stop function releases the signal handler.
func ShutdownContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
