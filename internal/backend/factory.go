package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend opens the configured store, connects the optional event
// publisher and builds the transaction service on top of them.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	repo, err := f.openRepository(ctx, config)
	if err != nil {
		return nil, err
	}

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, config.ConnectTimeout)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	var publisher services.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	service := services.NewTransactionService(repo, publisher, config.IdempotencyTTL)

	f.logger.Info("Initialized backend",
		"backend", config.Type,
		"events_enabled", amqpClient != nil,
		"idempotency_ttl", config.IdempotencyTTL)

	return &BackendResult{
		Service:    service,
		Repository: repo,
		Cleanup: func() error {
			var errs []error
			if err := service.Close(); err != nil {
				errs = append(errs, err)
			}
			if amqpClient != nil {
				if err := amqpClient.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			if len(errs) > 0 {
				return fmt.Errorf("close backend: %v", errs)
			}
			return nil
		},
	}, nil
}

func (f *DefaultFactory) openRepository(ctx context.Context, config Config) (storage.Repository, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil

	case PostgresBackend:
		var repo *storage.PostgresRepository
		err := backoff.Retry(func() error {
			var err error
			repo, err = storage.NewPostgresRepository(ctx, config.DatabaseURL)
			if err != nil {
				f.logger.Warn("PostgreSQL not ready, retrying", "error", err)
			}
			return err
		}, backoff.WithContext(amqp.RetryPolicy(config.ConnectTimeout), ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}
		f.logger.Info("Initialized PostgreSQL backend")
		return repo, nil

	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
