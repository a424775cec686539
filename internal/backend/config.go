package backend

import (
	"fintrack/internal/config"
)

// ConfigFromAppConfig converts application config to backend config
func ConfigFromAppConfig(c *config.Config) Config {
	return Config{
		Type:           BackendType(c.DataBackend),
		SQLiteDBPath:   c.SQLiteDBPath,
		DatabaseURL:    c.DatabaseURL,
		AMQPURL:        c.AMQPURL,
		AMQPExchange:   c.AMQPExchange,
		AMQPQueue:      c.AMQPQueue,
		ConnectTimeout: c.ConnectTimeout,
		IdempotencyTTL: c.IdempotencyTTL,
	}
}
