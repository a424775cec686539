package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// EventPublisher is the outbound port for mutation events.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// TransactionService validates input, delegates to the store and announces
// committed mutations. Publishing is best-effort: a stored change is never
// rolled back or reported as failed because its event was lost.
type TransactionService struct {
	storage storage.Repository
	events  EventPublisher
	idem    *gocache.Cache
}

// NewTransactionService wires the service. events may be nil. A positive
// idempotencyTTL enables replay of creates carrying the same key.
func NewTransactionService(repo storage.Repository, events EventPublisher, idempotencyTTL time.Duration) *TransactionService {
	s := &TransactionService{storage: repo, events: events}
	if idempotencyTTL > 0 {
		s.idem = gocache.New(idempotencyTTL, 2*idempotencyTTL)
	}
	return s
}

// ListTransactions returns the owner's transactions for a "YYYY-MM" month,
// newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, owner, month string) ([]core.Transaction, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	return s.ListMonth(ctx, owner, m)
}

func (s *TransactionService) ListMonth(ctx context.Context, owner string, m core.Month) ([]core.Transaction, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	txs, err := s.storage.List(ctx, owner, m)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", m, err)
	}
	return txs, nil
}

// CreateTransaction stores a new transaction. When idempotencyKey is set
// and was seen within the TTL, the earlier result is returned unchanged.
func (s *TransactionService) CreateTransaction(ctx context.Context, owner string, in core.Input, idempotencyKey string) (core.Transaction, error) {
	if err := checkOwner(owner); err != nil {
		return core.Transaction{}, err
	}
	in, err := checkInput(in)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	cacheKey := ""
	if s.idem != nil && strings.TrimSpace(idempotencyKey) != "" {
		cacheKey = owner + "\x00" + strings.TrimSpace(idempotencyKey)
		if prev, ok := s.idem.Get(cacheKey); ok {
			slog.InfoContext(ctx, "Replaying idempotent create", "id", prev.(core.Transaction).ID)
			return prev.(core.Transaction), nil
		}
	}

	t, err := s.storage.Create(ctx, owner, in)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create: %w", err)
	}
	if cacheKey != "" {
		s.idem.SetDefault(cacheKey, t)
	}

	s.publish(ctx, amqp.ActionCreated, t.ID, owner, core.MonthOf(t.Date))
	return t, nil
}

// UpdateTransaction replaces every editable field of the owner's row id.
func (s *TransactionService) UpdateTransaction(ctx context.Context, owner string, id int64, in core.Input) (core.Transaction, error) {
	if err := checkOwner(owner); err != nil {
		return core.Transaction{}, err
	}
	if id <= 0 {
		return core.Transaction{}, core.InvalidArgument("invalid transaction id %d", id)
	}
	in, err := checkInput(in)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t, err := s.storage.Update(ctx, owner, id, in)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, amqp.ActionUpdated, t.ID, owner, core.MonthOf(t.Date))
	return t, nil
}

// DeleteTransaction removes the owner's row id.
func (s *TransactionService) DeleteTransaction(ctx context.Context, owner string, id int64) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	if id <= 0 {
		return core.InvalidArgument("invalid transaction id %d", id)
	}
	if err := s.storage.Delete(ctx, owner, id); err != nil {
		return err
	}

	s.publish(ctx, amqp.ActionDeleted, id, owner, core.Month{})
	return nil
}

// Catalog returns the static option lists.
func (s *TransactionService) Catalog() core.Catalog {
	return core.NewCatalog()
}

// Ping reports whether the store is reachable.
func (s *TransactionService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

func (s *TransactionService) publish(ctx context.Context, action string, id int64, owner string, m core.Month) {
	if s.events == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "action", action, "id", id)
		return
	}
	month := ""
	if !m.IsZero() {
		month = m.String()
	}
	if err := s.events.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(action, id, owner, month)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action, "id", id, "error", err)
	}
}

// Close closes the store.
func (s *TransactionService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}

func checkOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return core.InvalidArgument("owner is required")
	}
	return nil
}
