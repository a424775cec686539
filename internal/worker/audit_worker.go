// Package worker turns transaction change events into an audit trail.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// Redelivered events are recognised for this long.
const defaultDedupeWindow = time.Hour

const dedupeCapacity = 10000

// Stats counts what the worker has done since it started.
type Stats struct {
	Audited    int64
	Duplicates int64
	Missing    int64
	Failed     int64
}

// AuditWorker logs every committed mutation with the stored row it refers
// to. Events carry identifiers only, so created and updated rows are read
// back from the store.
type AuditWorker struct {
	store  storage.TransactionLister
	seen   *cache.LRU[time.Time]
	logger *applog.Logger
	now    func() time.Time

	audited    atomic.Int64
	duplicates atomic.Int64
	missing    atomic.Int64
	failed     atomic.Int64
}

// NewAuditWorker creates a worker reading rows from store. store may be nil,
// in which case only the event itself is logged.
func NewAuditWorker(store storage.TransactionLister, logger *applog.Logger, dedupeWindow time.Duration) *AuditWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if dedupeWindow <= 0 {
		dedupeWindow = defaultDedupeWindow
	}
	return &AuditWorker{
		store:  store,
		seen:   cache.NewLRU[time.Time](dedupeCapacity, dedupeWindow),
		logger: logger.WithComponent(applog.ComponentWorker),
		now:    time.Now,
	}
}

func eventKey(ev *amqp.TransactionEvent) string {
	return fmt.Sprintf("%s:%d:%d", ev.Action, ev.ID, ev.Timestamp.UnixNano())
}

// HandleEvent audits one event. A returned error asks the broker to
// redeliver it; rows that no longer exist are logged and acknowledged.
func (w *AuditWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	key := eventKey(ev)
	if !w.seen.Add(key, w.now()) {
		w.duplicates.Add(1)
		w.logger.DebugContext(ctx, "Skipping redelivered event", "action", ev.Action, "transaction_id", ev.ID)
		return nil
	}

	fields := applog.NewFields().
		WithOperation(ev.Action).
		WithOwner(ev.Owner).
		WithTransactionID(ev.ID).
		WithMonth(ev.Month)
	fields["event_time"] = ev.Timestamp.Format(time.RFC3339)

	if ev.Action == amqp.ActionDeleted || w.store == nil || ev.Month == "" {
		w.audited.Add(1)
		w.logger.InfoContext(ctx, "Transaction "+ev.Action, fields.ToSlice()...)
		return nil
	}

	t, err := w.lookup(ctx, ev)
	switch {
	case err == nil:
		w.audited.Add(1)
		fields = fields.WithTransaction(t)
		w.logger.InfoContext(ctx, "Transaction "+ev.Action, fields.ToSlice()...)
		return nil
	case core.KindOf(err) == core.KindNotFound:
		w.missing.Add(1)
		w.logger.WarnContext(ctx, "Transaction no longer in store", fields.ToSlice()...)
		return nil
	case core.KindOf(err) == core.KindInvalidArgument:
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "Dropping malformed event", fields.WithError(err).ToSlice()...)
		return nil
	default:
		// Forget the event so the redelivery is not mistaken for a duplicate.
		w.seen.Delete(key)
		w.failed.Add(1)
		return fmt.Errorf("audit %s %d: %w", ev.Action, ev.ID, err)
	}
}

func (w *AuditWorker) lookup(ctx context.Context, ev *amqp.TransactionEvent) (core.Transaction, error) {
	m, err := core.ParseMonth(ev.Month)
	if err != nil {
		return core.Transaction{}, err
	}
	txs, err := w.store.List(ctx, ev.Owner, m)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range txs {
		if t.ID == ev.ID {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %d in %s: %w", ev.ID, m, core.ErrNotFound)
}

// Stats returns the counters.
func (w *AuditWorker) Stats() Stats {
	return Stats{
		Audited:    w.audited.Load(),
		Duplicates: w.duplicates.Load(),
		Missing:    w.missing.Load(),
		Failed:     w.failed.Load(),
	}
}

// RunReporter logs the counters every interval and prunes the dedupe
// window until ctx is done.
func (w *AuditWorker) RunReporter(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pruned := w.seen.CleanExpired()
			s := w.Stats()
			w.logger.InfoContext(ctx, "Audit worker stats",
				"audited", s.Audited,
				"duplicates", s.Duplicates,
				"missing", s.Missing,
				"failed", s.Failed,
				"pruned", pruned)
		}
	}
}
