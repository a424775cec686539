package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
	"fintrack/internal/storage/storagetest"
)

type failingLister struct{}

func (failingLister) List(context.Context, string, core.Month) ([]core.Transaction, error) {
	return nil, core.StoreFailure(core.OpList, errors.New("database is locked"))
}

// lockedBuffer lets the reporter goroutine log while the test reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newWorker(t *testing.T, store storage.TransactionLister) (*AuditWorker, *lockedBuffer) {
	t.Helper()
	buf := &lockedBuffer{}
	logger := applog.New(applog.Config{Handler: slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})})
	return NewAuditWorker(store, logger, time.Minute), buf
}

func TestHandleEventLogsStoredRow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	created, err := store.Create(ctx, "alice", storagetest.Input("2024-03-05", core.Expense, "42.10"))
	require.NoError(t, err)

	w, buf := newWorker(t, store)
	ev := amqp.NewTransactionEvent(amqp.ActionCreated, created.ID, "alice", "2024-03")

	require.NoError(t, w.HandleEvent(ctx, ev))
	out := buf.String()
	assert.Contains(t, out, `"msg":"Transaction created"`)
	assert.Contains(t, out, `"amount":"42.1"`)
	assert.Contains(t, out, `"type":"expense"`)
	assert.Equal(t, Stats{Audited: 1}, w.Stats())
}

func TestHandleEventSkipsRedelivery(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorker(t, nil)
	ev := amqp.NewTransactionEvent(amqp.ActionDeleted, 9, "alice", "")

	require.NoError(t, w.HandleEvent(ctx, ev))
	require.NoError(t, w.HandleEvent(ctx, ev))

	assert.Equal(t, Stats{Audited: 1, Duplicates: 1}, w.Stats())
}

func TestHandleEventMissingRowIsAcknowledged(t *testing.T) {
	w, buf := newWorker(t, memory.New())
	ev := amqp.NewTransactionEvent(amqp.ActionUpdated, 77, "alice", "2024-03")

	require.NoError(t, w.HandleEvent(context.Background(), ev))
	assert.Contains(t, buf.String(), "Transaction no longer in store")
	assert.Equal(t, int64(1), w.Stats().Missing)
}

func TestHandleEventMalformedMonthIsDropped(t *testing.T) {
	w, _ := newWorker(t, memory.New())
	ev := amqp.NewTransactionEvent(amqp.ActionCreated, 1, "alice", "March")

	require.NoError(t, w.HandleEvent(context.Background(), ev))
	assert.Equal(t, int64(1), w.Stats().Failed)
}

func TestHandleEventStoreFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorker(t, failingLister{})
	ev := amqp.NewTransactionEvent(amqp.ActionCreated, 3, "alice", "2024-03")

	err := w.HandleEvent(ctx, ev)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrStoreFailure))

	// The redelivery is processed again rather than treated as a duplicate.
	require.Error(t, w.HandleEvent(ctx, ev))
	assert.Equal(t, Stats{Failed: 2}, w.Stats())
}

func TestRunReporterStopsWithContext(t *testing.T) {
	w, buf := newWorker(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.RunReporter(ctx, 10*time.Millisecond) }()

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "Audit worker stats")
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RunReporter did not return after cancel")
	}
}
