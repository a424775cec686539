package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, append([]Option{WithReadRetries(0)}, opts...)...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sampleInput() core.Input {
	return core.Input{
		Date:          core.NewDate(2024, 3, 5),
		Type:          core.Lent,
		Category:      "Loans",
		Amount:        decimal.RequireFromString("250.50"),
		PaymentMethod: core.Cash,
		Person:        core.Ptr("Asha"),
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("localhost:8081")
	assert.Error(t, err)
	_, err = New("http://localhost:8081/")
	assert.NoError(t, err)
}

func TestList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "2024-03", r.URL.Query().Get("month"))
		_, _ = w.Write([]byte(`[{"id":7,"owner":"1","date":"2024-03-05","type":"expense","category":"Shopping","amount":"12.50","paymentMethod":"cash","bankAccount":null,"creditCard":null,"person":null,"description":null,"timestamp":"2024-03-05T10:00:00Z"}]`))
	})

	txs, err := c.List(context.Background(), "2024-03")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(7), txs[0].ID)
	assert.Equal(t, "2024-03-05", txs[0].Date.String())
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Nil(t, txs[0].Person)
}

func TestListEmptyIsNotNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	txs, err := c.List(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}

func TestCreateSendsBodyAndKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "key-1", r.Header.Get(IdempotencyKeyHeader))

		var in core.Input
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "2024-03-05", in.Date.String())
		assert.Equal(t, "Asha", core.Deref(in.Person))
		assert.True(t, in.Amount.Equal(decimal.RequireFromString("250.5")))

		writeJSON(w, http.StatusOK, core.Transaction{ID: 11, Owner: "1", Date: in.Date, Type: in.Type, Category: in.Category, Amount: in.Amount, PaymentMethod: in.PaymentMethod, Person: in.Person})
	})

	tx, err := c.CreateWithKey(context.Background(), sampleInput(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, int64(11), tx.ID)
	assert.Equal(t, core.Lent, tx.Type)
}

func TestUpdateAndDeletePaths(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			writeJSON(w, http.StatusOK, core.Transaction{ID: 3})
		case http.MethodDelete:
			writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
		}
	})

	tx, err := c.Update(context.Background(), 3, sampleInput())
	require.NoError(t, err)
	assert.Equal(t, int64(3), tx.ID)
	require.NoError(t, c.Delete(context.Background(), 3))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"PUT /transactions/3", "DELETE /transactions/3"}, seen)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    error
		display string
	}{
		{"bad request keeps detail", http.StatusBadRequest, `{"error":"person is required for type \"lent\""}`, core.ErrInvalidArgument, `person is required for type "lent"`},
		{"not found", http.StatusNotFound, `{"error":"Transaction not found"}`, core.ErrNotFound, "Transaction not found"},
		{"store failure", http.StatusInternalServerError, `{"error":"Failed to update transaction"}`, core.ErrStoreFailure, "Failed to update transaction"},
		{"plain text body", http.StatusBadGateway, "upstream down", core.ErrStoreFailure, "Failed to update transaction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Update(context.Background(), 1, sampleInput())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.display, core.UserMessage(core.OpUpdate, err))
		})
	}
}

func TestUnexpectedStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	err := c.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, core.KindUnknown, core.KindOf(err))
	assert.Contains(t, err.Error(), "429")
}

func TestReadsRetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch transactions"})
			return
		}
		writeJSON(w, http.StatusOK, []core.Transaction{})
	}, WithReadRetries(5*time.Second))

	_, err := c.List(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestReadsDoNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": `invalid month "x": expected YYYY-MM`})
	}, WithReadRetries(5*time.Second))

	_, err := c.List(context.Background(), "x")
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
	assert.Equal(t, int32(1), calls.Load())
}

func TestMutationsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create transaction"})
	}, WithReadRetries(5*time.Second))

	_, err := c.Create(context.Background(), sampleInput())
	assert.ErrorIs(t, err, core.ErrStoreFailure)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []core.Transaction{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.List(ctx, "2024-03")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCatalog(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalog", r.URL.Path)
		writeJSON(w, http.StatusOK, core.NewCatalog())
	})
	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, cat.Types, len(core.AllTypes))
	assert.Equal(t, core.SalaryCategories, cat.Categories[core.Salary])
}
