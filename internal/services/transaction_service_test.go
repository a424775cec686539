package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
	"fintrack/internal/storage/storagetest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, e *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
	return p.err
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

func newService(pub EventPublisher) *TransactionService {
	return NewTransactionService(memory.New(), pub, time.Minute)
}

func TestListTransactions_InvalidMonth(t *testing.T) {
	s := newService(nil)
	_, err := s.ListTransactions(context.Background(), "me", "March")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "March")
}

func TestCreateThenList(t *testing.T) {
	pub := &recordingPublisher{}
	s := newService(pub)
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, "me", storagetest.Input("2024-03-15", core.Expense, "100"), "")
	require.NoError(t, err)

	list, err := s.ListTransactions(ctx, "me", "2024-03")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.ActionCreated, pub.events[0].Action)
	assert.Equal(t, "2024-03", pub.events[0].Month)
	assert.Equal(t, "me", pub.events[0].Owner)
}

func TestCreate_Validation(t *testing.T) {
	s := newService(nil)
	ctx := context.Background()

	in := storagetest.Input("2024-03-15", core.Lent, "10")
	_, err := s.CreateTransaction(ctx, "me", in, "")
	assert.True(t, errors.Is(err, core.ErrInvalidArgument), "missing person: %v", err)

	in = storagetest.Input("2024-03-15", core.Expense, "10")
	in.Amount = decimal.NewFromInt(-1)
	_, err = s.CreateTransaction(ctx, "me", in, "")
	assert.True(t, errors.Is(err, core.ErrInvalidArgument), "negative amount: %v", err)

	_, err = s.CreateTransaction(ctx, " ", storagetest.Input("2024-03-15", core.Expense, "10"), "")
	assert.True(t, errors.Is(err, core.ErrInvalidArgument), "blank owner: %v", err)

	list, err := s.ListTransactions(ctx, "me", "2024-03")
	require.NoError(t, err)
	assert.Empty(t, list, "rejected inputs must not be stored")
}

func TestCreate_NormalizesConditionalFields(t *testing.T) {
	s := newService(nil)
	in := storagetest.Input("2024-03-15", core.Expense, "10")
	in.PaymentMethod = core.UPI
	in.BankAccount = core.Ptr("hdfc_savings")
	in.CreditCard = core.Ptr("hdfc_card")
	in.Person = core.Ptr("Asha")
	in.Description = core.Ptr("")

	created, err := s.CreateTransaction(context.Background(), "me", in, "")
	require.NoError(t, err)
	assert.Nil(t, created.BankAccount)
	assert.Nil(t, created.CreditCard)
	assert.Nil(t, created.Person)
	assert.Nil(t, created.Description)
}

func TestCreate_KeepsPlainTextVerbatim(t *testing.T) {
	s := newService(nil)
	ctx := context.Background()
	in := storagetest.Input("2024-03-15", core.Shared, "10")
	in.Person = core.Ptr("Asha & Ravi")
	in.Description = core.Ptr("2 < 3 & 5 > 4, fish & chips")

	created, err := s.CreateTransaction(ctx, "me", in, "")
	require.NoError(t, err)
	assert.Equal(t, "Asha & Ravi", core.Deref(created.Person))
	assert.Equal(t, "2 < 3 & 5 > 4, fish & chips", core.Deref(created.Description))
	assert.Equal(t, "Food & Groceries", created.Category)

	list, err := s.ListTransactions(ctx, "me", "2024-03")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created, list[0])
}

func TestCreate_RejectsMarkup(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.Input)
		wantErr string
	}{
		{
			name:    "person",
			mutate:  func(in *core.Input) { in.Person = core.Ptr("<b>Asha</b>") },
			wantErr: "person must not contain markup",
		},
		{
			name:    "angle bracket address",
			mutate:  func(in *core.Input) { in.Person = core.Ptr("Tom <tom@x.com>") },
			wantErr: "person must not contain markup",
		},
		{
			name:    "description",
			mutate:  func(in *core.Input) { in.Description = core.Ptr("lunch <script>alert(1)</script>") },
			wantErr: "description must not contain markup",
		},
		{
			name:    "category",
			mutate:  func(in *core.Input) { in.Category = "<i>Shopping</i>" },
			wantErr: "category must not contain markup",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newService(nil)
			in := storagetest.Input("2024-03-15", core.Shared, "10")
			in.Person = core.Ptr("Asha")
			tt.mutate(&in)

			_, err := s.CreateTransaction(context.Background(), "me", in, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidArgument))
			assert.Equal(t, tt.wantErr, core.UserMessage(core.OpCreate, err))

			list, err := s.ListTransactions(context.Background(), "me", "2024-03")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestCreate_IdempotencyKey(t *testing.T) {
	pub := &recordingPublisher{}
	s := newService(pub)
	ctx := context.Background()
	in := storagetest.Input("2024-03-15", core.Expense, "10")

	first, err := s.CreateTransaction(ctx, "me", in, "key-1")
	require.NoError(t, err)
	second, err := s.CreateTransaction(ctx, "me", in, "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := s.CreateTransaction(ctx, "someone", in, "key-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID, "keys are scoped per owner")

	list, _ := s.ListTransactions(ctx, "me", "2024-03")
	assert.Len(t, list, 1)
	assert.Equal(t, []string{amqp.ActionCreated, amqp.ActionCreated}, pub.actions())
}

func TestUpdate(t *testing.T) {
	pub := &recordingPublisher{}
	s := newService(pub)
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, "me", storagetest.Input("2024-03-15", core.Expense, "10"), "")
	require.NoError(t, err)

	next := storagetest.Input("2024-03-16", core.Expense, "20")
	updated, err := s.UpdateTransaction(ctx, "me", created.ID, next)
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(20)))

	_, err = s.UpdateTransaction(ctx, "me", created.ID+100, next)
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)

	_, err = s.UpdateTransaction(ctx, "me", 0, next)
	assert.True(t, errors.Is(err, core.ErrInvalidArgument), "got %v", err)

	bad := next
	bad.Type = "gift"
	_, err = s.UpdateTransaction(ctx, "me", created.ID, bad)
	assert.True(t, errors.Is(err, core.ErrInvalidArgument), "got %v", err)

	assert.Equal(t, []string{amqp.ActionCreated, amqp.ActionUpdated}, pub.actions())
}

func TestDelete(t *testing.T) {
	pub := &recordingPublisher{}
	s := newService(pub)
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, "me", storagetest.Input("2024-03-15", core.Expense, "10"), "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteTransaction(ctx, "me", created.ID))
	err = s.DeleteTransaction(ctx, "me", created.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)

	assert.Equal(t, []string{amqp.ActionCreated, amqp.ActionDeleted}, pub.actions())
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	s := newService(pub)

	created, err := s.CreateTransaction(context.Background(), "me", storagetest.Input("2024-03-15", core.Expense, "10"), "")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

type failingStore struct{ *memory.Store }

func (failingStore) List(context.Context, string, core.Month) ([]core.Transaction, error) {
	return nil, core.StoreFailure("list transactions", errors.New("disk on fire"))
}

func TestListStoreFailure(t *testing.T) {
	s := NewTransactionService(failingStore{memory.New()}, nil, 0)
	_, err := s.ListTransactions(context.Background(), "me", "2024-03")
	assert.True(t, errors.Is(err, core.ErrStoreFailure), "got %v", err)
}

func TestCatalogAndClose(t *testing.T) {
	s := newService(nil)
	assert.NotEmpty(t, s.Catalog().Types)
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
