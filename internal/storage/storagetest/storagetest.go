// Package storagetest holds the behaviour every storage.Repository must
// share, run against each backend from its own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Input returns a valid input dated on the given day.
func Input(date string, typ core.Type, amount string) core.Input {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	category := "Food & Groceries"
	if typ.IsIncome() {
		category = core.AllowedCategories(typ)[0]
	}
	return core.Input{
		Date:          d,
		Type:          typ,
		Category:      category,
		Amount:        decimal.RequireFromString(amount),
		PaymentMethod: core.Cash,
	}
}

func month(t *testing.T, s string) core.Month {
	t.Helper()
	m, err := core.ParseMonth(s)
	require.NoError(t, err)
	return m
}

// assertSameRow checks that got still holds every stored field of want.
func assertSameRow(t *testing.T, want, got core.Transaction) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Owner, got.Owner)
	assert.Equal(t, want.Date.String(), got.Date.String())
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.Category, got.Category)
	assert.True(t, want.Amount.Equal(got.Amount), "amount %s, want %s", got.Amount, want.Amount)
	assert.Equal(t, want.PaymentMethod, got.PaymentMethod)
	assert.Equal(t, want.BankAccount, got.BankAccount)
	assert.Equal(t, want.CreditCard, got.CreditCard)
	assert.Equal(t, want.Person, got.Person)
	assert.Equal(t, want.Description, got.Description)
}

// Run exercises repo through the full create, list, update, delete cycle.
// newRepo must return an empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) storage.Repository) {
	ctx := context.Background()

	t.Run("create round trip", func(t *testing.T) {
		repo := newRepo(t)
		in := Input("2024-03-15", core.Lent, "250.75")
		in.PaymentMethod = core.Credit
		in.CreditCard = core.Ptr("hdfc_card")
		in.Person = core.Ptr("Asha")
		in.Description = core.Ptr("dinner")

		created, err := repo.Create(ctx, "me", in)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "me", created.Owner)
		assert.Equal(t, "2024-03-15", created.Date.String())
		assert.Equal(t, core.Lent, created.Type)
		assert.True(t, created.Amount.Equal(decimal.RequireFromString("250.75")), "amount %s", created.Amount)
		assert.Equal(t, "hdfc_card", core.Deref(created.CreditCard))
		assert.Equal(t, "Asha", core.Deref(created.Person))
		assert.Equal(t, "dinner", core.Deref(created.Description))
		assert.Nil(t, created.BankAccount)
		assert.False(t, created.CreatedAt.IsZero())

		list, err := repo.List(ctx, "me", month(t, "2024-03"))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
		assert.True(t, list[0].Amount.Equal(created.Amount))
	})

	t.Run("month boundaries and ordering", func(t *testing.T) {
		repo := newRepo(t)
		for _, d := range []string{"2024-02-29", "2024-03-01", "2024-03-31", "2024-03-15", "2024-04-01"} {
			_, err := repo.Create(ctx, "me", Input(d, core.Expense, "10"))
			require.NoError(t, err)
		}

		list, err := repo.List(ctx, "me", month(t, "2024-03"))
		require.NoError(t, err)
		var dates []string
		for _, tx := range list {
			dates = append(dates, tx.Date.String())
		}
		assert.Equal(t, []string{"2024-03-31", "2024-03-15", "2024-03-01"}, dates)

		empty, err := repo.List(ctx, "me", month(t, "2023-01"))
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("owner scoping", func(t *testing.T) {
		repo := newRepo(t)
		mine, err := repo.Create(ctx, "me", Input("2024-03-10", core.Expense, "1"))
		require.NoError(t, err)
		_, err = repo.Create(ctx, "other", Input("2024-03-11", core.Expense, "2"))
		require.NoError(t, err)

		list, err := repo.List(ctx, "me", month(t, "2024-03"))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, mine.ID, list[0].ID)

		_, err = repo.Update(ctx, "other", mine.ID, Input("2024-04-20", core.Salary, "5"))
		assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
		err = repo.Delete(ctx, "other", mine.ID)
		assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)

		list, err = repo.List(ctx, "me", month(t, "2024-03"))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assertSameRow(t, mine, list[0])
		april, err := repo.List(ctx, "other", month(t, "2024-04"))
		require.NoError(t, err)
		assert.Empty(t, april)
	})

	t.Run("update replaces every field", func(t *testing.T) {
		repo := newRepo(t)
		in := Input("2024-03-10", core.Lent, "100")
		in.Person = core.Ptr("Ravi")
		created, err := repo.Create(ctx, "me", in)
		require.NoError(t, err)

		next := Input("2024-04-02", core.Salary, "5000")
		next.PaymentMethod = core.Bank
		next.BankAccount = core.Ptr("sbi_savings")
		updated, err := repo.Update(ctx, "me", created.ID, next)
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, core.Salary, updated.Type)
		assert.Equal(t, "Monthly Salary", updated.Category)
		assert.Nil(t, updated.Person)
		assert.Equal(t, "sbi_savings", core.Deref(updated.BankAccount))

		march, err := repo.List(ctx, "me", month(t, "2024-03"))
		require.NoError(t, err)
		assert.Empty(t, march)
		april, err := repo.List(ctx, "me", month(t, "2024-04"))
		require.NoError(t, err)
		require.Len(t, april, 1)
		assert.True(t, april[0].Amount.Equal(decimal.NewFromInt(5000)))
	})

	t.Run("update missing", func(t *testing.T) {
		repo := newRepo(t)
		kept, err := repo.Create(ctx, "me", Input("2024-03-10", core.Expense, "1"))
		require.NoError(t, err)

		_, err = repo.Update(ctx, "me", kept.ID+1000, Input("2024-03-12", core.Expense, "7"))
		assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)

		list, err := repo.List(ctx, "me", month(t, "2024-03"))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assertSameRow(t, kept, list[0])
	})

	t.Run("delete twice", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, "me", Input("2024-03-10", core.Expense, "1"))
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, "me", created.ID))
		err = repo.Delete(ctx, "me", created.ID)
		assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)

		list, err := repo.List(ctx, "me", month(t, "2024-03"))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("ping", func(t *testing.T) {
		repo := newRepo(t)
		assert.NoError(t, repo.Ping(ctx))
	})
}
