package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Repository {
		return New()
	})
}

func TestSeedKeepsIDsMonotonic(t *testing.T) {
	s := New()
	s.Seed(core.Transaction{ID: 10, Owner: "me", Date: core.NewDate(2024, 3, 1), Type: core.Expense})
	created, err := s.Create(context.Background(), "me", storagetest.Input("2024-03-02", core.Expense, "1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 11 {
		t.Fatalf("expected id 11 after seeding 10, got %d", created.ID)
	}
}

func TestStoreDoesNotAliasInput(t *testing.T) {
	s := New()
	in := storagetest.Input("2024-03-02", core.Expense, "1")
	in.Description = core.Ptr("original")
	created, _ := s.Create(context.Background(), "me", in)
	*in.Description = "changed"

	m, _ := core.ParseMonth("2024-03")
	list, _ := s.List(context.Background(), "me", m)
	if len(list) != 1 || core.Deref(list[0].Description) != "original" {
		t.Fatalf("stored row aliased caller input: %+v (created %d)", list, created.ID)
	}
}
