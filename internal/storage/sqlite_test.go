package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/storagetest"
)

func newSQLite(t *testing.T) storage.Repository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteContract(t *testing.T) {
	storagetest.Run(t, newSQLite)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fintrack.db")
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx := context.Background()
	created, err := repo.Create(ctx, "me", storagetest.Input("2024-03-05", core.Salary, "1234.50"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.Close()

	// Migrations must be idempotent on an existing database.
	repo, err = storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer repo.Close()

	m, _ := core.ParseMonth("2024-03")
	list, err := repo.List(ctx, "me", m)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("expected row %d after reopen, got %+v", created.ID, list)
	}
	if got := core.FormatAmount(list[0].Amount); got != "₹1234.50" {
		t.Fatalf("amount = %s", got)
	}
}
