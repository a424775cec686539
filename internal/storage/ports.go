package storage

import (
	"context"

	"fintrack/internal/core"
)

// Ports implemented by every transaction store.
type (
	TransactionLister interface {
		// List returns the owner's transactions dated within m, newest first.
		List(ctx context.Context, owner string, m core.Month) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		Create(ctx context.Context, owner string, in core.Input) (core.Transaction, error)
		// Update replaces every editable field. It fails with core.ErrNotFound
		// when no row matches both id and owner.
		Update(ctx context.Context, owner string, id int64, in core.Input) (core.Transaction, error)
		Delete(ctx context.Context, owner string, id int64) error
	}

	// Repository is the full store used by the service layer.
	Repository interface {
		TransactionLister
		TransactionWriter
		Ping(ctx context.Context) error
		Close() error
	}
)
