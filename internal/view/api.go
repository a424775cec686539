// Package view holds the client-side state of the tracker: the loaded
// month, the entry form draft, edit mode and the derived summary. It talks
// to the transaction endpoints through API and renders nothing itself.
package view

import (
	"context"

	"fintrack/internal/core"
)

// API is the transaction surface the view layer depends on. The REST
// client and the in-process adapter both implement it.
type API interface {
	List(ctx context.Context, month string) ([]core.Transaction, error)
	Create(ctx context.Context, in core.Input) (core.Transaction, error)
	Update(ctx context.Context, id int64, in core.Input) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
}
