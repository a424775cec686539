package adapters

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/view"
)

// ServiceAPI adapts TransactionService to view.API for one owner, so the
// server-rendered UI drives the same code path as the JSON endpoints
// without a network hop.
type ServiceAPI struct {
	service *services.TransactionService
	owner   string
}

var _ view.API = (*ServiceAPI)(nil)

func NewServiceAPI(service *services.TransactionService, owner string) *ServiceAPI {
	return &ServiceAPI{
		service: service,
		owner:   owner,
	}
}

// Owner returns the owner every call is scoped to.
func (a *ServiceAPI) Owner() string {
	return a.owner
}

func (a *ServiceAPI) List(ctx context.Context, month string) ([]core.Transaction, error) {
	return a.service.ListTransactions(ctx, a.owner, month)
}

func (a *ServiceAPI) Create(ctx context.Context, in core.Input) (core.Transaction, error) {
	return a.service.CreateTransaction(ctx, a.owner, in, "")
}

func (a *ServiceAPI) Update(ctx context.Context, id int64, in core.Input) (core.Transaction, error) {
	return a.service.UpdateTransaction(ctx, a.owner, id, in)
}

func (a *ServiceAPI) Delete(ctx context.Context, id int64) error {
	return a.service.DeleteTransaction(ctx, a.owner, id)
}
