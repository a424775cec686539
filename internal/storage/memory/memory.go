// Package memory is an in-process transaction store for development and
// tests. Data does not survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Transaction
	now    func() time.Time
}

func New() *Store {
	return &Store{items: map[int64]core.Transaction{}, now: time.Now}
}

// Seed inserts transactions as-is, assigning ids to rows that have none.
func (s *Store) Seed(txs ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txs {
		if t.ID == 0 {
			s.nextID++
			t.ID = s.nextID
		} else if t.ID > s.nextID {
			s.nextID = t.ID
		}
		s.items[t.ID] = t
	}
}

func (s *Store) List(_ context.Context, owner string, m core.Month) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Transaction{}
	for _, t := range s.items {
		if t.Owner == owner && m.Contains(t.Date) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) Create(_ context.Context, owner string, in core.Input) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := fromInput(s.nextID, owner, in, s.now().UTC())
	s.items[t.ID] = t
	return t, nil
}

func (s *Store) Update(_ context.Context, owner string, id int64, in core.Input) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.items[id]
	if !ok || old.Owner != owner {
		return core.Transaction{}, fmt.Errorf("update %d: %w", id, core.ErrNotFound)
	}
	t := fromInput(id, owner, in, old.CreatedAt)
	s.items[id] = t
	return t, nil
}

func (s *Store) Delete(_ context.Context, owner string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.items[id]
	if !ok || old.Owner != owner {
		return fmt.Errorf("delete %d: %w", id, core.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func fromInput(id int64, owner string, in core.Input, created time.Time) core.Transaction {
	return core.Transaction{
		ID:            id,
		Owner:         owner,
		Date:          in.Date,
		Type:          in.Type,
		Category:      in.Category,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		BankAccount:   clone(in.BankAccount),
		CreditCard:    clone(in.CreditCard),
		Person:        clone(in.Person),
		Description:   clone(in.Description),
		CreatedAt:     created,
	}
}

func clone(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
