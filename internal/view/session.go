package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
)

// ErrBusy is returned when a mutation is attempted while another request
// is still in flight.
var ErrBusy = errors.New("a request is already in progress")

// Session is the state behind one tracker page. It is safe for concurrent
// use; network calls run without holding the lock so snapshots taken
// meanwhile report Busy.
type Session struct {
	api API
	now func() time.Time

	mu        sync.Mutex
	month     core.Month
	txs       []core.Transaction
	draft     Draft
	editingID int64
	busy      bool
	loading   bool
	lastErr   string
}

// NewSession starts on the current month with an empty draft. now may be
// nil, in which case time.Now is used.
func NewSession(api API, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Session{
		api:   api,
		now:   now,
		month: core.CurrentMonth(t),
		draft: NewDraft(t),
	}
}

// Snapshot is a consistent copy of the session state with everything the
// page derives from it.
type Snapshot struct {
	Month        core.Month
	Transactions []core.Transaction
	Rows         []Row
	Totals       core.Totals
	Summary      []SummaryItem
	Draft        Draft
	Fields       Visibility
	Categories   []string
	Types        []core.TypeOption
	EditingID    int64
	Busy         bool
	Loading      bool
	Error        string
}

// Editing reports whether the form is bound to an existing row.
func (s Snapshot) Editing() bool {
	return s.EditingID != 0
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := append([]core.Transaction(nil), s.txs...)
	totals := core.Summarize(txs)
	return Snapshot{
		Month:        s.month,
		Transactions: txs,
		Rows:         Rows(txs),
		Totals:       totals,
		Summary:      Summary(totals),
		Draft:        s.draft,
		Fields:       s.draft.VisibleFields(),
		Categories:   s.draft.CategoryOptions(),
		Types:        s.draft.TypeOptions(),
		EditingID:    s.editingID,
		Busy:         s.busy,
		Loading:      s.loading,
		Error:        s.lastErr,
	}
}

// Load fetches the selected month. On failure the previous list stays in
// place and the error is kept for display.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	m := s.month
	s.loading = true
	s.mu.Unlock()

	txs, err := s.fetch(ctx, m)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = core.UserMessage(core.OpList, err)
		return err
	}
	if s.month == m {
		s.txs = txs
	}
	return nil
}

// SelectMonth switches to a "YYYY-MM" month and loads it. The switch only
// takes effect once the load succeeds.
func (s *Session) SelectMonth(ctx context.Context, month string) error {
	m, err := core.ParseMonth(month)
	if err != nil {
		s.setError(core.OpList, err)
		return err
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	txs, err := s.fetch(ctx, m)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = core.UserMessage(core.OpList, err)
		return err
	}
	s.month = m
	s.txs = txs
	return nil
}

func (s *Session) fetch(ctx context.Context, m core.Month) ([]core.Transaction, error) {
	txs, err := s.api.List(ctx, m.String())
	if err != nil {
		slog.WarnContext(ctx, "Failed to load transactions", "month", m.String(), "error", err)
		return nil, err
	}
	txs = InMonth(txs, m)
	SortByDateDesc(txs)
	return txs, nil
}

// SetField updates one draft field.
func (s *Session) SetField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.draft.Set(field, value)
	if err != nil {
		return err
	}
	s.draft = d
	return nil
}

// SetFields applies several fields at once, type first so a category
// submitted alongside a new type is checked against that type.
func (s *Session) SetFields(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	var err error
	if v, ok := values[FieldType]; ok {
		if d, err = d.Set(FieldType, v); err != nil {
			return err
		}
	}
	for _, f := range FormFields {
		v, ok := values[f]
		if !ok || f == FieldType {
			continue
		}
		if f == FieldCategory && v != "" && !core.CategoryAllowed(core.Type(d.Type), v) {
			v = ""
		}
		if d, err = d.Set(f, v); err != nil {
			return err
		}
	}
	s.draft = d
	return nil
}

// Edit loads row id of the current list into the form.
func (s *Session) Edit(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.ID == id {
			s.draft = DraftFrom(t)
			s.editingID = id
			return nil
		}
	}
	err := fmt.Errorf("edit %d: %w", id, core.ErrNotFound)
	s.lastErr = core.UserMessage(core.OpUpdate, err)
	return err
}

// CancelEdit leaves edit mode and resets the form.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editingID = 0
	s.draft = NewDraft(s.now())
}

// Submit creates a new transaction or updates the one being edited, then
// reloads the month. On failure the draft is left untouched.
func (s *Session) Submit(ctx context.Context) (core.Transaction, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return core.Transaction{}, ErrBusy
	}
	draft, editingID := s.draft, s.editingID
	op := core.OpCreate
	if editingID != 0 {
		op = core.OpUpdate
	}
	in, err := draft.Input()
	if err != nil {
		s.lastErr = core.UserMessage(op, err)
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.busy = true
	s.mu.Unlock()

	var t core.Transaction
	if editingID != 0 {
		t, err = s.api.Update(ctx, editingID, in)
	} else {
		t, err = s.api.Create(ctx, in)
	}

	s.mu.Lock()
	s.busy = false
	if err != nil {
		s.lastErr = core.UserMessage(op, err)
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.editingID = 0
	s.draft = NewDraft(s.now())
	s.lastErr = ""
	s.mu.Unlock()

	// The response is not merged locally; the store is the source of truth.
	_ = s.Load(ctx)
	return t, nil
}

// Delete removes a transaction and reloads the month.
func (s *Session) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.mu.Unlock()

	err := s.api.Delete(ctx, id)

	s.mu.Lock()
	s.busy = false
	if err != nil {
		s.lastErr = core.UserMessage(core.OpDelete, err)
		s.mu.Unlock()
		return err
	}
	if s.editingID == id {
		s.editingID = 0
		s.draft = NewDraft(s.now())
	}
	s.lastErr = ""
	s.mu.Unlock()

	_ = s.Load(ctx)
	return nil
}

// DismissError clears the banner.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

func (s *Session) setError(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = core.UserMessage(op, err)
}
