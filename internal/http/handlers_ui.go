package http

import (
	"bytes"
	"errors"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/view"
)

// choice is one <option> of a select input.
type choice struct {
	Value    string
	Label    string
	Selected bool
}

// trackerPage is the data behind the "tracker" template.
type trackerPage struct {
	view.Snapshot

	MonthValue string
	MonthLabel string
	PrevMonth  string
	NextMonth  string

	TypeChoices     []choice
	CategoryChoices []choice
	PaymentChoices  []choice
	BankChoices     []choice
	CardChoices     []choice
}

func newTrackerPage(snap view.Snapshot) trackerPage {
	d := snap.Draft
	p := trackerPage{
		Snapshot:   snap,
		MonthValue: snap.Month.String(),
		MonthLabel: snap.Month.Label(),
		PrevMonth:  snap.Month.Prev().String(),
		NextMonth:  snap.Month.Next().String(),
	}
	for _, t := range snap.Types {
		p.TypeChoices = append(p.TypeChoices, choice{Value: string(t.ID), Label: t.Name, Selected: string(t.ID) == d.Type})
	}
	for _, c := range snap.Categories {
		p.CategoryChoices = append(p.CategoryChoices, choice{Value: c, Label: c, Selected: c == d.Category})
	}
	for _, m := range core.PaymentMethods {
		p.PaymentChoices = append(p.PaymentChoices, choice{Value: string(m), Label: m.Name(), Selected: string(m) == d.PaymentMethod})
	}
	p.BankChoices = optionChoices(core.BankAccounts, d.BankAccount)
	p.CardChoices = optionChoices(core.CreditCards, d.CreditCard)
	return p
}

func optionChoices(opts []core.Option, selected string) []choice {
	out := make([]choice, 0, len(opts))
	for _, o := range opts {
		out = append(out, choice{Value: o.ID, Label: o.Name, Selected: o.ID == selected})
	}
	return out
}

// render executes a template with the session state and writes it through b.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, sess *view.Session, b *HTMXResponseBuilder) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, newTrackerPage(sess.Snapshot())); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			"template", name, "error", err)
		InternalServerError("Failed to render page").Write(w)
		return
	}
	b.Header("Content-Type", "text/html; charset=utf-8").Body(buf.Bytes()).Write(w)
}

func (s *Server) renderTracker(w http.ResponseWriter, r *http.Request, sess *view.Session, b *HTMXResponseBuilder) {
	s.render(w, r, "tracker", sess, b)
}

// handleIndex renders the full page for the current month.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.Context())
	_ = sess.Load(r.Context())
	s.render(w, r, "index.html", sess, NewHTMXResponse())
}

// handleTracker re-renders the tracker fragment after reloading the month.
func (s *Server) handleTracker(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.Context())
	_ = sess.Load(r.Context())
	s.renderTracker(w, r, sess, NewHTMXResponse())
}

// handleSelectMonth switches the tracker to ?month=YYYY-MM, or to the
// current month when none is given. Failures surface in the banner.
func (s *Server) handleSelectMonth(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.Context())
	month := r.URL.Query().Get("month")
	if m, err := MonthOrCurrent(r.URL.Query(), s.now()); err == nil {
		month = m.String()
	}
	_ = sess.SelectMonth(r.Context(), month)
	s.renderTracker(w, r, sess, NewHTMXResponse())
}

// handleDraft applies edits to the form without submitting, so conditional
// fields and category options follow the selected type and payment method.
func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.Context())
	if !s.applyForm(w, r, sess) {
		return
	}
	s.renderTracker(w, r, sess, NewHTMXResponse())
}

func (s *Server) applyForm(w http.ResponseWriter, r *http.Request, sess *view.Session) bool {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid form data").Write(w)
		return false
	}
	if err := sess.SetFields(parser.Values(view.FormFields)); err != nil {
		BadRequestError(core.UserMessage(core.OpCreate, err)).Write(w)
		return false
	}
	return true
}

// handleSubmit saves the form as a new transaction, or as an update of the
// row being edited.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.session(ctx)
	if !s.applyForm(w, r, sess) {
		return
	}

	op := core.OpCreate
	if sess.Snapshot().Editing() {
		op = core.OpUpdate
	}

	t, err := sess.Submit(ctx)
	switch {
	case errors.Is(err, view.ErrBusy):
		NewHTMXResponse().
			Status(http.StatusConflict).
			TriggerNotification(NotificationWarning, "Please wait for the current request to finish", 3000).
			Write(w)
		return
	case err != nil:
		s.logFailure(r, op, err, applog.NewFields())
		s.renderTracker(w, r, sess, NewHTMXResponse())
		return
	}

	s.committed(r, op, t)
	msg := "Transaction added"
	if op == core.OpUpdate {
		msg = "Transaction updated"
	}
	s.renderTracker(w, r, sess, NewHTMXResponse().
		TriggerTransactionsChanged(op, core.MonthOf(t.Date).String()).
		TriggerFormReset().
		TriggerSuccessNotification(msg))
}

// handleEdit loads a row of the current month into the form.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.Context())
	id, err := parseID(r)
	if err != nil {
		BadRequestError(core.UserMessage(core.OpUpdate, err)).Write(w)
		return
	}
	_ = sess.Edit(id)
	s.renderTracker(w, r, sess, NewHTMXResponse())
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.Context())
	sess.CancelEdit()
	s.renderTracker(w, r, sess, NewHTMXResponse())
}

func (s *Server) handleDismissBanner(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.Context())
	sess.DismissError()
	s.renderTracker(w, r, sess, NewHTMXResponse())
}

// handleDeleteFromUI deletes a row after the browser has confirmed it.
func (s *Server) handleDeleteFromUI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.session(ctx)
	id, err := parseID(r)
	if err != nil {
		BadRequestError(core.UserMessage(core.OpDelete, err)).Write(w)
		return
	}

	err = sess.Delete(ctx, id)
	switch {
	case errors.Is(err, view.ErrBusy):
		NewHTMXResponse().
			Status(http.StatusConflict).
			TriggerNotification(NotificationWarning, "Please wait for the current request to finish", 3000).
			Write(w)
		return
	case err != nil:
		s.logFailure(r, core.OpDelete, err, applog.NewFields().WithTransactionID(id))
		s.renderTracker(w, r, sess, NewHTMXResponse())
		return
	}

	s.countMutation(core.OpDelete)
	applog.FromContext(ctx).InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	s.renderTracker(w, r, sess, NewHTMXResponse().
		TriggerTransactionsChanged(core.OpDelete, sess.Snapshot().Month.String()).
		TriggerSuccessNotification("Transaction deleted"))
}

// uiRateLimited answers throttled UI requests with a toast instead of a
// JSON body the page could not display.
func (s *Server) uiRateLimited(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification("Too many requests. Please slow down.").
		Write(w)
}
