package view

import (
	"time"

	"fintrack/internal/core"
)

// Form field names, as submitted by the entry form.
const (
	FieldDate          = "date"
	FieldType          = "type"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldPaymentMethod = "paymentMethod"
	FieldBankAccount   = "bankAccount"
	FieldCreditCard    = "creditCard"
	FieldPerson        = "person"
	FieldDescription   = "description"
)

// FormFields lists every editable field in form order.
var FormFields = []string{
	FieldDate, FieldType, FieldCategory, FieldAmount, FieldPaymentMethod,
	FieldBankAccount, FieldCreditCard, FieldPerson, FieldDescription,
}

// Draft is the in-progress form, kept as raw strings so a failed submit
// never loses what the user typed.
type Draft struct {
	Date          string
	Type          string
	Category      string
	Amount        string
	PaymentMethod string
	BankAccount   string
	CreditCard    string
	Person        string
	Description   string
}

// NewDraft returns an empty expense paid in cash, dated today.
func NewDraft(today time.Time) Draft {
	return Draft{
		Date:          today.Format(core.DateLayout),
		Type:          string(core.Expense),
		PaymentMethod: string(core.Cash),
	}
}

// DraftFrom loads an existing transaction into the form.
func DraftFrom(t core.Transaction) Draft {
	return Draft{
		Date:          t.Date.String(),
		Type:          string(t.Type),
		Category:      t.Category,
		Amount:        t.Amount.String(),
		PaymentMethod: string(t.PaymentMethod),
		BankAccount:   core.Deref(t.BankAccount),
		CreditCard:    core.Deref(t.CreditCard),
		Person:        core.Deref(t.Person),
		Description:   core.Deref(t.Description),
	}
}

// Get returns the value of a named field.
func (d Draft) Get(field string) string {
	switch field {
	case FieldDate:
		return d.Date
	case FieldType:
		return d.Type
	case FieldCategory:
		return d.Category
	case FieldAmount:
		return d.Amount
	case FieldPaymentMethod:
		return d.PaymentMethod
	case FieldBankAccount:
		return d.BankAccount
	case FieldCreditCard:
		return d.CreditCard
	case FieldPerson:
		return d.Person
	case FieldDescription:
		return d.Description
	}
	return ""
}

// Set assigns a named field. Changing the type clears a category the new
// type does not allow.
func (d Draft) Set(field, value string) (Draft, error) {
	switch field {
	case FieldDate:
		d.Date = value
	case FieldType:
		d.Type = value
		if d.Category != "" && !core.CategoryAllowed(core.Type(value), d.Category) {
			d.Category = ""
		}
	case FieldCategory:
		d.Category = value
	case FieldAmount:
		d.Amount = value
	case FieldPaymentMethod:
		d.PaymentMethod = value
	case FieldBankAccount:
		d.BankAccount = value
	case FieldCreditCard:
		d.CreditCard = value
	case FieldPerson:
		d.Person = value
	case FieldDescription:
		d.Description = value
	default:
		return d, core.InvalidArgument("unknown form field %q", field)
	}
	return d, nil
}

// Input parses the draft. Hidden conditional fields are dropped.
func (d Draft) Input() (core.Input, error) {
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Input{}, err
	}
	amount, err := core.ParseAmount(d.Amount)
	if err != nil {
		return core.Input{}, err
	}
	in := core.Input{
		Date:          date,
		Type:          core.Type(d.Type),
		Category:      d.Category,
		Amount:        amount,
		PaymentMethod: core.PaymentMethod(d.PaymentMethod),
		BankAccount:   core.Ptr(d.BankAccount),
		CreditCard:    core.Ptr(d.CreditCard),
		Person:        core.Ptr(d.Person),
		Description:   core.Ptr(d.Description),
	}.Normalize()
	return in, in.Validate()
}

// Visibility says which conditional inputs the form shows.
type Visibility struct {
	Person      bool
	BankAccount bool
	CreditCard  bool
}

// VisibleFields derives the conditional inputs from the draft.
func (d Draft) VisibleFields() Visibility {
	return Visibility{
		Person:      core.Type(d.Type).RequiresPerson(),
		BankAccount: core.PaymentMethod(d.PaymentMethod) == core.Bank,
		CreditCard:  core.PaymentMethod(d.PaymentMethod) == core.Credit,
	}
}

// CategoryOptions are the categories offered for the draft's type.
func (d Draft) CategoryOptions() []string {
	return core.AllowedCategories(core.Type(d.Type))
}

// TypeOptions are the offered types, plus the draft's own type when it is a
// legacy value, so editing an old row never silently changes its type.
func (d Draft) TypeOptions() []core.TypeOption {
	var out []core.TypeOption
	found := false
	for _, t := range core.OfferedTypes {
		out = append(out, core.TypeOption{ID: t, Name: t.Name(), Offered: true, Income: t.IsIncome()})
		if string(t) == d.Type {
			found = true
		}
	}
	if !found && core.Type(d.Type).Valid() {
		t := core.Type(d.Type)
		out = append(out, core.TypeOption{ID: t, Name: t.Name(), Income: t.IsIncome()})
	}
	return out
}
