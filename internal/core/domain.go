package core

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Expense       Type = "expense"
	Lent          Type = "lent"
	Borrowed      Type = "borrowed"
	Received      Type = "received"
	Reimbursement Type = "reimbursement"
	Shared        Type = "shared"
	Salary        Type = "salary"
	Investment    Type = "investment"
	OtherIncome   Type = "other_income"
)

const (
	Cash   PaymentMethod = "cash"
	Bank   PaymentMethod = "bank"
	Credit PaymentMethod = "credit"
	UPI    PaymentMethod = "upi"
)

// Length limits in characters, matching the narrowest storage columns.
const (
	MaxCategoryLength    = 100
	MaxPersonLength      = 100
	MaxDescriptionLength = 500
)

// DateLayout is the wire and storage format of Date.
const DateLayout = "2006-01-02"

type (
	// Type is the transaction kind; direction of money is carried here,
	// never by the sign of the amount.
	Type string

	PaymentMethod string

	Date struct {
		time.Time
	}

	// Transaction is a persisted row.
	Transaction struct {
		ID            int64           `json:"id"`
		Owner         string          `json:"owner"`
		Date          Date            `json:"date"`
		Type          Type            `json:"type"`
		Category      string          `json:"category"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		BankAccount   *string         `json:"bankAccount"`
		CreditCard    *string         `json:"creditCard"`
		Person        *string         `json:"person"`
		Description   *string         `json:"description"`
		CreatedAt     time.Time       `json:"timestamp"`
	}

	// Input is the editable part of a transaction, shared by create and update.
	Input struct {
		Date          Date            `json:"date"`
		Type          Type            `json:"type"`
		Category      string          `json:"category"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		BankAccount   *string         `json:"bankAccount,omitempty"`
		CreditCard    *string         `json:"creditCard,omitempty"`
		Person        *string         `json:"person,omitempty"`
		Description   *string         `json:"description,omitempty"`
	}
)

// Valid reports whether t is one of the known transaction types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// RequiresPerson reports whether t needs a counterparty name.
func (t Type) RequiresPerson() bool {
	switch t {
	case Lent, Borrowed, Shared, Reimbursement:
		return true
	}
	return false
}

// Name is the display name of t, or the raw value for unknown types.
func (t Type) Name() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return string(t)
}

func (m PaymentMethod) Valid() bool {
	_, ok := paymentMethodNames[m]
	return ok
}

func (m PaymentMethod) Name() string {
	if n, ok := paymentMethodNames[m]; ok {
		return n
	}
	return string(m)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD and full RFC 3339 timestamps. Only the
// calendar date of a timestamp is kept, in the zone it was written in.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, InvalidArgument("invalid date %q: expected YYYY-MM-DD", s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return InvalidArgument("date is required")
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return InvalidArgument("date must be a string")
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalJSON decodes an input body. The amount is required: an absent
// or null amount is rejected instead of defaulting to zero, and it may be
// sent as a JSON number or a string.
func (in *Input) UnmarshalJSON(b []byte) error {
	type plain Input
	var body struct {
		plain
		Amount json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		return err
	}
	amount, err := decodeAmount(body.Amount)
	if err != nil {
		return err
	}
	*in = Input(body.plain)
	in.Amount = amount
	return nil
}

func decodeAmount(raw json.RawMessage) (decimal.Decimal, error) {
	v := strings.TrimSpace(string(raw))
	switch {
	case v == "" || v == "null":
		return decimal.Zero, InvalidArgument("amount is required")
	case v[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, InvalidArgument("invalid amount %s", v)
		}
		return ParseAmount(s)
	case v[0] == '-' || (v[0] >= '0' && v[0] <= '9'):
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, InvalidArgument("invalid amount %s", v)
		}
		return d, nil
	default:
		return decimal.Zero, InvalidArgument("invalid amount %s", v)
	}
}

// Input returns the editable fields of t.
func (t Transaction) Input() Input {
	return Input{
		Date:          t.Date,
		Type:          t.Type,
		Category:      t.Category,
		Amount:        t.Amount,
		PaymentMethod: t.PaymentMethod,
		BankAccount:   t.BankAccount,
		CreditCard:    t.CreditCard,
		Person:        t.Person,
		Description:   t.Description,
	}
}

// Normalize trims text fields, turns blank optionals into nil and drops the
// conditional fields that do not apply to the type and payment method.
func (in Input) Normalize() Input {
	in.Type = Type(strings.TrimSpace(string(in.Type)))
	in.PaymentMethod = PaymentMethod(strings.TrimSpace(string(in.PaymentMethod)))
	in.Category = strings.TrimSpace(in.Category)
	in.BankAccount = optional(in.BankAccount)
	in.CreditCard = optional(in.CreditCard)
	in.Person = optional(in.Person)
	in.Description = optional(in.Description)

	if in.PaymentMethod != Bank {
		in.BankAccount = nil
	}
	if in.PaymentMethod != Credit {
		in.CreditCard = nil
	}
	if !in.Type.RequiresPerson() {
		in.Person = nil
	}
	return in
}

// Validate checks a normalized input.
func (in Input) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return InvalidArgument("unknown transaction type %q", in.Type)
	}
	if !in.PaymentMethod.Valid() {
		return InvalidArgument("unknown payment method %q", in.PaymentMethod)
	}
	if err := ValidateAmount(in.Amount); err != nil {
		return err
	}
	if in.Category == "" {
		return InvalidArgument("category is required")
	}
	if utf8.RuneCountInString(in.Category) > MaxCategoryLength {
		return InvalidArgument("category too long (max %d characters)", MaxCategoryLength)
	}
	if !CategoryAllowed(in.Type, in.Category) {
		return InvalidArgument("category %q is not allowed for type %q", in.Category, in.Type)
	}
	if in.Type.RequiresPerson() && in.Person == nil {
		return InvalidArgument("person is required for type %q", in.Type)
	}
	if in.Person != nil && utf8.RuneCountInString(*in.Person) > MaxPersonLength {
		return InvalidArgument("person too long (max %d characters)", MaxPersonLength)
	}
	if in.PaymentMethod == Bank && in.BankAccount == nil {
		return InvalidArgument("bank account is required for payment method %q", Bank)
	}
	if in.BankAccount != nil && !optionKnown(BankAccounts, *in.BankAccount) {
		return InvalidArgument("unknown bank account %q", *in.BankAccount)
	}
	if in.PaymentMethod == Credit && in.CreditCard == nil {
		return InvalidArgument("credit card is required for payment method %q", Credit)
	}
	if in.CreditCard != nil && !optionKnown(CreditCards, *in.CreditCard) {
		return InvalidArgument("unknown credit card %q", *in.CreditCard)
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > MaxDescriptionLength {
		return InvalidArgument("description too long (max %d characters)", MaxDescriptionLength)
	}
	return nil
}

// PaymentLabel renders the payment method with the card name when one is set.
func (t Transaction) PaymentLabel() string {
	label := t.PaymentMethod.Name()
	if t.CreditCard != nil {
		label += " - " + CreditCardName(*t.CreditCard)
	}
	return label
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Ptr returns a pointer to a copy of s.
func Ptr(s string) *string {
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
