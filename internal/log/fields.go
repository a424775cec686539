package log

import "fintrack/internal/core"

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldError         = "error"
	FieldErrorKind     = "error_kind"
	FieldOperation     = "operation"
	FieldOwner         = "owner"
	FieldMonth         = "month"
	FieldTransactionID = "transaction_id"
	FieldType          = "type"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldPaymentMethod = "payment_method"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentUI      = "ui"
	ComponentStorage = "storage"
	ComponentWorker  = "worker"
	ComponentBackend = "backend"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds the error message and its kind
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorKind] = core.KindOf(err)
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithOwner adds owner field
func (f LogFields) WithOwner(owner string) LogFields {
	f[FieldOwner] = owner
	return f
}

// WithMonth adds month field
func (f LogFields) WithMonth(month string) LogFields {
	f[FieldMonth] = month
	return f
}

// WithTransactionID adds the transaction id when known
func (f LogFields) WithTransactionID(id int64) LogFields {
	if id > 0 {
		f[FieldTransactionID] = id
	}
	return f
}

// WithTransaction adds the fields describing a stored transaction
func (f LogFields) WithTransaction(t core.Transaction) LogFields {
	f[FieldTransactionID] = t.ID
	f[FieldOwner] = t.Owner
	f[FieldType] = string(t.Type)
	f[FieldCategory] = t.Category
	f[FieldAmount] = t.Amount.String()
	f[FieldPaymentMethod] = string(t.PaymentMethod)
	f[FieldMonth] = core.MonthOf(t.Date).String()
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
