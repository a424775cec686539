package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent announces a committed mutation. It carries identifiers
// only; consumers that need the row read it from the store.
type TransactionEvent struct {
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Month     string    `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event stamped with the current time.
func NewTransactionEvent(action string, id int64, owner, month string) *TransactionEvent {
	return &TransactionEvent{
		Action:    action,
		ID:        id,
		Owner:     owner,
		Month:     month,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Validate rejects events no producer in this module would emit.
func (e *TransactionEvent) Validate() error {
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	if e.ID <= 0 {
		return fmt.Errorf("invalid transaction id %d", e.ID)
	}
	return nil
}

// TransactionEventFromJSON decodes and validates an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
