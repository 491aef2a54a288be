package amqp

import (
	"encoding/json"
	"time"
)

// Event types published on the expense exchange.
const (
	EventExpenseCreated = "expense.created"
	EventExpenseUpdated = "expense.updated"
	EventExpenseDeleted = "expense.deleted"
)

// ExpenseEvent is a lightweight notification that a ledger entry changed.
// It carries identifiers only; consumers fetch current state from the database.
type ExpenseEvent struct {
	Type        string `json:"type"`
	ExpenseID   string `json:"expense_id"`
	WorkspaceID string `json:"workspace_id"`
	Month       string `json:"month"` // YYYY-MM of the affected spending month
	// PreviousMonth is set on updates that move an expense across months,
	// so consumers refresh the month it left as well.
	PreviousMonth string    `json:"previous_month,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewExpenseEvent(eventType, expenseID, workspaceID, month string) *ExpenseEvent {
	return &ExpenseEvent{
		Type:        eventType,
		ExpenseID:   expenseID,
		WorkspaceID: workspaceID,
		Month:       month,
		Timestamp:   time.Now(),
	}
}

func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var event ExpenseEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
