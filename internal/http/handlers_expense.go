package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"wemoney/internal/core"
)

type expenseView struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Amount     int64     `json:"amount"`
	Memo       string    `json:"memo,omitempty"`
	SpentAt    string    `json:"spent_at"`
	SpentBy    string    `json:"spent_by"`
	RecordedBy string    `json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func toExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:         e.ID,
		CategoryID: e.CategoryID,
		Amount:     e.Amount,
		Memo:       e.Memo,
		SpentAt:    e.SpentAt.String(),
		SpentBy:    e.SpentBy,
		RecordedBy: e.RecordedBy,
		CreatedAt:  e.CreatedAt,
	}
}

// monthFromQuery parses ?month=YYYY-MM, defaulting to the current month.
func monthFromQuery(r *http.Request) (core.Month, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		return core.CurrentMonth(), true
	}
	month, err := core.ParseMonth(raw)
	if err != nil {
		return core.Month{}, false
	}
	return month, true
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	month, ok := monthFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_error", "month must be YYYY-MM", nil)
		return
	}

	filter := core.ExpenseFilter{
		CategoryID: strings.TrimSpace(r.URL.Query().Get("category_id")),
		SpentBy:    strings.TrimSpace(r.URL.Query().Get("spent_by")),
	}
	expenses, err := s.ledger.Query(r.Context(), GetWorkspaceID(r.Context()), month, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, toExpenseView(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":    month.String(),
		"expenses": views,
	})
}

// amountField accepts a JSON number or a grouped string like "15,000",
// the two shapes clients send for amounts.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = amountField(n)
	return nil
}

type expenseRequest struct {
	CategoryID string      `json:"category_id"`
	Amount     amountField `json:"amount"`
	Memo       string      `json:"memo"`
	SpentAt    string      `json:"spent_at"`
	SpentBy    string      `json:"spent_by"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		respondError(w, r, err)
		return
	}
	spentAt, err := core.ParseDate(req.SpentAt)
	if err != nil {
		respondError(w, r, core.ErrInvalidDate)
		return
	}

	userID := GetUserID(r.Context())
	spentBy := strings.TrimSpace(req.SpentBy)
	if spentBy == "" {
		spentBy = userID
	}

	expense, err := s.ledger.Add(r.Context(), core.Expense{
		WorkspaceID: GetWorkspaceID(r.Context()),
		CategoryID:  req.CategoryID,
		Amount:      amount,
		Memo:        strings.TrimSpace(req.Memo),
		SpentAt:     spentAt,
		SpentBy:     spentBy,
		RecordedBy:  userID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if s.metrics != nil {
		s.metrics.ExpenseRecorded()
	}
	writeJSON(w, http.StatusCreated, map[string]any{"expense": toExpenseView(expense)})
}

type expensePatchRequest struct {
	CategoryID *string      `json:"category_id"`
	Amount     *amountField `json:"amount"`
	Memo       *string      `json:"memo"`
	SpentAt    *string      `json:"spent_at"`
	SpentBy    *string      `json:"spent_by"`
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expensePatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := core.ExpensePatch{
		CategoryID: req.CategoryID,
		Memo:       req.Memo,
		SpentBy:    req.SpentBy,
	}
	if req.Amount != nil {
		amount, err := core.ParseAmount(string(*req.Amount))
		if err != nil {
			respondError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if req.SpentAt != nil {
		spentAt, err := core.ParseDate(*req.SpentAt)
		if err != nil {
			respondError(w, r, core.ErrInvalidDate)
			return
		}
		patch.SpentAt = &spentAt
	}

	expense, err := s.ledger.Update(r.Context(), GetWorkspaceID(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expense": toExpenseView(expense)})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Delete(r.Context(), GetWorkspaceID(r.Context()), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
