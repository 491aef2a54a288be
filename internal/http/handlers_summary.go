package http

import (
	"net/http"

	"wemoney/internal/core"
)

type dayGroupView struct {
	Date     string        `json:"date"`
	Total    int64         `json:"total"`
	Expenses []expenseView `json:"expenses"`
}

type categoryTotalView struct {
	CategoryID string  `json:"category_id"`
	Name       string  `json:"name"`
	Emoji      string  `json:"emoji,omitempty"`
	Total      int64   `json:"total"`
	Share      float64 `json:"share"`
}

type payerTotalView struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Total       int64   `json:"total"`
	Share       float64 `json:"share"`
}

type summaryView struct {
	Month      string              `json:"month"`
	Total      int64               `json:"total"`
	Count      int                 `json:"count"`
	ByDay      []dayGroupView      `json:"by_day"`
	ByCategory []categoryTotalView `json:"by_category"`
	ByPayer    []payerTotalView    `json:"by_payer"`
}

func toSummaryView(s core.MonthSummary) summaryView {
	view := summaryView{
		Month:      s.Month.String(),
		Total:      s.Total,
		Count:      s.Count,
		ByDay:      make([]dayGroupView, 0, len(s.ByDay)),
		ByCategory: make([]categoryTotalView, 0, len(s.ByCategory)),
		ByPayer:    make([]payerTotalView, 0, len(s.ByPayer)),
	}
	for _, day := range s.ByDay {
		expenses := make([]expenseView, 0, len(day.Expenses))
		for _, e := range day.Expenses {
			expenses = append(expenses, toExpenseView(e))
		}
		view.ByDay = append(view.ByDay, dayGroupView{
			Date:     day.Date.String(),
			Total:    day.Total,
			Expenses: expenses,
		})
	}
	for _, ct := range s.ByCategory {
		view.ByCategory = append(view.ByCategory, categoryTotalView{
			CategoryID: ct.CategoryID,
			Name:       ct.Name,
			Emoji:      ct.Emoji,
			Total:      ct.Total,
			Share:      ct.Share,
		})
	}
	for _, pt := range s.ByPayer {
		view.ByPayer = append(view.ByPayer, payerTotalView{
			UserID:      pt.UserID,
			DisplayName: pt.DisplayName,
			Total:       pt.Total,
			Share:       pt.Share,
		})
	}
	return view
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, ok := monthFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_error", "month must be YYYY-MM", nil)
		return
	}

	summary, err := s.summary.MonthSummary(r.Context(), GetWorkspaceID(r.Context()), month, GetUserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryView(summary))
}
