package http

import (
	"net/http"
	"time"

	"wemoney/internal/core"
)

type categoryView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Emoji     string    `json:"emoji,omitempty"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

func toCategoryView(c core.Category) categoryView {
	return categoryView{
		ID:        c.ID,
		Name:      c.Name,
		Emoji:     c.Emoji,
		IsDefault: c.IsDefault,
		CreatedAt: c.CreatedAt,
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.List(r.Context(), GetWorkspaceID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		views = append(views, toCategoryView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": views})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Emoji string `json:"emoji"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cat, err := s.categories.Add(r.Context(), GetWorkspaceID(r.Context()), req.Name, req.Emoji, GetUserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"category": toCategoryView(cat)})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.categories.Delete(r.Context(), GetWorkspaceID(r.Context()), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
