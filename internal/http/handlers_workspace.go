package http

import (
	"net/http"
	"time"

	"wemoney/internal/core"
)

type workspaceView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type membershipView struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

type workspaceResponse struct {
	Workspace  workspaceView    `json:"workspace"`
	Membership membershipView   `json:"membership"`
	Members    []membershipView `json:"members"`
}

func toWorkspaceView(ws core.Workspace, includeInvite bool) workspaceView {
	v := workspaceView{ID: ws.ID, Name: ws.Name, CreatedAt: ws.CreatedAt}
	if includeInvite {
		v.InviteCode = ws.InviteCode
	}
	return v
}

func toMembershipView(m core.Membership, currentUserID string) membershipView {
	return membershipView{
		ID:          m.ID,
		UserID:      m.UserID,
		DisplayName: core.ResolveDisplayName(m, currentUserID),
		JoinedAt:    m.JoinedAt,
	}
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	ws, membership, err := s.workspace.Resolve(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	members, err := s.workspace.Members(r.Context(), ws.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]membershipView, 0, len(members))
	for _, m := range members {
		views = append(views, toMembershipView(m, userID))
	}
	writeJSON(w, http.StatusOK, workspaceResponse{
		Workspace:  toWorkspaceView(ws, true),
		Membership: toMembershipView(membership, userID),
		Members:    views,
	})
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	ws, err := s.workspace.Create(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"workspace": toWorkspaceView(ws, true),
	})
}

func (s *Server) handleResolveInvite(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace.ResolveInvite(r.Context(), r.PathValue("code"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	// No invite code in the preview, only what the joiner needs to decide.
	writeJSON(w, http.StatusOK, map[string]any{
		"workspace": toWorkspaceView(ws, false),
	})
}

func (s *Server) handleJoinWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	userID := GetUserID(r.Context())
	ws, membership, err := s.workspace.Join(r.Context(), userID, req.Code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	members, err := s.workspace.Members(r.Context(), ws.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]membershipView, 0, len(members))
	for _, m := range members {
		views = append(views, toMembershipView(m, userID))
	}
	writeJSON(w, http.StatusCreated, workspaceResponse{
		Workspace:  toWorkspaceView(ws, true),
		Membership: toMembershipView(membership, userID),
		Members:    views,
	})
}

func (s *Server) handleSetDisplayName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.workspace.SetDisplayName(r.Context(), GetUserID(r.Context()), req.DisplayName); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
