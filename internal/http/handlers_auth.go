package http

import (
	"net/http"
	"strings"

	"wemoney/internal/core"
)

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "validation_error", "valid email required", nil)
		return
	}

	user, err := s.authenticator.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.respondWithToken(w, r, user, http.StatusCreated)
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.authenticator.Authenticate(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.respondWithToken(w, r, user, http.StatusOK)
}

// Tokens are stateless, signout just acknowledges so clients can drop theirs.
func (s *Server) handleSignout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondWithToken(w http.ResponseWriter, r *http.Request, user core.User, status int) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, status, authResponse{
		Token: token,
		User:  userView{ID: user.ID, Email: user.Email},
	})
}
