package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"wemoney/internal/auth"
	"wemoney/internal/core"
	"wemoney/internal/log"
)

type errorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, errorBody{Error: code, Message: message, Details: details})
}

// respondError maps domain errors onto the API's error taxonomy.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var inUse *core.InUseError
	switch {
	case errors.Is(err, core.ErrNoWorkspace):
		writeError(w, http.StatusNotFound, "no_workspace", "no workspace yet, create or join one", nil)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found", nil)
	case errors.Is(err, core.ErrAlreadyMember):
		writeError(w, http.StatusConflict, "already_member", "user already belongs to a workspace", nil)
	case errors.As(err, &inUse):
		writeError(w, http.StatusConflict, "category_in_use", err.Error(),
			map[string]any{"count": inUse.Count})
	case errors.Is(err, auth.ErrEmailExists):
		writeError(w, http.StatusConflict, "email_exists", err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "not_authenticated", err.Error(), nil)
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyCategoryName),
		errors.Is(err, core.ErrEmptyDisplayName),
		errors.Is(err, core.ErrEmptySpender),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrWorkspaceMismatch):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "store_error", "internal error", nil)
	}
}

// decodeBody parses a JSON request body into dst, limited to 64 KiB.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "malformed request body", nil)
		return false
	}
	return true
}
