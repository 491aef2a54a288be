// Package http exposes the JSON API over a stdlib net/http server.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"wemoney/internal/auth"
	"wemoney/internal/metrics"
	"wemoney/internal/services"
	"wemoney/internal/storage"
)

type Server struct {
	http.Server

	authenticator *auth.PasswordAuthenticator
	jwtManager    *auth.JWTManager
	workspace     *services.WorkspaceService
	categories    *services.CategoryService
	ledger        *services.LedgerService
	summary       *services.SummaryService
	storage       *storage.SQLiteRepository
	metrics       *metrics.Metrics

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Deps carries everything the server needs, so tests can swap parts.
type Deps struct {
	Authenticator *auth.PasswordAuthenticator
	JWTManager    *auth.JWTManager
	Workspace     *services.WorkspaceService
	Categories    *services.CategoryService
	Ledger        *services.LedgerService
	Summary       *services.SummaryService
	Storage       *storage.SQLiteRepository
	Metrics       *metrics.Metrics
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		authenticator: deps.Authenticator,
		jwtManager:    deps.JWTManager,
		workspace:     deps.Workspace,
		categories:    deps.Categories,
		ledger:        deps.Ledger,
		summary:       deps.Summary,
		storage:       deps.Storage,
		metrics:       deps.Metrics,
		rateLimiter:   newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Identity endpoints are public, everything else sits behind the
	// token gate, and workspace-scoped routes additionally require a
	// resolved membership.
	mux.HandleFunc("POST /v1/auth/signup", s.wrap("/v1/auth/signup", s.handleSignup))
	mux.HandleFunc("POST /v1/auth/signin", s.wrap("/v1/auth/signin", s.handleSignin))
	mux.HandleFunc("POST /v1/auth/signout", s.wrap("/v1/auth/signout", s.requireAuth(s.handleSignout)))

	mux.HandleFunc("GET /v1/workspace", s.wrap("/v1/workspace", s.requireAuth(s.handleGetWorkspace)))
	mux.HandleFunc("POST /v1/workspace", s.wrap("/v1/workspace", s.requireAuth(s.handleCreateWorkspace)))
	mux.HandleFunc("GET /v1/invites/{code}", s.wrap("/v1/invites/{code}", s.requireAuth(s.handleResolveInvite)))
	mux.HandleFunc("POST /v1/workspace/join", s.wrap("/v1/workspace/join", s.requireAuth(s.handleJoinWorkspace)))
	mux.HandleFunc("PUT /v1/me/display-name", s.wrap("/v1/me/display-name", s.requireAuth(s.handleSetDisplayName)))

	mux.HandleFunc("GET /v1/categories", s.wrap("/v1/categories", s.requireWorkspace(s.handleListCategories)))
	mux.HandleFunc("POST /v1/categories", s.wrap("/v1/categories", s.requireWorkspace(s.handleCreateCategory)))
	mux.HandleFunc("DELETE /v1/categories/{id}", s.wrap("/v1/categories/{id}", s.requireWorkspace(s.handleDeleteCategory)))

	mux.HandleFunc("GET /v1/expenses", s.wrap("/v1/expenses", s.requireWorkspace(s.handleListExpenses)))
	mux.HandleFunc("POST /v1/expenses", s.wrap("/v1/expenses", s.requireWorkspace(s.handleCreateExpense)))
	mux.HandleFunc("PATCH /v1/expenses/{id}", s.wrap("/v1/expenses/{id}", s.requireWorkspace(s.handleUpdateExpense)))
	mux.HandleFunc("DELETE /v1/expenses/{id}", s.wrap("/v1/expenses/{id}", s.requireWorkspace(s.handleDeleteExpense)))

	mux.HandleFunc("GET /v1/summary", s.wrap("/v1/summary", s.requireWorkspace(s.handleSummary)))

	return s
}

// Shutdown stops the listener and the rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.storage == nil || s.storage.Ping(ctx) != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
