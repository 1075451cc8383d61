// Package handler exposes login, logout and session restore over JSON.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cashwallet/internal/session/models"
	"cashwallet/internal/session/service"
	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/platform/httputil"
	"cashwallet/pkg/platform/middleware/auth"
	"cashwallet/pkg/requestcontext"
)

type Service interface {
	Login(ctx context.Context, req models.LoginRequest) (models.Grant, error)
	Current(ctx context.Context, token string) (service.Current, error)
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, token string) (int, error)
}

type Handler struct {
	sessions Service
	logger   *slog.Logger
}

func New(sessions Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sessions: sessions, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/login", h.HandleLogin)
	r.Post("/api/auth/logout", h.HandleLogout)
	r.Post("/api/auth/logout-all", h.HandleLogoutAll)
	r.Get("/api/auth/me", h.HandleMe)
}

// HandleLogin signs an account in.
//
// Input: { "email": "jane@example.com", "password": "..." }
// Output: 200 { "access_token", "token_type", "expires_at", "account_id" }
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger)
	if !ok {
		return
	}
	grant, err := h.sessions.Login(r.Context(), *req)
	if err != nil {
		h.writeError(w, r, "login failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, grant)
}

// HandleLogout ends the current session. 204 on success.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Logout(r.Context(), token); err != nil {
		h.writeError(w, r, "logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogoutAll ends every session of the signed-in account.
func (h *Handler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	n, err := h.sessions.LogoutAll(r.Context(), token)
	if err != nil {
		h.writeError(w, r, "logout all failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"ended": n})
}

// HandleMe restores the session behind the bearer token, as done by clients at start-up.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	current, err := h.sessions.Current(r.Context(), token)
	if err != nil {
		h.writeError(w, r, "restore session failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, current)
}

func (h *Handler) bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := auth.BearerToken(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
		return "", false
	}
	return token, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}
