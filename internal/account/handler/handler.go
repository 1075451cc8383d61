// Package handler exposes account creation and the account profile over JSON.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cashwallet/internal/account/models"
	"cashwallet/pkg/domain"
	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/platform/httputil"
	"cashwallet/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, req models.CreateRequest) (models.CreateResult, error)
	Get(ctx context.Context, accountID domain.AccountID) (models.AccountView, error)
}

type Handler struct {
	accounts Service
	logger   *slog.Logger
}

func New(accounts Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{accounts: accounts, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/register", h.HandleCreate)
}

// RegisterAuthenticated mounts routes that need a session; r must already
// carry the session middleware.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Get("/api/user/profile", h.HandleProfile)
}

// HandleCreate opens an account for a verified email.
//
// Input: { "first_name", "last_name", "email", "phone"?, "country_code"?, "birth_date"?, "password", "language" }
// Output: 200 { "ok": true, "account_id": "..." } or 422 { "ok": false, "reason": "..." }
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[models.CreateRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.accounts.Create(r.Context(), *req)
	if err != nil {
		h.writeRejection(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleProfile returns the signed-in account with its wallets.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := httputil.RequireAccountID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.accounts.Get(ctx, accountID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "load profile failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) writeRejection(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeValidation || code == dErrors.CodeSubmissionFailed {
		var de *dErrors.Error
		reason := err.Error()
		if errors.As(err, &de) {
			reason = de.Message
		}
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, models.CreateResult{OK: false, Reason: reason})
		return
	}
	h.logger.ErrorContext(ctx, "create account failed",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
