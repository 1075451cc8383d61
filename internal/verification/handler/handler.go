// Package handler exposes one-time code issuance and checks over JSON.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cashwallet/internal/verification/models"
	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/platform/httputil"
	"cashwallet/pkg/requestcontext"
)

type Service interface {
	Send(ctx context.Context, address string) (models.SendResult, error)
	Verify(ctx context.Context, address, code string) (models.VerifyResult, error)
}

type Handler struct {
	verification Service
	logger       *slog.Logger
}

func New(verification Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{verification: verification, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/send-otp", h.HandleSendCode)
	r.Post("/api/auth/verify-otp", h.HandleVerifyCode)
}

// HandleSendCode issues a one-time code.
//
// Input: { "email": "jane@example.com" }
// Output: 200 { "ok": true, "otp"?: "123456" } or 422 { "ok": false, "reason": "..." }
func (h *Handler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[models.SendCodeRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := httputil.PrepareRequest(req); err != nil {
		h.writeRejection(w, r, "invalid send code request", err)
		return
	}
	res, err := h.verification.Send(r.Context(), req.Email)
	if err != nil {
		h.writeRejection(w, r, "send code failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleVerifyCode checks a one-time code.
//
// Input: { "email": "jane@example.com", "otp": "123456" }
// Output: 200 { "ok": true } or 422 { "ok": false, "reason": "..." }
func (h *Handler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[models.VerifyCodeRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := httputil.PrepareRequest(req); err != nil {
		h.writeRejection(w, r, "invalid verify code request", err)
		return
	}
	res, err := h.verification.Verify(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeRejection(w, r, "verify code failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// writeRejection reports refusals in the {ok, reason} shape; anything else is
// an infrastructure failure written as a regular error body.
func (h *Handler) writeRejection(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeValidation || code == dErrors.CodeVerificationFailed {
		var de *dErrors.Error
		reason := err.Error()
		if errors.As(err, &de) {
			reason = de.Message
		}
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, models.VerifyResult{OK: false, Reason: reason})
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
