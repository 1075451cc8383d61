// Package handler exposes registration workflows to the display layer over JSON.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cashwallet/internal/registration/models"
	"cashwallet/internal/registration/service"
	"cashwallet/pkg/domain"
	"cashwallet/pkg/platform/httputil"
	"cashwallet/pkg/requestcontext"
)

// Service is the registration host as seen by HTTP.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (models.Snapshot, error)
	Snapshot(ctx context.Context, id domain.WorkflowID) (models.Snapshot, error)
	EditField(ctx context.Context, id domain.WorkflowID, field, value string) (models.Snapshot, error)
	RequestCode(ctx context.Context, id domain.WorkflowID) (models.Snapshot, error)
	SubmitCode(ctx context.Context, id domain.WorkflowID, code string) (models.Snapshot, error)
	Advance(ctx context.Context, id domain.WorkflowID) (models.Snapshot, error)
	Retreat(ctx context.Context, id domain.WorkflowID) (models.Snapshot, error)
	Submit(ctx context.Context, id domain.WorkflowID) (models.Completion, models.Snapshot, error)
	Discard(ctx context.Context, id domain.WorkflowID) error
}

type Handler struct {
	registrations Service
	logger        *slog.Logger
}

func New(registrations Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registrations: registrations, logger: logger}
}

// Register mounts the workflow routes under /api/registrations.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/registrations", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleSnapshot)
			r.Delete("/", h.HandleDiscard)
			r.Patch("/fields", h.HandleEditField)
			r.Post("/code", h.HandleRequestCode)
			r.Post("/code/verify", h.HandleVerifyCode)
			r.Post("/advance", h.HandleAdvance)
			r.Post("/retreat", h.HandleRetreat)
			r.Post("/submit", h.HandleSubmit)
		})
	})
}

// HandleCreate mounts a new workflow.
//
// Input: { "profile": "advanced" | "compact", "language": "ar" }
// Output: 201 snapshot
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[models.StartRequest](w, r, h.logger)
	if !ok {
		return
	}
	snap, err := h.registrations.Create(r.Context(), service.CreateRequest{
		Profile:  req.Profile,
		Language: req.Language,
	})
	if err != nil {
		h.writeError(w, r, "create registration failed", err, models.Snapshot{})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, snap)
}

func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workflowID(w, r)
	if !ok {
		return
	}
	snap, err := h.registrations.Snapshot(r.Context(), id)
	h.respond(w, r, "get registration failed", snap, err)
}

func (h *Handler) HandleEditField(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workflowID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.EditFieldRequest](w, r, h.logger)
	if !ok {
		return
	}
	snap, err := h.registrations.EditField(r.Context(), id, req.Field, req.Value)
	h.respond(w, r, "edit field failed", snap, err)
}

func (h *Handler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workflowID(w, r)
	if !ok {
		return
	}
	snap, err := h.registrations.RequestCode(r.Context(), id)
	h.respond(w, r, "request code failed", snap, err)
}

// HandleVerifyCode submits a one-time code.
//
// Input: { "code": "123456" }
func (h *Handler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workflowID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.VerifyCodeRequest](w, r, h.logger)
	if !ok {
		return
	}
	snap, err := h.registrations.SubmitCode(r.Context(), id, req.Code)
	h.respond(w, r, "verify code failed", snap, err)
}

func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workflowID(w, r)
	if !ok {
		return
	}
	snap, err := h.registrations.Advance(r.Context(), id)
	h.respond(w, r, "advance failed", snap, err)
}

func (h *Handler) HandleRetreat(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workflowID(w, r)
	if !ok {
		return
	}
	snap, err := h.registrations.Retreat(r.Context(), id)
	h.respond(w, r, "retreat failed", snap, err)
}

// HandleSubmit creates the account.
//
// Output: 201 { "account_id": "...", "redirect": "/dashboard", "access_token": "..." }
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workflowID(w, r)
	if !ok {
		return
	}
	done, snap, err := h.registrations.Submit(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "submit registration failed", err, snap)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, done)
}

func (h *Handler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.workflowID(w, r)
	if !ok {
		return
	}
	if err := h.registrations.Discard(r.Context(), id); err != nil {
		h.writeError(w, r, "discard registration failed", err, models.Snapshot{})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) workflowID(w http.ResponseWriter, r *http.Request) (domain.WorkflowID, bool) {
	id, err := domain.ParseWorkflowID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.WorkflowID{}, false
	}
	return id, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, msg string, snap models.Snapshot, err error) {
	if err != nil {
		h.writeError(w, r, msg, err, snap)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

// writeError attaches the error kind, the offending field and, when the workflow
// exists, the snapshot taken after the failed operation.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error, snap models.Snapshot) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteErrorWith(w, err, func(resp *httputil.ErrorResponse) {
		var info *models.ErrorInfo
		if errors.As(err, &info) {
			resp.Kind = string(info.Kind)
			resp.Field = string(info.Field)
		}
		if snap.WorkflowID != "" {
			resp.Snapshot = snap
		}
	})
}
