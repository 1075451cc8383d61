// Package httputil translates domain results and errors into JSON responses.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	id "cashwallet/pkg/domain"
	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/requestcontext"
)

// ErrorResponse is the body written for every failed request.
// Kind, Field and Snapshot are filled in by the registration endpoints only.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Kind             string `json:"kind,omitempty"`
	Field            string `json:"field,omitempty"`
	Snapshot         any    `json:"snapshot,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding failure cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorWith(w, err, nil)
}

// WriteErrorWith writes err like WriteError and lets the caller decorate the body first.
func WriteErrorWith(w http.ResponseWriter, err error, decorate func(*ErrorResponse)) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{}

	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		resp.ErrorDescription = domainErr.Message
	}
	resp.Error = DomainCodeToHTTPCode(code)
	if decorate != nil {
		decorate(&resp)
	}
	WriteJSON(w, DomainCodeToHTTPStatus(code), resp)
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeValidation:
		return http.StatusUnprocessableEntity
	case dErrors.CodeConflict, dErrors.CodeInvalidState:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeVerificationFailed, dErrors.CodeSubmissionFailed:
		return http.StatusBadGateway
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode returns the stable error string used in JSON bodies.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeInvalidInput:
		return string(dErrors.CodeBadRequest)
	case dErrors.CodeNotFound, dErrors.CodeBadRequest, dErrors.CodeValidation,
		dErrors.CodeConflict, dErrors.CodeInvalidState, dErrors.CodeUnauthorized,
		dErrors.CodeVerificationFailed, dErrors.CodeSubmissionFailed,
		dErrors.CodeUnavailable, dErrors.CodeTimeout:
		return string(code)
	default:
		return string(dErrors.CodeInternal)
	}
}

// RequireAccountID extracts the authenticated account from context.
// A missing ID behind the session middleware is a wiring bug, not a client error.
func RequireAccountID(ctx context.Context, logger *slog.Logger) (id.AccountID, error) {
	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		if logger != nil {
			logger.ErrorContext(ctx, "account ID missing from context despite session middleware",
				"request_id", requestcontext.RequestID(ctx))
		}
		return id.AccountID{}, dErrors.New(dErrors.CodeInternal, "authentication context error")
	}
	return accountID, nil
}
