package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cashwallet/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		description string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "registration not found"), http.StatusNotFound, "not_found", "registration not found"},
		{"invalid input reported as bad request", dErrors.New(dErrors.CodeInvalidInput, "bad id"), http.StatusBadRequest, "bad_request", "bad id"},
		{"invalid state", dErrors.New(dErrors.CodeInvalidState, "registration closed"), http.StatusConflict, "invalid_state", "registration closed"},
		{"remote rejection", dErrors.New(dErrors.CodeSubmissionFailed, "Email already registered"), http.StatusBadGateway, "submission_failed", "Email already registered"},
		{"deadline", fmt.Errorf("send code: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout", ""},
		{"plain error hides detail", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
			assert.Equal(t, tt.description, resp.ErrorDescription)
		})
	}
}

func TestWriteErrorWithDecorates(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorWith(w, dErrors.New(dErrors.CodeValidation, "Passwords do not match"), func(resp *ErrorResponse) {
		resp.Kind = "validation"
		resp.Field = "confirm_password"
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{
		"error": "validation_failed",
		"error_description": "Passwords do not match",
		"kind": "validation",
		"field": "confirm_password"
	}`, w.Body.String())
}
