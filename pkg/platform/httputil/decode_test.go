package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cashwallet/pkg/domain-errors"
)

type fieldEdit struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type checkedEdit struct {
	Field      string `json:"field"`
	normalized bool
}

func (r *checkedEdit) Normalize() { r.Field = strings.TrimSpace(r.Field); r.normalized = true }

func (r *checkedEdit) Validate() error {
	if r.Field == "" {
		return errors.New("field is required")
	}
	return nil
}

type codedEdit struct {
	Field string `json:"field"`
}

func (r *codedEdit) Validate() error {
	if r.Field == "" {
		return dErrors.New(dErrors.CodeBadRequest, "field is required")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDecodeJSON(t *testing.T) {
	logger := discardLogger()

	t.Run("decodes a single object", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"field":"email","value":"jane@example.com"}`))
		w := httptest.NewRecorder()

		got, ok := DecodeJSON[fieldEdit](w, r, logger)
		require.True(t, ok)
		assert.Equal(t, "email", got.Field)
		assert.Equal(t, "jane@example.com", got.Value)
	})

	for name, body := range map[string]string{
		"malformed":     `{field}`,
		"empty":         ``,
		"trailing data": `{"field":"email"}{"field":"phone"}`,
	} {
		t.Run("rejects "+name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
			w := httptest.NewRecorder()

			got, ok := DecodeJSON[fieldEdit](w, r, logger)
			assert.False(t, ok)
			assert.Nil(t, got)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "bad_request", decodeError(t, w).Error)
		})
	}
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := discardLogger()

	t.Run("normalizes before validating", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"field":"  phone "}`))
		w := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[checkedEdit](w, r, logger)
		require.True(t, ok)
		assert.True(t, got.normalized)
		assert.Equal(t, "phone", got.Field)
	})

	t.Run("plain validation error becomes validation_failed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"field":"   "}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[checkedEdit](w, r, logger)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "validation_failed", resp.Error)
		assert.Equal(t, "field is required", resp.ErrorDescription)
	})

	t.Run("domain error keeps its code", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[codedEdit](w, r, logger)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeError(t, w).Error)
	})
}

func TestWriteErrorCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{dErrors.New(dErrors.CodeValidation, "passwords do not match"), http.StatusUnprocessableEntity, "validation_failed"},
		{dErrors.New(dErrors.CodeVerificationFailed, "Invalid code"), http.StatusBadGateway, "verification_failed"},
		{dErrors.New(dErrors.CodeSubmissionFailed, "Email already registered"), http.StatusBadGateway, "submission_failed"},
		{dErrors.New(dErrors.CodeConflict, "operation already in progress"), http.StatusConflict, "conflict"},
		{dErrors.New(dErrors.CodeInvalidState, "registration closed"), http.StatusConflict, "invalid_state"},
		{dErrors.New(dErrors.CodeUnavailable, "verification service unreachable"), http.StatusServiceUnavailable, "unavailable"},
		{dErrors.New(dErrors.CodeInvalidInput, "invalid registration ID"), http.StatusBadRequest, "bad_request"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(w, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.code)
		assert.Equal(t, tc.code, decodeError(t, w).Error)
	}

	t.Run("decorated body", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteErrorWith(w, dErrors.New(dErrors.CodeValidation, "passwords do not match"), func(r *ErrorResponse) {
			r.Kind = "validation"
			r.Field = "confirm_password"
		})
		resp := decodeError(t, w)
		assert.Equal(t, "validation", resp.Kind)
		assert.Equal(t, "confirm_password", resp.Field)
		assert.Equal(t, "passwords do not match", resp.ErrorDescription)
	})
}
