package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLiveness(t *testing.T) {
	w := serve(New("test"), "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Run("all checks up", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("redis", func(context.Context) error { return nil })
		w := serve(h, "/health/ready")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "up", resp.Checks["redis"].Status)
	})

	t.Run("one check down", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("redis", func(context.Context) error { return nil })
		h.RegisterCheck("postgres", func(context.Context) error { return errors.New("connection refused") })
		w := serve(h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "down", resp.Checks["postgres"].Status)
		assert.Equal(t, "connection refused", resp.Checks["postgres"].Error)
		assert.Equal(t, "up", resp.Checks["redis"].Status)
	})

	t.Run("draining", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("redis", func(context.Context) error { return nil })
		h.Drain()
		w := serve(h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "draining", resp.Status)
		assert.Empty(t, resp.Checks)
	})
}

func TestStatus(t *testing.T) {
	h := New("development")
	h.RegisterCheck("redis", func(context.Context) error { return nil })
	h.RegisterCheck("postgres", func(context.Context) error { return nil })
	w := serve(h, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "development", resp.Environment)
	assert.Equal(t, Version, resp.Version)
	assert.Equal(t, []string{"postgres", "redis"}, resp.Dependencies)
}
