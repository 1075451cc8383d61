package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	accountmodels "cashwallet/internal/account/models"
	"cashwallet/internal/session/handler/mocks"
	"cashwallet/internal/session/models"
	"cashwallet/internal/session/service"
	dErrors "cashwallet/pkg/domain-errors"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	svc := mocks.NewMockService(gomock.NewController(t))
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, svc
}

func do(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleLogin(t *testing.T) {
	t.Run("200 with grant", func(t *testing.T) {
		router, svc := newTestRouter(t)
		expires := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		svc.EXPECT().Login(gomock.Any(), models.LoginRequest{Email: "jane@example.com", Password: "Str0ng!pass"}).
			Return(models.Grant{AccessToken: "tok", TokenType: "Bearer", ExpiresAt: expires, AccountID: "acc-1"}, nil)

		w := do(router, http.MethodPost, "/api/auth/login", "", `{"email":" JANE@example.com","password":"Str0ng!pass"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var grant models.Grant
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grant))
		assert.Equal(t, "tok", grant.AccessToken)
		assert.Equal(t, "acc-1", grant.AccountID)
	})

	t.Run("401 for wrong credentials", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(models.Grant{}, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password"))

		w := do(router, http.MethodPost, "/api/auth/login", "", `{"email":"jane@example.com","password":"nope"}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing email never reaches the service", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w := do(router, http.MethodPost, "/api/auth/login", "", `{"password":"x"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestHandleLogout(t *testing.T) {
	t.Run("204 on success", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Logout(gomock.Any(), "tok").Return(nil)

		w := do(router, http.MethodPost, "/api/auth/logout", "tok", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("401 without a token", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w := do(router, http.MethodPost, "/api/auth/logout", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandleLogoutAll(t *testing.T) {
	router, svc := newTestRouter(t)
	svc.EXPECT().LogoutAll(gomock.Any(), "tok").Return(3, nil)

	w := do(router, http.MethodPost, "/api/auth/logout-all", "tok", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ended":3}`, w.Body.String())
}

func TestHandleMe(t *testing.T) {
	t.Run("restores session and account", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Current(gomock.Any(), "tok").Return(service.Current{
			Session: models.SessionView{ID: "s-1", Device: "Safari on iOS"},
			Account: accountmodels.AccountView{ID: "acc-1", Email: "jane@example.com"},
		}, nil)

		w := do(router, http.MethodGet, "/api/auth/me", "tok", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Safari on iOS", resp["session"]["device"])
		assert.Equal(t, "jane@example.com", resp["account"]["email"])
	})

	t.Run("401 once the session ended", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Current(gomock.Any(), "tok").Return(service.Current{}, dErrors.New(dErrors.CodeUnauthorized, "session ended"))

		w := do(router, http.MethodGet, "/api/auth/me", "tok", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
