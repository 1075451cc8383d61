package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashwallet/internal/platform/config"
)

func TestHTTPMailerSendCode(t *testing.T) {
	var got Message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewHTTP(config.Mailer{
		APIURL:   srv.URL,
		APIToken: "token-1",
		From:     "no-reply@cashwallet.local",
		FromName: "CashWallet",
		Timeout:  time.Second,
	})

	err := m.SendCode(context.Background(), "jane@example.com", "482913", 10*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "Bearer token-1", auth)
	assert.Equal(t, "no-reply@cashwallet.local", got.From.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "jane@example.com", got.To[0].Email)
	assert.Equal(t, codeCategory, got.Category)
	assert.Contains(t, got.Text, "482913")
	assert.Contains(t, got.Text, "10 minutes")
	assert.Contains(t, got.HTML, "482913")
}

func TestHTTPMailerRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewHTTP(config.Mailer{APIURL: srv.URL, Timeout: time.Second})
	err := m.SendCode(context.Background(), "jane@example.com", "482913", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, m.SendCode(context.Background(), "jane@example.com", "482913", time.Minute))
	assert.Contains(t, buf.String(), `"code":"482913"`)
	assert.Contains(t, buf.String(), `"event":"otp_logged"`)
}

func TestHTTPMailerSendWelcome(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewHTTP(config.Mailer{APIURL: srv.URL, From: "no-reply@cashwallet.local", Timeout: time.Second})
	require.NoError(t, m.SendWelcome(context.Background(), "jane@example.com", "Jane", "en"))

	assert.Equal(t, welcomeSubject, got.Subject)
	assert.Equal(t, "Jane", got.To[0].Name)
	assert.Contains(t, got.Text, "Hello Jane")
}
