package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashwallet/internal/account/metrics"
	"cashwallet/internal/account/models"
	"cashwallet/internal/platform/kafka/consumer"
)

type sentWelcome struct {
	to, name, lang string
}

type fakeMailer struct {
	sent []sentWelcome
	err  error
}

func (m *fakeMailer) SendWelcome(_ context.Context, to, name, lang string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentWelcome{to, name, lang})
	return nil
}

func createdMessage(t *testing.T, event models.AccountCreated) *consumer.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return &consumer.Message{
		Topic:   "cashwallet.account.events",
		Value:   value,
		Headers: map[string]string{"event_type": models.EventAccountCreated},
	}
}

func newHandler(mailer *fakeMailer) (*WelcomeHandler, *metrics.Metrics) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	return NewWelcomeHandler(mailer,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(m),
	), m
}

func TestWelcomeHandler(t *testing.T) {
	t.Run("mails the new account holder", func(t *testing.T) {
		mailer := &fakeMailer{}
		h, m := newHandler(mailer)

		err := h.Handle(context.Background(), createdMessage(t, models.AccountCreated{
			AccountID: "acc-1", Email: "jane@example.com", FirstName: "Jane", Language: "en",
		}))

		require.NoError(t, err)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, sentWelcome{"jane@example.com", "Jane", "en"}, mailer.sent[0])
		assert.InDelta(t, 1, testutil.ToFloat64(m.WelcomeMails.WithLabelValues("sent")), 0)
	})

	t.Run("delivery failure is returned for redelivery", func(t *testing.T) {
		mailer := &fakeMailer{err: errors.New("smtp down")}
		h, _ := newHandler(mailer)

		err := h.Handle(context.Background(), createdMessage(t, models.AccountCreated{Email: "jane@example.com"}))
		assert.Error(t, err)
	})

	t.Run("other event types are skipped", func(t *testing.T) {
		mailer := &fakeMailer{}
		h, _ := newHandler(mailer)

		msg := createdMessage(t, models.AccountCreated{Email: "jane@example.com"})
		msg.Headers["event_type"] = "account.closed"

		require.NoError(t, h.Handle(context.Background(), msg))
		assert.Empty(t, mailer.sent)
	})

	t.Run("undecodable payload is dropped", func(t *testing.T) {
		mailer := &fakeMailer{}
		h, m := newHandler(mailer)

		msg := &consumer.Message{Value: []byte("{"), Headers: map[string]string{"event_type": models.EventAccountCreated}}

		require.NoError(t, h.Handle(context.Background(), msg))
		assert.Empty(t, mailer.sent)
		assert.InDelta(t, 1, testutil.ToFloat64(m.WelcomeMails.WithLabelValues("malformed")), 0)
	})
}
