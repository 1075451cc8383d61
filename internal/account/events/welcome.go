// Package events reacts to account events consumed from Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"cashwallet/internal/account/metrics"
	"cashwallet/internal/account/models"
	"cashwallet/internal/platform/kafka/consumer"
	"cashwallet/internal/platform/tracer"
)

// WelcomeMailer sends the greeting for a freshly opened account.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name, lang string) error
}

// WelcomeHandler mails new account holders once their account.created event
// has been published.
type WelcomeHandler struct {
	mailer  WelcomeMailer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*WelcomeHandler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *WelcomeHandler) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *WelcomeHandler) {
		h.metrics = m
	}
}

func NewWelcomeHandler(mailer WelcomeMailer, opts ...Option) *WelcomeHandler {
	h := &WelcomeHandler{mailer: mailer, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ consumer.Handler = (*WelcomeHandler)(nil)

// Handle ignores other event types and undecodable payloads; only a failed
// delivery is returned so the record is retried.
func (h *WelcomeHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	if msg.Headers["event_type"] != models.EventAccountCreated {
		return nil
	}
	var event models.AccountCreated
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.WarnContext(ctx, "dropping undecodable account event",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		h.inc("malformed")
		return nil
	}
	if event.Email == "" {
		h.inc("malformed")
		return nil
	}

	if err := h.mailer.SendWelcome(ctx, event.Email, event.FirstName, event.Language); err != nil {
		h.inc("failed")
		return fmt.Errorf("send welcome mail for account %s: %w", event.AccountID, err)
	}
	h.logger.InfoContext(ctx, "welcome mail sent",
		"event", "welcome_mail_sent",
		"log_type", "account",
		"account_id", event.AccountID,
		"email_hash", tracer.HashEmail(event.Email),
	)
	h.inc("sent")
	return nil
}

func (h *WelcomeHandler) inc(outcome string) {
	if h.metrics != nil {
		h.metrics.IncWelcome(outcome)
	}
}
