// Package mailer delivers transactional mail: verification codes and welcome messages.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cashwallet/internal/platform/config"
)

const (
	codeSubject     = "Your CashWallet verification code"
	codeCategory    = "email_verification"
	welcomeSubject  = "Welcome to CashWallet"
	welcomeCategory = "welcome"
)

// Recipient is a sender or receiver in the mail API payload.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is the JSON body accepted by Mailtrap-style send APIs.
type Message struct {
	From     Recipient   `json:"from"`
	To       []Recipient `json:"to"`
	Subject  string      `json:"subject"`
	Text     string      `json:"text,omitempty"`
	HTML     string      `json:"html,omitempty"`
	Category string      `json:"category,omitempty"`
}

// HTTPMailer posts messages to a mail delivery API.
type HTTPMailer struct {
	url    string
	token  string
	from   Recipient
	client *http.Client
}

type Option func(*HTTPMailer)

func WithHTTPClient(client *http.Client) Option {
	return func(m *HTTPMailer) {
		m.client = client
	}
}

func NewHTTP(cfg config.Mailer, opts ...Option) *HTTPMailer {
	m := &HTTPMailer{
		url:    cfg.APIURL,
		token:  cfg.APIToken,
		from:   Recipient{Email: cfg.From, Name: cfg.FromName},
		client: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *HTTPMailer) SendCode(ctx context.Context, to, code string, ttl time.Duration) error {
	return m.send(ctx, Message{
		From:     m.from,
		To:       []Recipient{{Email: to}},
		Subject:  codeSubject,
		Text:     codeText(code, ttl),
		HTML:     codeHTML(code, ttl),
		Category: codeCategory,
	})
}

// SendWelcome greets a newly registered account holder in their language.
func (m *HTTPMailer) SendWelcome(ctx context.Context, to, name, lang string) error {
	return m.send(ctx, Message{
		From:     m.from,
		To:       []Recipient{{Email: to, Name: name}},
		Subject:  welcomeSubject,
		Text:     welcomeText(name, lang),
		Category: welcomeCategory,
	})
}

func (m *HTTPMailer) send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}
	return nil
}

func codeText(code string, ttl time.Duration) string {
	return fmt.Sprintf(`Your verification code is %s

It expires in %d minutes. If you did not start a CashWallet registration, ignore this message.
`, code, int(ttl.Minutes()))
}

func codeHTML(code string, ttl time.Duration) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Verify your email</h2>
	<p>Your verification code is</p>
	<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
	<p>It expires in %d minutes.</p>
	<p style="font-size: 12px; color: #666;">If you did not start a CashWallet registration, ignore this message.</p>
</body>
</html>`, code, int(ttl.Minutes()))
}

func welcomeText(name, lang string) string {
	if lang == "ar" {
		return fmt.Sprintf("مرحباً %s،\n\nتم إنشاء حسابك في CashWallet مع محافظ USD وUSDT وSYP وTRY.\n", name)
	}
	return fmt.Sprintf("Hello %s,\n\nYour CashWallet account is ready with USD, USDT, SYP and TRY wallets.\n", name)
}

// LogMailer writes messages to the log instead of delivering them. Used in
// development when no mail API is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendCode(ctx context.Context, to, code string, ttl time.Duration) error {
	m.logger.InfoContext(ctx, "verification code issued",
		"event", "otp_logged",
		"email", to,
		"code", code,
		"ttl", ttl.String(),
	)
	return nil
}

func (m *LogMailer) SendWelcome(ctx context.Context, to, name, lang string) error {
	m.logger.InfoContext(ctx, "welcome mail logged",
		"event", "welcome_logged",
		"email", to,
		"name", name,
		"language", lang,
	)
	return nil
}
