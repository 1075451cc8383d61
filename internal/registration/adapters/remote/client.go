// Package remote talks to separately deployed verification and account services.
//
// Both services answer 200 or 422 with a {"ok", "reason"} body. Any other status,
// a network failure or an open breaker is returned as an error, which the
// workflow treats as a transport failure.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cashwallet/pkg/platform/circuit"
	"cashwallet/pkg/requestcontext"
)

// ErrUnavailable is returned without a network call while the breaker is open.
var ErrUnavailable = errors.New("remote service unavailable")

const maxResponseBytes = 1 << 20

// HTTPDoer is the subset of *http.Client the clients need.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Breaker    *circuit.Breaker
	Logger     *slog.Logger
}

type client struct {
	baseURL string
	http    HTTPDoer
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func newClient(name string, cfg Config) (*client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: base URL is required", name)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		breaker: cfg.Breaker,
		logger:  cfg.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	if c.breaker == nil {
		c.breaker = circuit.New(name)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// post sends body as JSON to path and decodes a 200 or 422 answer into out.
func (c *client) post(ctx context.Context, path string, body, out any) error {
	if !c.breaker.Allow() {
		return fmt.Errorf("%s: %w", c.breaker.Name(), ErrUnavailable)
	}
	err := c.do(ctx, path, body, out)
	if err != nil {
		if ctx.Err() == nil {
			c.breaker.RecordFailure()
		}
		c.logger.WarnContext(ctx, "remote call failed",
			"service", c.breaker.Name(),
			"path", path,
			"error", err,
		)
		return err
	}
	c.breaker.RecordSuccess()
	return nil
}

func (c *client) do(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnprocessableEntity:
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
