// Package redis opens the go-redis client backing the verification and session stores.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"cashwallet/internal/platform/config"
)

const (
	pingTimeout   = 2 * time.Second
	slowThreshold = 100 * time.Millisecond
)

type Client struct {
	*redis.Client
}

// New creates a client from cfg and pings it. Returns nil when the URL is
// empty, which selects the in-memory stores.
func New(ctx context.Context, cfg config.Redis, log *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	c := &Client{Client: redis.NewClient(opts)}
	c.AddHook(slowLogHook{log: log, threshold: slowThreshold})
	if err := c.Health(ctx); err != nil {
		c.Client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return c, nil
}

func (c *Client) Health(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// slowLogHook warns about commands slower than threshold and about failures
// other than a missing key.
type slowLogHook struct {
	log       *slog.Logger
	threshold time.Duration
}

func (h slowLogHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h slowLogHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(ctx, cmd.Name(), time.Since(start), err)
		return err
	}
}

func (h slowLogHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observe(ctx, fmt.Sprintf("pipeline(%d)", len(cmds)), time.Since(start), err)
		return err
	}
}

func (h slowLogHook) observe(ctx context.Context, name string, took time.Duration, err error) {
	if h.log == nil {
		return
	}
	switch {
	case err != nil && !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled):
		h.log.WarnContext(ctx, "redis command failed", "command", name, "duration", took, "error", err)
	case took > h.threshold:
		h.log.WarnContext(ctx, "slow redis command", "command", name, "duration", took)
	}
}
