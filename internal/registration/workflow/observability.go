package workflow

import (
	"context"
	"time"

	"cashwallet/pkg/requestcontext"
)

func (c *Controller) logEvent(ctx context.Context, event string, attributes ...any) {
	args := append(attributes,
		"event", event,
		"log_type", "registration",
		"workflow_id", c.workflowID,
		"request_id", requestcontext.RequestID(ctx),
	)
	c.logger.InfoContext(ctx, event, args...)
}

func (c *Controller) logFailure(ctx context.Context, op operation, err error) {
	c.logger.WarnContext(ctx, "remote call failed",
		"operation", string(op),
		"workflow_id", c.workflowID,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

func (c *Controller) dropStale(ctx context.Context, op operation, reason string) {
	c.logger.InfoContext(ctx, "dropped stale result",
		"operation", string(op),
		"reason", reason,
		"workflow_id", c.workflowID,
	)
	if c.metrics != nil {
		c.metrics.IncStale(string(op))
	}
}

func (c *Controller) count(op operation, outcome string) {
	if c.metrics != nil {
		c.metrics.IncOperation(string(op), outcome)
	}
}

func (c *Controller) observeRemote(op operation, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveRemote(string(op), time.Since(start))
	}
}
