package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"cashwallet/internal/platform/kafka/producer"
)

const dialTimeout = 3 * time.Second

// Reachable returns a readiness check that passes when at least one seed
// broker accepts a TCP connection.
func Reachable(brokers string) func(ctx context.Context) error {
	seeds := producer.SplitBrokers(brokers)
	return func(ctx context.Context) error {
		if len(seeds) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := net.Dialer{Timeout: dialTimeout}
		var lastErr error
		for _, broker := range seeds {
			conn, err := dialer.DialContext(ctx, "tcp", broker)
			if err != nil {
				lastErr = err
				continue
			}
			_ = conn.Close()
			return nil
		}
		return fmt.Errorf("no kafka brokers reachable: %w", lastErr)
	}
}
