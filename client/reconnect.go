package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sscp/go-sscp/internal/pool"
	"github.com/go-sscp/go-sscp/sscp"
)

const retryDelayFactor = 2

// run executes op under the session lock and the reconnection policy.
//
// The session is authenticated before every attempt of op. When op fails with
// sscp.ErrBrokenConnection, the session reconnects and op is retried exactly once.
// Any other failure of op is returned as is.
func (s *Session) run(ctx context.Context, name string, op func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; ; attempt++ {
		if !s.state.Get().IsAuthenticated() {
			if err := s.reconnect(ctx, name); err != nil {
				return err
			}
		}

		err := op(ctx)
		if err == nil || attempt > 0 || !errors.Is(err, sscp.ErrBrokenConnection) || ctx.Err() != nil {
			return err
		}

		s.metrics.incRetryCount()
		s.logger.Info("retry operation after broken connection", "method", name, "error", err)
	}
}

// reconnect closes the current connection, then connects and logs in again.
//
// It makes up to reconnectAttempts attempts with exponential backoff between them, and returns
// an error wrapping sscp.ErrReconnectionFailed and the last cause when all of them fail.
func (s *Session) reconnect(ctx context.Context, name string) error {
	delay := s.cfg.reconnectDelay

	var lastErr error
	for attempt := 1; attempt <= s.cfg.reconnectAttempts; attempt++ {
		if attempt > 1 {
			if err := pool.Sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
			delay = min(delay*retryDelayFactor, MaxReconnectDelay)
		}

		s.metrics.incReconnectCount()
		_ = s.disconnect()

		err := s.connect(ctx)
		if err == nil {
			err = s.login(ctx)
		}

		if err == nil {
			s.logger.Info("session re-established", "method", name, "attempt", attempt)
			return nil
		}

		lastErr = err
		s.logger.Warn("reconnection attempt failed", "method", name, "attempt", attempt, "error", err)

		if ctx.Err() != nil {
			break
		}
	}

	_ = s.disconnect()
	s.metrics.incReconnectErrCount()

	return fmt.Errorf("%w: %w", sscp.ErrReconnectionFailed, lastErr)
}
