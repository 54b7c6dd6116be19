// Package retry runs a single operation with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// Policy configures retries around one logical call.
//
// The delay before retry k (1-based) is BaseDelay * 2^k, so the defaults wait
// 2s, 4s and 8s. There is no jitter.
type Policy struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int
	BaseDelay  time.Duration

	// Logger receives one warning per retry. Nil disables retry logging.
	Logger *slog.Logger

	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the 3-retry policy used for greeting delivery.
func Default(logger *slog.Logger) Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Logger:     logger,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// Backoff returns the wait before the given retry (1-based).
func (p Policy) Backoff(retry int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if retry < 1 {
		return 0
	}
	return base << retry
}

// Do calls op and retries it while it returns an error, up to p.MaxRetries
// extra times. Values returned without an error are never retried. When every
// attempt fails the last error is returned.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var lastOut T
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return lastOut, err
		}

		out, err := op(ctx)
		lastOut = out
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return lastOut, ctx.Err()
		}
		if attempt >= p.MaxRetries {
			return lastOut, err
		}

		retry := attempt + 1
		delay := p.Backoff(retry)
		if p.Logger != nil {
			p.Logger.Warn("Retrying after error",
				"attempt", retry,
				"delay_seconds", delay.Seconds(),
				"error", err.Error(),
			)
		}
		if err := p.Sleep(ctx, delay); err != nil {
			return lastOut, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
