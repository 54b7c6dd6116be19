package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/LoisM94/birthday-greeting/internal/metrics"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/redact"
)

// tracedChannel logs every delivery attempt at debug level and feeds the
// attempt metrics.
type tracedChannel struct {
	next    core.DeliveryChannel
	logger  *slog.Logger
	metrics *metrics.Recorder

	mu       sync.Mutex
	attempts map[string]int
}

func newTracedChannel(next core.DeliveryChannel, logger *slog.Logger, m *metrics.Recorder) *tracedChannel {
	return &tracedChannel{
		next:     next,
		logger:   logger,
		metrics:  m,
		attempts: make(map[string]int),
	}
}

func (t *tracedChannel) Send(ctx context.Context, recipient, firstName string) (*core.Response, error) {
	attempt := t.nextAttempt(recipient)

	deadlineIn := "none"
	if d, ok := ctx.Deadline(); ok {
		deadlineIn = time.Until(d).Round(time.Millisecond).String()
	}
	t.logger.Debug("delivery request", "email", recipient, "attempt", attempt, "deadline_in", deadlineIn)

	start := time.Now()
	resp, err := t.next.Send(ctx, recipient, firstName)
	elapsed := time.Since(start)
	t.metrics.ObserveAttempt(elapsed)

	attrs := []any{"email", recipient, "attempt", attempt, "duration", elapsed.Round(time.Millisecond).String()}
	switch {
	case err != nil:
		attrs = append(attrs, "status", "error", "error", redact.Secrets(err.Error()))
	case resp == nil:
		attrs = append(attrs, "status", "no_response")
	default:
		attrs = append(attrs, "status", "ok", "status_code", resp.StatusCode)
	}
	t.logger.Debug("delivery response", attrs...)
	return resp, err
}

func (t *tracedChannel) nextAttempt(recipient string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(recipient))
	t.attempts[key]++
	return t.attempts[key]
}
