package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
)

// DryRunChannel logs the greeting it would send and reports success without
// touching the network.
type DryRunChannel struct {
	Logger *slog.Logger

	// Message renders the body; nil logs only the recipient.
	Message func(firstName string) string
}

var _ core.DeliveryChannel = DryRunChannel{}

func (d DryRunChannel) Send(_ context.Context, recipient, firstName string) (*core.Response, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"email", recipient}
	if d.Message != nil {
		attrs = append(attrs, "message", d.Message(firstName))
	}
	logger.Info("dry run: greeting not sent", attrs...)
	return &core.Response{StatusCode: http.StatusAccepted, Status: "202 Accepted (dry run)"}, nil
}
