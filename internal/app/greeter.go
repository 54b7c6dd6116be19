package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/LoisM94/birthday-greeting/internal/metrics"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/birthday"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/redact"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/retry"
)

// Deps are the collaborators of one Greeter.
type Deps struct {
	Clock     core.Clock
	Source    core.RecordSource
	Validator core.Validator
	Channel   core.DeliveryChannel

	// Retry wraps every delivery. A nil Retry.Logger logs through Logger.
	Retry retry.Policy

	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Greeter runs the daily birthday greeting job.
type Greeter struct {
	clock     core.Clock
	source    core.RecordSource
	validator core.Validator
	channel   core.DeliveryChannel
	policy    retry.Policy
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// Summary counts what happened during one run.
type Summary struct {
	RunID string

	// Total is the number of people the source returned.
	Total      int
	Candidates int
	Invalid    int
	Sent       int
	Failed     int
	NoResponse int

	// Skipped counts candidates left untouched because the context was
	// cancelled.
	Skipped int
}

// New validates deps and returns a Greeter.
func New(d Deps) (*Greeter, error) {
	switch {
	case d.Clock == nil:
		return nil, errors.New("clock is required")
	case d.Source == nil:
		return nil, errors.New("record source is required")
	case d.Validator == nil:
		return nil, errors.New("validator is required")
	case d.Channel == nil:
		return nil, errors.New("delivery channel is required")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Greeter{
		clock:     d.Clock,
		source:    d.Source,
		validator: d.Validator,
		channel:   d.Channel,
		policy:    d.Retry,
		logger:    logger,
		metrics:   d.Metrics,
	}, nil
}

// Run greets every person whose birthday is today. Per-record failures are
// logged and never stop the run; a cancelled ctx stops it between records.
func (g *Greeter) Run(ctx context.Context) Summary {
	sum := Summary{RunID: uuid.NewString()}
	log := g.logger.With("run", sum.RunID)
	runStart := time.Now()

	today := g.clock.Today()
	log.Info("Birthday greeting run started",
		"time", g.clock.Now().Format(time.RFC3339),
		"date", today.Format(time.DateOnly),
	)

	people, err := g.source.People(ctx)
	if err != nil {
		log.Error("Failed to load people", "error", redact.Secrets(err.Error()))
		people = nil
	}
	candidates := birthday.Filter(people, today)
	sum.Total = len(people)
	sum.Candidates = len(candidates)
	g.metrics.ObservePeople(sum.Total, sum.Candidates)
	log.Debug("birthday candidates selected", "people", sum.Total, "candidates", sum.Candidates)

	channel := newTracedChannel(g.channel, log, g.metrics)

	for i, p := range candidates {
		if ctx.Err() != nil {
			sum.Skipped = len(candidates) - i
			log.Warn("Run cancelled", "skipped", sum.Skipped, "error", ctx.Err().Error())
			break
		}

		if res := g.validator.Validate(ctx, p); !res.Valid() {
			for _, f := range res.Failures {
				log.Error("Validation failed",
					"first_name", p.FirstName,
					"last_name", p.LastName,
					"field", f.Field,
					"message", f.Message,
				)
			}
			sum.Invalid++
			g.metrics.ObserveOutcome(metrics.OutcomeInvalid)
			continue
		}

		resp, err := g.deliver(ctx, log, channel, p)
		switch {
		case resp.IsSuccess():
			log.Info("Email sent", "email", p.Email)
			sum.Sent++
			g.metrics.ObserveOutcome(metrics.OutcomeSent)
		case resp == nil:
			attrs := []any{"email", p.Email}
			if err != nil {
				attrs = append(attrs, "error", redact.Secrets(err.Error()))
			}
			log.Error("Failed to send birthday email: no response", attrs...)
			sum.NoResponse++
			g.metrics.ObserveOutcome(metrics.OutcomeNoResponse)
		default:
			log.Error("Failed to send birthday email",
				"email", p.Email,
				"status_code", resp.StatusCode,
				"body", resp.Body,
			)
			sum.Failed++
			g.metrics.ObserveOutcome(metrics.OutcomeFailed)
		}
	}

	g.metrics.MarkCompleted(g.clock.Now())
	log.Info("Birthday greeting run completed",
		"people", sum.Total,
		"candidates", sum.Candidates,
		"sent", sum.Sent,
		"failed", sum.Failed,
		"no_response", sum.NoResponse,
		"invalid", sum.Invalid,
		"skipped", sum.Skipped,
		"duration", time.Since(runStart).Round(time.Millisecond).String(),
	)
	return sum
}

func (g *Greeter) deliver(ctx context.Context, log *slog.Logger, channel core.DeliveryChannel, p core.Person) (*core.Response, error) {
	policy := g.policy
	if policy.Logger == nil {
		policy.Logger = log
	}
	policy.Logger = policy.Logger.With("email", p.Email)

	return retry.Do(ctx, policy, func(ctx context.Context) (*core.Response, error) {
		return channel.Send(ctx, p.Email, p.FirstName)
	})
}
