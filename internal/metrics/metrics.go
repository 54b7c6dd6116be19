// Package metrics records per-run greeting outcomes and pushes them to a
// Prometheus Pushgateway when the run ends.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Outcome labels for OutcomesTotal.
const (
	OutcomeSent       = "sent"
	OutcomeFailed     = "failed"
	OutcomeNoResponse = "no_response"
	OutcomeInvalid    = "invalid"
)

const DefaultJob = "birthday_greeter"

// Recorder holds the run's collectors on a private registry. A nil
// *Recorder records nothing.
type Recorder struct {
	reg *prometheus.Registry

	people     prometheus.Gauge
	candidates prometheus.Gauge
	outcomes   *prometheus.CounterVec
	attempts   prometheus.Counter
	latency    prometheus.Histogram
	lastRun    prometheus.Gauge
}

// New registers the greeter collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		people: f.NewGauge(prometheus.GaugeOpts{
			Name: "greeter_people",
			Help: "People returned by the record source in the last run",
		}),
		candidates: f.NewGauge(prometheus.GaugeOpts{
			Name: "greeter_candidates",
			Help: "People whose birthday matched in the last run",
		}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "greeter_outcomes_total",
			Help: "Greeting outcomes by result",
		}, []string{"outcome"}),
		attempts: f.NewCounter(prometheus.CounterOpts{
			Name: "greeter_delivery_attempts_total",
			Help: "Delivery channel calls including retries",
		}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "greeter_delivery_latency_seconds",
			Help:    "Delivery channel call latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "greeter_last_run_timestamp_seconds",
			Help: "Unix time the last run completed",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Recorder) ObservePeople(total, candidates int) {
	if r == nil {
		return
	}
	r.people.Set(float64(total))
	r.candidates.Set(float64(candidates))
}

func (r *Recorder) ObserveOutcome(outcome string) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveAttempt(d time.Duration) {
	if r == nil {
		return
	}
	r.attempts.Inc()
	r.latency.Observe(d.Seconds())
}

func (r *Recorder) MarkCompleted(at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(at.Unix()))
}

// Push sends every collector to the Pushgateway at url under job. An empty
// url is a no-op.
func (r *Recorder) Push(url, job string) error {
	if r == nil || strings.TrimSpace(url) == "" {
		return nil
	}
	if strings.TrimSpace(job) == "" {
		job = DefaultJob
	}
	if err := push.New(strings.TrimSpace(url), job).Gatherer(r.reg).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
