package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LoisM94/birthday-greeting/internal/metrics"
)

func counterValue(t *testing.T, r *metrics.Recorder, name, outcome string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if outcome == "" {
				if m.GetCounter() != nil {
					return m.GetCounter().GetValue()
				}
				return m.GetGauge().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRecorder_Counts(t *testing.T) {
	t.Parallel()

	r := metrics.New()
	r.ObservePeople(10, 3)
	r.ObserveOutcome(metrics.OutcomeSent)
	r.ObserveOutcome(metrics.OutcomeSent)
	r.ObserveOutcome(metrics.OutcomeNoResponse)
	r.ObserveAttempt(10 * time.Millisecond)
	r.ObserveAttempt(20 * time.Millisecond)

	if got := counterValue(t, r, "greeter_outcomes_total", metrics.OutcomeSent); got != 2 {
		t.Fatalf("sent = %v, want 2", got)
	}
	if got := counterValue(t, r, "greeter_outcomes_total", metrics.OutcomeNoResponse); got != 1 {
		t.Fatalf("no_response = %v, want 1", got)
	}
	if got := counterValue(t, r, "greeter_delivery_attempts_total", ""); got != 2 {
		t.Fatalf("attempts = %v, want 2", got)
	}
	if got := counterValue(t, r, "greeter_candidates", ""); got != 3 {
		t.Fatalf("candidates = %v, want 3", got)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	t.Parallel()

	var r *metrics.Recorder
	r.ObservePeople(1, 1)
	r.ObserveOutcome(metrics.OutcomeFailed)
	r.ObserveAttempt(time.Second)
	r.MarkCompleted(time.Now())
	if err := r.Push("http://127.0.0.1:1", "job"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecorder_Push(t *testing.T) {
	t.Parallel()

	type request struct {
		method string
		path   string
		body   string
	}
	got := make(chan request, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- request{method: r.Method, path: r.URL.Path, body: string(b)}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	r := metrics.New()
	r.ObserveOutcome(metrics.OutcomeSent)
	r.MarkCompleted(time.Now())
	if err := r.Push(ts.URL, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := <-got
	if req.method != http.MethodPut {
		t.Fatalf("expected PUT, got %s", req.method)
	}
	if req.path != "/metrics/job/"+metrics.DefaultJob {
		t.Fatalf("unexpected path: %s", req.path)
	}
	if !strings.Contains(req.body, "greeter_outcomes_total") {
		t.Fatalf("expected outcome metric in push body")
	}
}

func TestRecorder_PushEmptyURLIsNoop(t *testing.T) {
	t.Parallel()

	if err := metrics.New().Push("  ", "job"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
