package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/validate"
)

type countingValidator struct {
	calls atomic.Int32
	next  core.Validator
}

func (v *countingValidator) Validate(ctx context.Context, p core.Person) core.ValidationResult {
	v.calls.Add(1)
	return v.next.Validate(ctx, p)
}

func TestScenarios(t *testing.T) {
	t.Parallel()

	transient := func(int, string) (*core.Response, error) {
		return nil, &core.TransientError{Err: errors.New("service unavailable")}
	}

	cases := []struct {
		name            string
		today           core.Clock
		people          []core.Person
		reply           func(int, string) (*core.Response, error)
		wantValidations int32
		wantCalls       int
		wantSent        int
		wantErrorLogs   int
		wantDelays      []time.Duration
	}{
		{
			name:  "A birthday today",
			today: fixedClock(2025, time.April, 22),
			people: []core.Person{
				{FirstName: "Foo", LastName: "Bar", Email: "foo@example.com", DateOfBirth: date(2025, time.April, 22)},
			},
			wantValidations: 1,
			wantCalls:       1,
			wantSent:        1,
		},
		{
			name:  "B feb 28 greets feb 28 and feb 29 births",
			today: fixedClock(2025, time.February, 28),
			people: []core.Person{
				{FirstName: "Leap", LastName: "Day", Email: "leap@example.com", DateOfBirth: date(1996, time.February, 29)},
				{FirstName: "Eve", LastName: "Of", Email: "eve@example.com", DateOfBirth: date(1996, time.February, 28)},
			},
			wantValidations: 2,
			wantCalls:       2,
			wantSent:        2,
		},
		{
			name:  "C empty first name",
			today: fixedClock(2025, time.April, 22),
			people: []core.Person{
				{FirstName: "", LastName: "Bar", Email: "foo@example.com", DateOfBirth: date(1990, time.April, 22)},
			},
			wantValidations: 1,
			wantErrorLogs:   1,
		},
		{
			name:  "D transient failures exhaust retries",
			today: fixedClock(2025, time.April, 22),
			people: []core.Person{
				{FirstName: "Foo", LastName: "Bar", Email: "foo@example.com", DateOfBirth: date(1990, time.April, 22)},
			},
			reply:           transient,
			wantValidations: 1,
			wantCalls:       4,
			wantErrorLogs:   1,
			wantDelays:      []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second},
		},
		{
			name:  "E nobody matches",
			today: fixedClock(2025, time.April, 22),
			people: []core.Person{
				{FirstName: "Foo", LastName: "Bar", Email: "foo@example.com", DateOfBirth: date(1990, time.April, 23)},
				{FirstName: "No", LastName: "Date", Email: "nodate@example.com"},
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ch := &fakeChannel{reply: tc.reply}
			h := newHarness(t, tc.today, staticSource(tc.people...), ch)
			v := &countingValidator{next: validate.PersonValidator{}}
			h.greeter.validator = v

			sum := h.greeter.Run(context.Background())

			if got := v.calls.Load(); got != tc.wantValidations {
				t.Fatalf("validations = %d, want %d", got, tc.wantValidations)
			}
			if got := len(ch.Calls()); got != tc.wantCalls {
				t.Fatalf("delivery calls = %d, want %d", got, tc.wantCalls)
			}
			if sum.Sent != tc.wantSent {
				t.Fatalf("sent = %d, want %d (%+v)", sum.Sent, tc.wantSent, sum)
			}

			logs := parseLogs(t, h.logs)
			if got := len(logs.withMsg("Email sent")); got != tc.wantSent {
				t.Fatalf("success logs = %d, want %d", got, tc.wantSent)
			}
			errorLogs := 0
			for _, rec := range logs {
				if rec["level"] == "ERROR" {
					errorLogs++
				}
			}
			if errorLogs != tc.wantErrorLogs {
				t.Fatalf("error logs = %d, want %d", errorLogs, tc.wantErrorLogs)
			}

			if len(h.sleeps.delays) != len(tc.wantDelays) {
				t.Fatalf("delays = %v, want %v", h.sleeps.delays, tc.wantDelays)
			}
			for i := range tc.wantDelays {
				if h.sleeps.delays[i] != tc.wantDelays[i] {
					t.Fatalf("delay %d = %s, want %s", i, h.sleeps.delays[i], tc.wantDelays[i])
				}
			}
		})
	}
}
