package core

import (
	"context"
	"net/http"
	"time"
)

// Person is one candidate record supplied by a RecordSource.
type Person struct {
	FirstName string
	LastName  string
	Email     string

	// DateOfBirth is nil when the source has no birth date for the person.
	// Only the calendar date is meaningful.
	DateOfBirth *time.Time
}

// Clock supplies the current date for a run.
type Clock interface {
	// Today returns the current date at midnight in the clock's location.
	Today() time.Time
	Now() time.Time
}

// RecordSource loads the full set of people for a run.
type RecordSource interface {
	People(ctx context.Context) ([]Person, error)
}

// RecordSourceFunc adapts a function to the RecordSource interface.
type RecordSourceFunc func(ctx context.Context) ([]Person, error)

func (f RecordSourceFunc) People(ctx context.Context) ([]Person, error) {
	return f(ctx)
}

// ValidationFailure is one violated rule for a field.
type ValidationFailure struct {
	Field   string
	Message string
}

// ValidationResult holds every rule a record violated, in rule order.
type ValidationResult struct {
	Failures []ValidationFailure
}

// Valid reports whether no rule was violated.
func (r ValidationResult) Valid() bool {
	return len(r.Failures) == 0
}

// Validator checks a single record's structural validity.
type Validator interface {
	Validate(ctx context.Context, p Person) ValidationResult
}

// Response is the transport-level answer to one delivery.
type Response struct {
	StatusCode int
	Status     string
	Body       string
	Header     http.Header
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode/100 == 2
}

// DeliveryChannel sends one greeting to one recipient.
//
// A returned error means the transport failed before producing a response
// and is eligible for retry. Any response, successful or not, is returned
// with a nil error.
type DeliveryChannel interface {
	Send(ctx context.Context, recipient, firstName string) (*Response, error)
}

// DeliveryFunc adapts a function to the DeliveryChannel interface.
type DeliveryFunc func(ctx context.Context, recipient, firstName string) (*Response, error)

func (f DeliveryFunc) Send(ctx context.Context, recipient, firstName string) (*Response, error) {
	return f(ctx, recipient, firstName)
}

// TransientError marks an error as a retryable transport failure.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
