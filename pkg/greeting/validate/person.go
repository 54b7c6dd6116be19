// Package validate checks the structural validity of person records.
package validate

import (
	"context"
	"net/mail"
	"strings"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
)

const (
	FieldFirstName = "FirstName"
	FieldEmail     = "Email"

	MsgFirstNameRequired = "First Name is required."
	MsgEmailRequired     = "Email is required."
	MsgEmailInvalid      = "Email must be a valid email address."
)

// PersonValidator enforces the contact fields a greeting needs. Birth dates
// are not checked here.
type PersonValidator struct{}

var _ core.Validator = PersonValidator{}

// Validate returns every violated rule, in rule order.
func (PersonValidator) Validate(_ context.Context, p core.Person) core.ValidationResult {
	var res core.ValidationResult
	if strings.TrimSpace(p.FirstName) == "" {
		res.Failures = append(res.Failures, core.ValidationFailure{Field: FieldFirstName, Message: MsgFirstNameRequired})
	}

	email := strings.TrimSpace(p.Email)
	switch {
	case email == "":
		res.Failures = append(res.Failures, core.ValidationFailure{Field: FieldEmail, Message: MsgEmailRequired})
	case !IsEmailAddress(email):
		res.Failures = append(res.Failures, core.ValidationFailure{Field: FieldEmail, Message: MsgEmailInvalid})
	}
	return res
}

// IsEmailAddress reports whether s is a bare addr-spec such as
// "jane@example.com". Display-name forms are rejected.
func IsEmailAddress(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == s
}
