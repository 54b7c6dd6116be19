// Package birthday decides which people have a birthday on a given date.
package birthday

import (
	"time"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
)

// Matches reports whether a person born on dob celebrates on today.
//
// On February 28 people born on February 29 match as well, so leap-day
// births are greeted in non-leap years. On February 29 itself only leap-day
// births match.
func Matches(dob *time.Time, today time.Time) bool {
	if dob == nil {
		return false
	}
	if dob.Month() != today.Month() {
		return false
	}
	if isFebruary28(today) {
		return dob.Day() == 28 || dob.Day() == 29
	}
	return dob.Day() == today.Day()
}

// Filter returns the people whose birthday is today, in input order.
func Filter(people []core.Person, today time.Time) []core.Person {
	var out []core.Person
	for _, p := range people {
		if Matches(p.DateOfBirth, today) {
			out = append(out, p)
		}
	}
	return out
}

func isFebruary28(t time.Time) bool {
	return t.Month() == time.February && t.Day() == 28
}
