// Package clock provides the wall clock used to decide whose birthday it is.
package clock

import (
	"fmt"
	"strings"
	"time"
)

// System reads the host clock in a fixed location.
type System struct {
	loc *time.Location
}

// New returns a clock for the named IANA zone. An empty name means the
// host's local zone.
func New(zone string) (*System, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return &System{loc: time.Local}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &System{loc: loc}, nil
}

func (c *System) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *System) Today() time.Time {
	return StartOfDay(c.Now())
}

// Fixed is a clock frozen at one instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

func (f Fixed) Today() time.Time {
	return StartOfDay(time.Time(f))
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
