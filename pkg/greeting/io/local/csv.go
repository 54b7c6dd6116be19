package local

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
)

// Column names of the people CSV layout.
const (
	ColumnFirstName   = "first_name"
	ColumnLastName    = "last_name"
	ColumnEmail       = "email"
	ColumnDateOfBirth = "date_of_birth"
)

// dateLayouts are tried in order for the date_of_birth column.
var dateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ReadPeopleCSV reads people from a CSV with a header row containing
// first_name, last_name, email and date_of_birth. Header names are matched
// case-insensitively after trimming; values are trimmed of spaces and
// non-breaking spaces. An empty date_of_birth yields a nil DateOfBirth.
func ReadPeopleCSV(r io.Reader) ([]core.Person, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{
		ColumnFirstName:   -1,
		ColumnLastName:    -1,
		ColumnEmail:       -1,
		ColumnDateOfBirth: -1,
	}
	for i, col := range header {
		name := strings.ToLower(trimValue(col))
		if pos, ok := idx[name]; ok && pos < 0 {
			idx[name] = i
		}
	}
	for _, col := range []string{ColumnFirstName, ColumnLastName, ColumnEmail, ColumnDateOfBirth} {
		if idx[col] < 0 {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var people []core.Person
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if isBlankRecord(rec) {
			continue
		}

		get := func(col string) string {
			i := idx[col]
			if i >= len(rec) {
				return ""
			}
			return trimValue(rec[i])
		}

		dob, err := ParseDate(get(ColumnDateOfBirth))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		people = append(people, core.Person{
			FirstName:   get(ColumnFirstName),
			LastName:    get(ColumnLastName),
			Email:       get(ColumnEmail),
			DateOfBirth: dob,
		})
	}
	return people, nil
}

// ParseDate parses a birth date in one of the accepted layouts. Blank input
// returns nil without error.
func ParseDate(s string) (*time.Time, error) {
	s = trimValue(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			y, m, d := t.Date()
			out := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("invalid %s %q", ColumnDateOfBirth, s)
}

func trimValue(s string) string {
	return strings.Trim(s, " \u00a0\t")
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if trimValue(v) != "" {
			return false
		}
	}
	return true
}
