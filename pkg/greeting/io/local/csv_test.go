package local_test

import (
	"strings"
	"testing"
	"time"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/io/local"
)

func TestReadPeopleCSV(t *testing.T) {
	t.Run("reads all columns", func(t *testing.T) {
		in := "first_name,last_name,email,date_of_birth\nJohn,Doe,john@example.com,1990-05-10\nJane,Roe,jane@example.com,\n"
		got, err := local.ReadPeopleCSV(strings.NewReader(in))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 people, got %#v", got)
		}
		if got[0].FirstName != "John" || got[0].LastName != "Doe" || got[0].Email != "john@example.com" {
			t.Fatalf("unexpected person: %#v", got[0])
		}
		if got[0].DateOfBirth == nil || !got[0].DateOfBirth.Equal(time.Date(1990, time.May, 10, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected date of birth: %v", got[0].DateOfBirth)
		}
		if got[1].DateOfBirth != nil {
			t.Fatalf("expected nil date of birth, got %v", got[1].DateOfBirth)
		}
	})

	t.Run("trims headers and values including non-breaking spaces", func(t *testing.T) {
		in := " First_Name , last_name,email\u00a0,date_of_birth\n\u00a0John\u00a0, Doe, john@example.com , 1990-05-10\n"
		got, err := local.ReadPeopleCSV(strings.NewReader(in))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].FirstName != "John" || got[0].Email != "john@example.com" || got[0].DateOfBirth == nil {
			t.Fatalf("unexpected people: %#v", got)
		}
	})

	t.Run("columns in any order", func(t *testing.T) {
		in := "email,date_of_birth,first_name,last_name\nfoo@example.com,02/29/1996,Foo,Bar\n"
		got, err := local.ReadPeopleCSV(strings.NewReader(in))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].FirstName != "Foo" || got[0].DateOfBirth.Day() != 29 {
			t.Fatalf("unexpected people: %#v", got)
		}
	})

	t.Run("skips blank rows", func(t *testing.T) {
		in := "first_name,last_name,email,date_of_birth\n,,,\nJohn,Doe,john@example.com,1990-05-10\n"
		got, err := local.ReadPeopleCSV(strings.NewReader(in))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 person, got %#v", got)
		}
	})

	t.Run("missing header column errors", func(t *testing.T) {
		in := "first_name,email\nJohn,john@example.com\n"
		if _, err := local.ReadPeopleCSV(strings.NewReader(in)); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid date errors", func(t *testing.T) {
		in := "first_name,last_name,email,date_of_birth\nJohn,Doe,john@example.com,not-a-date\n"
		_, err := local.ReadPeopleCSV(strings.NewReader(in))
		if err == nil || !strings.Contains(err.Error(), "row 2") {
			t.Fatalf("expected row error, got %v", err)
		}
	})

	t.Run("empty input errors", func(t *testing.T) {
		if _, err := local.ReadPeopleCSV(strings.NewReader("")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"1996-02-29", "1996/02/29", "02/29/1996", "2/29/1996", "1996-02-29T00:00:00Z", "1996-02-29 00:00:00"} {
		got, err := local.ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q): unexpected error: %v", in, err)
		}
		if got.Year() != 1996 || got.Month() != time.February || got.Day() != 29 {
			t.Fatalf("ParseDate(%q) = %s", in, got)
		}
	}

	got, err := local.ParseDate("  ")
	if err != nil || got != nil {
		t.Fatalf("expected nil date for blank input, got %v, %v", got, err)
	}
}
