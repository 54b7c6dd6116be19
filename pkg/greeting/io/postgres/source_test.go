package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestSelectQuery(t *testing.T) {
	t.Parallel()

	q, err := SelectQuery("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(q, "FROM people ") {
		t.Fatalf("expected default table, got %q", q)
	}

	q, err = SelectQuery("crm.contacts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(q, "FROM crm.contacts ") {
		t.Fatalf("expected schema-qualified table, got %q", q)
	}

	for _, bad := range []string{"people; DROP TABLE people", "1people", "a.b.c", "peo-ple"} {
		if _, err := SelectQuery(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

// Requires a reachable database; set GREETER_TEST_DATABASE_URL to run.
func TestSource_Live(t *testing.T) {
	url := os.Getenv("GREETER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("GREETER_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	src, err := Open(ctx, Config{URL: url, Table: "greeter_test_people"}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		_ = src.Close()
	}()

	stmts := []string{
		`DROP TABLE IF EXISTS greeter_test_people`,
		`CREATE TABLE greeter_test_people (first_name text, last_name text, email text, date_of_birth date)`,
		`INSERT INTO greeter_test_people VALUES ('John', 'Doe', 'john@example.com', '1990-05-10'), ('Jane', 'Roe', 'jane@example.com', NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := src.db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	defer func() {
		_, _ = src.db.ExecContext(ctx, `DROP TABLE IF EXISTS greeter_test_people`)
	}()

	people, err := src.People(ctx)
	if err != nil {
		t.Fatalf("people: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("expected 2 people, got %#v", people)
	}
	if people[0].FirstName != "John" || people[0].DateOfBirth == nil || people[0].DateOfBirth.Day() != 10 {
		t.Fatalf("unexpected first person: %#v", people[0])
	}
	if people[1].DateOfBirth != nil {
		t.Fatalf("expected nil date of birth, got %v", people[1].DateOfBirth)
	}
}
