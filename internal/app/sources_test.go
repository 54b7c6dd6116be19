package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/LoisM94/birthday-greeting/internal/config"
)

func TestOpenSource_CSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "people.csv")
	csv := "first_name,last_name,email,date_of_birth\nAda,Lovelace,ada@example.com,1815-12-10\n"
	if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	src, closeFn, err := OpenSource(context.Background(), config.SourceConfig{
		Kind: config.SourceCSV,
		CSV:  config.CSVConfig{Path: path},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	people, err := src.People(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(people) != 1 || people[0].Email != "ada@example.com" {
		t.Fatalf("unexpected people: %#v", people)
	}
}

func TestOpenSource_UnknownKind(t *testing.T) {
	t.Parallel()

	_, closeFn, err := OpenSource(context.Background(), config.SourceConfig{Kind: "ftp"}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	closeFn()
}
