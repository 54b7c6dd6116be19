package local_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/io/local"
)

func TestFileSource(t *testing.T) {
	t.Run("loads people", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "people.csv")
		content := "first_name,last_name,email,date_of_birth\nJohn,Doe,john@example.com,1990-05-10\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write csv: %v", err)
		}

		src := &local.FileSource{Path: path, Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}
		got, err := src.People(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Email != "john@example.com" {
			t.Fatalf("unexpected people: %#v", got)
		}
	})

	t.Run("missing file yields no people and logs error", func(t *testing.T) {
		var logs bytes.Buffer
		src := &local.FileSource{
			Path:   filepath.Join(t.TempDir(), "missing.csv"),
			Logger: slog.New(slog.NewTextHandler(&logs, nil)),
		}
		got, err := src.People(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no people, got %#v", got)
		}
		if !strings.Contains(logs.String(), "level=ERROR") || !strings.Contains(logs.String(), "The file does not exist.") {
			t.Fatalf("expected error log, got %q", logs.String())
		}
	})

	t.Run("malformed file yields no people and logs error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "people.csv")
		if err := os.WriteFile(path, []byte("name\nJohn\n"), 0o600); err != nil {
			t.Fatalf("write csv: %v", err)
		}
		var logs bytes.Buffer
		src := &local.FileSource{Path: path, Logger: slog.New(slog.NewTextHandler(&logs, nil))}
		got, err := src.People(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no people, got %#v", got)
		}
		if !strings.Contains(logs.String(), "Error reading CSV file.") {
			t.Fatalf("expected error log, got %q", logs.String())
		}
	})
}
