package local

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
)

// FileSource loads people from a CSV file on disk for every call.
//
// A missing or unreadable file is logged and yields no people, so a run
// finishes without sending anything instead of failing.
type FileSource struct {
	Path   string
	Logger *slog.Logger
}

var _ core.RecordSource = (*FileSource)(nil)

func (s *FileSource) People(_ context.Context) ([]core.Person, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Error("The file does not exist.", "path", s.Path)
			return []core.Person{}, nil
		}
		logger.Error("An unexpected error occurred.", "path", s.Path, "error", err)
		return []core.Person{}, nil
	}
	defer func() {
		_ = f.Close()
	}()

	people, err := ReadPeopleCSV(f)
	if err != nil {
		logger.Error("Error reading CSV file.", "path", s.Path, "error", err)
		return []core.Person{}, nil
	}
	logger.Debug("loaded people from csv", "path", s.Path, "count", len(people))
	return people, nil
}
