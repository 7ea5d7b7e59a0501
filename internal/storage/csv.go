package storage

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/IshaanNene/PressGoat/internal/engine"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// indexHeader is the audit index column order.
var indexHeader = []string{"country", "source", "title", "url", "published", "cutoff"}

// IndexStorage appends every merged article to one flat CSV spanning the
// whole run, so a run can be audited without opening per-country files.
type IndexStorage struct {
	path   string
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewIndexStorage creates the flat CSV audit index.
func NewIndexStorage(outputPath string, logger *slog.Logger) (*IndexStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(indexHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write CSV header: %w", err)
	}

	return &IndexStorage{
		path:   outputPath,
		file:   f,
		writer: w,
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *IndexStorage) Name() string { return "csv" }

func (s *IndexStorage) SaveCountry(result *engine.CountryResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range result.Articles {
		row := []string{result.Country, a.Source, a.Title, a.URL, a.Published, result.Cutoff}
		if err := s.writer.Write(row); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: err}
		}
		s.count++
	}

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	return nil
}

func (s *IndexStorage) Close() error {
	s.writer.Flush()
	s.logger.Info("CSV index written", "path", s.path, "rows", s.count)
	return s.file.Close()
}
