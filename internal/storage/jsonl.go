package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/IshaanNene/PressGoat/internal/engine"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// JSONLStorage streams merged articles as newline-delimited JSON, one
// object per article with its country and cutoff attached.
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates the JSONL article stream (streaming writes).
func NewJSONLStorage(outputPath string, logger *slog.Logger) (*JSONLStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	return &JSONLStorage{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) SaveCountry(result *engine.CountryResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range result.Articles {
		entry := map[string]any{
			"country":   result.Country,
			"cutoff":    result.Cutoff,
			"source":    a.Source,
			"title":     a.Title,
			"url":       a.URL,
			"published": a.Published,
		}
		if a.FullText != "" {
			entry["full_text"] = a.FullText
		}
		if err := s.enc.Encode(entry); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: err}
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "articles", s.count)
	return s.file.Close()
}
