package storage

import (
	"log/slog"

	"github.com/IshaanNene/PressGoat/internal/engine"
)

// MultiStorage fans every country result out to multiple backends.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

// SaveCountry hands the result to every backend. All backends run; the
// first error is the one returned.
func (s *MultiStorage) SaveCountry(result *engine.CountryResult) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.SaveCountry(result); err != nil {
			s.logger.Error("backend save failed", "backend", backend.Name(), "country", result.Country, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiStorage) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil {
			s.logger.Error("backend close failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
