package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/IshaanNene/PressGoat/internal/engine"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// RunManifest summarizes one run for downstream tooling.
type RunManifest struct {
	RunID      string           `json:"run_id"`
	Cutoff     string           `json:"cutoff"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Articles   int              `json:"articles"`
	Countries  []CountrySummary `json:"countries"`
}

// CountrySummary is one country's line in the run manifest.
type CountrySummary struct {
	Country  string   `json:"country"`
	Articles int      `json:"articles"`
	Warnings []string `json:"warnings,omitempty"`
}

// ManifestStorage accumulates per-country summaries and writes run.json
// when the run closes.
type ManifestStorage struct {
	path     string
	manifest RunManifest
	mu       sync.Mutex
	logger   *slog.Logger
}

// NewManifestStorage creates the manifest writer for one run.
func NewManifestStorage(runDir, runID, cutoff string, logger *slog.Logger) (*ManifestStorage, error) {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &ManifestStorage{
		path: filepath.Join(runDir, "run.json"),
		manifest: RunManifest{
			RunID:     runID,
			Cutoff:    cutoff,
			StartedAt: time.Now().UTC(),
		},
		logger: logger.With("component", "manifest"),
	}, nil
}

func (s *ManifestStorage) Name() string { return "manifest" }

func (s *ManifestStorage) SaveCountry(result *engine.CountryResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.manifest.Countries = append(s.manifest.Countries, CountrySummary{
		Country:  result.Country,
		Articles: len(result.Articles),
		Warnings: result.Warnings,
	})
	s.manifest.Articles += len(result.Articles)
	return nil
}

func (s *ManifestStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.manifest.FinishedAt = time.Now().UTC()

	f, err := os.Create(s.path)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&s.manifest); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.logger.Info("run manifest written", "path", s.path, "countries", len(s.manifest.Countries))
	return nil
}
