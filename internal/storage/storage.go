// Package storage persists country results. Backends implement one
// narrow interface and a fan-out wrapper drives any number of them; a
// run manifest is written alongside whatever backends are configured.
package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/engine"
)

// Storage is the interface for all persistence backends.
type Storage interface {
	// SaveCountry persists one finished country result.
	SaveCountry(result *engine.CountryResult) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// RunDir is the directory one run writes into: the configured output
// root plus the compact cutoff date, e.g. out/20250810.
func RunDir(cfg *config.Config) string {
	return filepath.Join(cfg.Run.OutputDir, strings.ReplaceAll(cfg.Run.Cutoff, "-", ""))
}

// Slugify converts a country name into a safe file stem: lowercased,
// with runs of anything outside [a-z0-9] collapsed to single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	if b.Len() == 0 {
		return "x"
	}
	return b.String()
}

// FromConfig assembles the configured backends plus the run manifest
// behind one fan-out storage. All backends of a run share one run ID.
func FromConfig(cfg *config.Config, logger *slog.Logger) (Storage, error) {
	runID := uuid.NewString()
	dir := RunDir(cfg)

	var backends []Storage
	fail := func(err error) (Storage, error) {
		for _, b := range backends {
			b.Close()
		}
		return nil, err
	}

	for _, name := range cfg.Storage.Backends {
		var (
			b   Storage
			err error
		)
		switch name {
		case "text":
			b, err = NewTextStorage(dir, logger)
		case "csv":
			b, err = NewIndexStorage(filepath.Join(dir, "_index.csv"), logger)
		case "jsonl":
			b, err = NewJSONLStorage(filepath.Join(dir, "results.jsonl"), logger)
		case "sqlite":
			path := cfg.Storage.SQLitePath
			if path == "" {
				path = filepath.Join(dir, "articles.db")
			}
			b, err = NewSQLiteStorage(path, runID, logger)
		case "mongodb":
			b, err = NewMongoStorage(cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, cfg.Storage.MongoCollection, runID, logger)
		default:
			err = fmt.Errorf("unsupported storage backend: %s", name)
		}
		if err != nil {
			return fail(fmt.Errorf("init storage %q: %w", name, err))
		}
		backends = append(backends, b)
	}

	manifest, err := NewManifestStorage(dir, runID, cfg.Run.Cutoff, logger)
	if err != nil {
		return fail(err)
	}
	backends = append(backends, manifest)

	return NewMultiStorage(backends, logger), nil
}
