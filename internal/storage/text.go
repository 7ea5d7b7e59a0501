package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/IshaanNene/PressGoat/internal/engine"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// TextStorage writes one human-readable report per country, a block per
// source in precedence order.
type TextStorage struct {
	dir    string
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewTextStorage creates the per-country text report backend.
func NewTextStorage(runDir string, logger *slog.Logger) (*TextStorage, error) {
	dir := filepath.Join(runDir, "text")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &TextStorage{
		dir:    dir,
		logger: logger.With("component", "text_storage"),
	}, nil
}

func (s *TextStorage) Name() string { return "text" }

func (s *TextStorage) SaveCountry(result *engine.CountryResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, Slugify(result.Country)+".txt")

	var b strings.Builder
	fmt.Fprintf(&b, "Country: %s | Cutoff: %s\n", result.Country, result.Cutoff)
	fmt.Fprintf(&b, "Articles: %d\n", len(result.Articles))
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}

	for _, section := range result.Sections {
		writeSection(&b, section)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	s.count++
	s.logger.Debug("country report written", "path", path, "articles", len(result.Articles))
	return nil
}

func writeSection(b *strings.Builder, section engine.Section) {
	rule := strings.Repeat("=", 30)
	fmt.Fprintf(b, "\n%s\n[%s]\n%s\n", rule, strings.ToUpper(section.Name), rule)

	if len(section.Articles) == 0 {
		fmt.Fprintf(b, "No %s results found.\n", section.Name)
		return
	}

	for i, a := range section.Articles {
		date := "date unknown"
		if a.HasDate() {
			date = a.Published
		}
		fmt.Fprintf(b, "%d) %s - %s (%s)\n", i+1, a.DisplayTitle(), a.Source, date)
		fmt.Fprintf(b, "   URL: %s\n", a.URL)
		if a.FullText != "" {
			fmt.Fprintf(b, "   Text: %s\n", a.FullText)
		}
		b.WriteByte('\n')
	}
}

func (s *TextStorage) Close() error {
	s.logger.Info("text reports written", "dir", s.dir, "countries", s.count)
	return nil
}
