package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Aggregate concatenates the per-country info and email files of a run into
// all_info.txt and all_emails.txt at the run directory root, one block per
// country under a "=== Country ===" header. Directories the digest stage
// never produced are skipped.
func Aggregate(runDir string) error {
	if _, err := os.Stat(runDir); err != nil {
		return fmt.Errorf("run directory: %w", err)
	}
	if err := catDir(filepath.Join(runDir, "info"), filepath.Join(runDir, "all_info.txt")); err != nil {
		return err
	}
	return catDir(filepath.Join(runDir, "emails"), filepath.Join(runDir, "all_emails.txt"))
}

func catDir(srcDir, outPath string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var buf bytes.Buffer
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(srcDir, entry.Name()))
		if err != nil {
			return err
		}
		slug := strings.TrimSuffix(entry.Name(), ".txt")
		fmt.Fprintf(&buf, "=== %s ===\n%s\n\n", slugToTitle(slug), strings.TrimRight(string(content), "\n"))
	}
	return os.WriteFile(outPath, buf.Bytes(), 0o644)
}

// slugToTitle turns "south-sudan" back into "South Sudan". Slugs only carry
// ASCII letters, digits and hyphens, so byte-level casing is safe.
func slugToTitle(slug string) string {
	words := strings.Split(strings.ReplaceAll(slug, "_", "-"), "-")
	var out []string
	for _, w := range words {
		if w == "" {
			continue
		}
		out = append(out, strings.ToUpper(w[:1])+w[1:])
	}
	return strings.Join(out, " ")
}
