package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Countries returns the country list for a run. Inline run.countries wins;
// otherwise run.countries_file is read, one country per line, blank lines
// and '#' comments skipped. Duplicates are dropped, order preserved.
func Countries(cfg *Config) ([]string, error) {
	var raw []string
	if len(cfg.Run.Countries) > 0 {
		raw = cfg.Run.Countries
	} else {
		fromFile, err := readCountriesFile(cfg.Run.CountriesFile)
		if err != nil {
			return nil, err
		}
		raw = fromFile
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no countries to collect")
	}
	return out, nil
}

func readCountriesFile(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("run.countries_file not set")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open countries file: %w", err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read countries file: %w", err)
	}
	return out, nil
}
