package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks the configuration for invalid values. It runs before any
// network activity so a bad run setup fails fast.
func Validate(cfg *Config) error {
	if cfg.Run.Cutoff == "" {
		return fmt.Errorf("run.cutoff is required (YYYY-MM-DD)")
	}
	if _, err := time.Parse("2006-01-02", cfg.Run.Cutoff); err != nil {
		return fmt.Errorf("run.cutoff must be YYYY-MM-DD, got %q", cfg.Run.Cutoff)
	}
	if len(cfg.Run.Countries) == 0 && cfg.Run.CountriesFile == "" {
		return fmt.Errorf("no countries configured: set run.countries or run.countries_file")
	}
	if cfg.Run.Concurrency < 1 {
		return fmt.Errorf("run.concurrency must be >= 1, got %d", cfg.Run.Concurrency)
	}
	if cfg.Run.Concurrency > 64 {
		return fmt.Errorf("run.concurrency must be <= 64, got %d", cfg.Run.Concurrency)
	}
	if cfg.Run.RequestTimeout <= 0 {
		return fmt.Errorf("run.request_timeout must be > 0")
	}
	if cfg.Run.OutputDir == "" {
		return fmt.Errorf("run.output_dir must not be empty")
	}

	if len(cfg.Sources.Enabled) == 0 {
		return fmt.Errorf("sources.enabled must list at least one source")
	}
	validKinds := map[string]bool{
		"guardian": true, "aljazeera": true, "unpress": true, "rss": true,
	}
	seen := map[string]bool{}
	for _, kind := range cfg.Sources.Enabled {
		if !validKinds[kind] {
			return fmt.Errorf("sources.enabled contains unknown kind %q (valid: guardian, aljazeera, unpress, rss)", kind)
		}
		if seen[kind] {
			return fmt.Errorf("sources.enabled lists %q twice", kind)
		}
		seen[kind] = true
	}
	if seen["rss"] && len(cfg.Sources.RSS.Feeds) == 0 {
		return fmt.Errorf("sources.rss.feeds must not be empty when the rss source is enabled")
	}
	for _, limit := range []struct {
		name string
		val  int
	}{
		{"sources.guardian.limit", cfg.Sources.Guardian.Limit},
		{"sources.aljazeera.limit", cfg.Sources.AlJazeera.Limit},
		{"sources.unpress.limit", cfg.Sources.UNPress.Limit},
		{"sources.rss.limit", cfg.Sources.RSS.Limit},
	} {
		if limit.val < 1 {
			return fmt.Errorf("%s must be >= 1, got %d", limit.name, limit.val)
		}
	}
	for _, dr := range []struct {
		name string
		val  DelayRange
	}{
		{"sources.aljazeera.delay", cfg.Sources.AlJazeera.Delay},
		{"sources.unpress.listing_delay", cfg.Sources.UNPress.ListingDelay},
		{"sources.unpress.article_delay", cfg.Sources.UNPress.ArticleDelay},
	} {
		if dr.val.Min < 0 || dr.val.Max < dr.val.Min {
			return fmt.Errorf("%s must satisfy 0 <= min <= max", dr.name)
		}
	}
	if err := ValidateURL(cfg.Sources.Guardian.Endpoint); err != nil {
		return fmt.Errorf("sources.guardian.endpoint: %w", err)
	}
	if err := ValidateURL(cfg.Sources.AlJazeera.BaseURL); err != nil {
		return fmt.Errorf("sources.aljazeera.base_url: %w", err)
	}
	if err := ValidateURL(cfg.Sources.UNPress.BaseURL); err != nil {
		return fmt.Errorf("sources.unpress.base_url: %w", err)
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if len(cfg.Fetcher.UserAgents) == 0 {
		return fmt.Errorf("fetcher.user_agents must not be empty")
	}

	validBackends := map[string]bool{
		"text": true, "csv": true, "jsonl": true, "mongodb": true, "sqlite": true,
	}
	if len(cfg.Storage.Backends) == 0 {
		return fmt.Errorf("storage.backends must list at least one backend")
	}
	for _, backend := range cfg.Storage.Backends {
		if !validBackends[backend] {
			return fmt.Errorf("storage.backends contains unknown backend %q (valid: text, csv, jsonl, mongodb, sqlite)", backend)
		}
	}

	if cfg.AI.Enabled {
		validProviders := map[string]bool{
			"ollama": true, "openai": true, "custom": true,
		}
		if !validProviders[cfg.AI.Provider] {
			return fmt.Errorf("ai.provider must be ollama/openai/custom, got %q", cfg.AI.Provider)
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model must not be empty when ai is enabled")
		}
		if cfg.AI.InfoLimit < 1 {
			return fmt.Errorf("ai.info_limit must be >= 1, got %d", cfg.AI.InfoLimit)
		}
		if cfg.AI.EmailWordsMin < 1 || cfg.AI.EmailWordsMax < cfg.AI.EmailWordsMin {
			return fmt.Errorf("ai email word bounds must satisfy 1 <= min <= max")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a fetch target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
