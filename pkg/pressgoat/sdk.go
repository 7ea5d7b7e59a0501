// Package pressgoat provides a public SDK for embedding the collector as a
// library.
//
// Example usage:
//
//	collector := pressgoat.NewCollector(
//	    pressgoat.WithCutoff("2025-08-10"),
//	    pressgoat.WithCountries("South Sudan", "Kenya"),
//	    pressgoat.WithGuardianKey(os.Getenv("GUARDIAN_API_KEY")),
//	)
//	defer collector.Close()
//
//	results, err := collector.Collect(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, result := range results {
//	    fmt.Println(result.Country, len(result.Articles))
//	}
//
// Results stay in memory unless WithOutputDir or WithBackends asks for
// persistence.
package pressgoat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/engine"
	"github.com/IshaanNene/PressGoat/internal/storage"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// Article is a single collected article.
type Article = types.Article

// CountryResult holds everything collected for one country.
type CountryResult = engine.CountryResult

// Section is one source's contribution to a country result.
type Section = engine.Section

// Collector is the high-level API for running collections as a library.
type Collector struct {
	cfg     *config.Config
	logger  *slog.Logger
	eng     *engine.Engine
	persist bool
}

// Option configures a Collector.
type Option func(*Collector)

// WithCutoff sets the recency cutoff date, YYYY-MM-DD inclusive.
func WithCutoff(date string) Option {
	return func(c *Collector) { c.cfg.Run.Cutoff = date }
}

// WithCountries sets the countries to collect.
func WithCountries(countries ...string) Option {
	return func(c *Collector) { c.cfg.Run.Countries = countries }
}

// WithCountriesFile reads the countries list from a newline-delimited file.
func WithCountriesFile(path string) Option {
	return func(c *Collector) { c.cfg.Run.CountriesFile = path }
}

// WithSources selects the source adapters in precedence order.
func WithSources(kinds ...string) Option {
	return func(c *Collector) { c.cfg.Sources.Enabled = kinds }
}

// WithGuardianKey sets the Guardian content API key.
func WithGuardianKey(key string) Option {
	return func(c *Collector) { c.cfg.Sources.Guardian.APIKey = key }
}

// WithRSSFeeds enables the rss source with the given feed URLs, appended
// after the configured sources.
func WithRSSFeeds(urls ...string) Option {
	return func(c *Collector) {
		c.cfg.Sources.RSS.Feeds = urls
		for _, kind := range c.cfg.Sources.Enabled {
			if kind == "rss" {
				return
			}
		}
		c.cfg.Sources.Enabled = append(c.cfg.Sources.Enabled, "rss")
	}
}

// WithConcurrency sets the number of concurrent country workers.
func WithConcurrency(n int) Option {
	return func(c *Collector) { c.cfg.Run.Concurrency = n }
}

// WithFullText fetches and stores article body text.
func WithFullText() Option {
	return func(c *Collector) { c.cfg.Run.FullText = true }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Collector) { c.cfg.Run.RequestTimeout = d }
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Collector) { c.cfg.Fetcher.UserAgents = []string{ua} }
}

// WithOutputDir enables persistence and sets the output directory root.
func WithOutputDir(dir string) Option {
	return func(c *Collector) {
		c.cfg.Run.OutputDir = dir
		c.persist = true
	}
}

// WithBackends enables persistence with the given storage backends.
func WithBackends(backends ...string) Option {
	return func(c *Collector) {
		c.cfg.Storage.Backends = backends
		c.persist = true
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *Collector) { c.cfg.Logging.Level = "debug" }
}

// NewCollector creates a new Collector with the given options.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{cfg: config.DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}

	level := slog.LevelInfo
	if c.cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return c
}

// Collect runs a full collection for the configured countries. Results come
// back in the order the countries were configured.
func (c *Collector) Collect(ctx context.Context) ([]*CountryResult, error) {
	eng, err := c.ensureEngine()
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx)
}

// CollectCountry collects a single country. A Collector built without a
// countries list can be used this way directly.
func (c *Collector) CollectCountry(ctx context.Context, country string) (*CountryResult, error) {
	if len(c.cfg.Run.Countries) == 0 && c.cfg.Run.CountriesFile == "" {
		c.cfg.Run.Countries = []string{country}
	}
	eng, err := c.ensureEngine()
	if err != nil {
		return nil, err
	}
	return eng.Collect(ctx, country)
}

// Stats returns a snapshot of the collection counters.
func (c *Collector) Stats() map[string]int64 {
	if c.eng != nil {
		return c.eng.Metrics().Snapshot()
	}
	return nil
}

// Close releases sources and flushes storage. Safe to call before any
// collection ran.
func (c *Collector) Close() error {
	if c.eng == nil {
		return nil
	}
	return c.eng.Close()
}

// ensureEngine validates the config and builds the engine on first use.
func (c *Collector) ensureEngine() (*engine.Engine, error) {
	if c.eng != nil {
		return c.eng, nil
	}
	if err := config.Validate(c.cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var opts []engine.Option
	if c.persist {
		store, err := storage.FromConfig(c.cfg, c.logger)
		if err != nil {
			return nil, fmt.Errorf("create storage: %w", err)
		}
		opts = append(opts, engine.WithStorage(store))
	}

	eng, err := engine.New(c.cfg, c.logger, opts...)
	if err != nil {
		return nil, err
	}
	c.eng = eng
	return eng, nil
}
