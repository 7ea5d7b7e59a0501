// Package engine orchestrates collection runs. A run fans each country
// out across the enabled sources, funnels every article through the
// processing pipeline, and reduces the per-source lists into one
// deduplicated, newest-first result per country.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/observability"
	"github.com/IshaanNene/PressGoat/internal/pipeline"
	"github.com/IshaanNene/PressGoat/internal/sources"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// Storage persists finished country results. Implementations live in the
// storage package; the engine only needs this surface.
type Storage interface {
	SaveCountry(result *CountryResult) error
	Close() error
	Name() string
}

// Section is one source's contribution to a country, kept apart for
// per-source reporting. A failed source still gets a section so reports
// show it came up empty.
type Section struct {
	Kind     string           `json:"kind"`
	Name     string           `json:"name"`
	Articles []*types.Article `json:"articles"`
}

// CountryResult is the outcome of collecting one country.
type CountryResult struct {
	Country  string           `json:"country"`
	Cutoff   string           `json:"cutoff"`
	Articles []*types.Article `json:"articles"`
	Sections []Section        `json:"sections,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
	Elapsed  time.Duration    `json:"elapsed"`
}

// Engine drives collection runs.
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	sources  []sources.Source
	pipeline *pipeline.Pipeline
	storage  Storage
	metrics  *observability.Metrics
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithStorage attaches a persistence backend. Without one, results are
// only returned in memory.
func WithStorage(s Storage) Option {
	return func(e *Engine) { e.storage = s }
}

// WithMetrics shares a metrics collector with the engine and every
// fetcher it builds.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSources injects prebuilt source adapters, replacing the ones the
// configuration would select.
func WithSources(srcs []sources.Source) Option {
	return func(e *Engine) { e.sources = srcs }
}

// WithPipeline replaces the default processing pipeline.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(e *Engine) { e.pipeline = p }
}

// New builds an engine from configuration: source adapters in precedence
// order, the default pipeline, and a metrics collector.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    cfg,
		logger: logger.With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = observability.NewMetrics(logger)
	}
	if e.pipeline == nil {
		e.pipeline = pipeline.Default(logger)
	}
	if e.sources == nil {
		srcs, err := sources.FromConfig(cfg, logger, sources.WithMetrics(e.metrics))
		if err != nil {
			return nil, err
		}
		e.sources = srcs
	}
	return e, nil
}

// Metrics exposes the engine's counters.
func (e *Engine) Metrics() *observability.Metrics { return e.metrics }

// Run collects every configured country through a bounded worker pool
// and persists each result as it completes. Cancelling the context stops
// new countries from starting; the results already collected are still
// returned, along with the context's error.
func (e *Engine) Run(ctx context.Context) ([]*CountryResult, error) {
	countries, err := config.Countries(e.cfg)
	if err != nil {
		return nil, err
	}

	workers := e.cfg.Run.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(countries) {
		workers = len(countries)
	}

	e.logger.Info("run starting",
		"countries", len(countries),
		"cutoff", e.cfg.Run.Cutoff,
		"sources", len(e.sources),
		"workers", workers,
	)

	type job struct {
		index   int
		country string
	}

	jobs := make(chan job)
	results := make([]*CountryResult, len(countries))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger := e.logger.With("worker_id", id)
			for j := range jobs {
				e.metrics.ActiveWorkers.Add(1)
				result, err := e.Collect(ctx, j.country)
				e.metrics.ActiveWorkers.Add(-1)

				results[j.index] = result
				if err != nil {
					e.metrics.CountriesFailed.Add(1)
					logger.Warn("country interrupted", "country", j.country, "error", err)
				} else {
					e.metrics.CountriesCompleted.Add(1)
				}
				e.persist(result, logger)
			}
		}(w)
	}

feed:
	for i, country := range countries {
		select {
		case jobs <- job{index: i, country: country}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	out := make([]*CountryResult, 0, len(countries))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}

	e.logger.Info("run finished",
		"countries", len(out),
		"articles", e.metrics.ArticlesCollected.Load(),
		"source_failures", e.metrics.SourcesFailed.Load(),
	)
	return out, ctx.Err()
}

// Collect runs one country through every source, the pipeline, and the
// merge. Source failures become warnings on the result rather than
// errors; the returned error is non-nil only when the context ended.
func (e *Engine) Collect(ctx context.Context, country string) (*CountryResult, error) {
	start := time.Now()
	result := &CountryResult{
		Country: country,
		Cutoff:  e.cfg.Run.Cutoff,
	}

	e.logger.Info("country starting", "country", country, "cutoff", result.Cutoff)

	type outcome struct {
		articles []*types.Article
		err      error
	}
	outcomes := make([]outcome, len(e.sources))

	var wg sync.WaitGroup
	for i, src := range e.sources {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			articles, err := src.FetchRecent(ctx, sources.CollectRequest{
				Term:     country,
				Cutoff:   result.Cutoff,
				Limit:    e.sourceLimit(src.Kind()),
				FullText: e.cfg.Run.FullText,
			})
			outcomes[i] = outcome{articles: articles, err: err}
		}(i, src)
	}
	wg.Wait()

	// The one place a source failure turns into a warning.
	lists := make([][]*types.Article, 0, len(e.sources))
	for i, src := range e.sources {
		section := Section{Kind: string(src.Kind()), Name: src.Name()}
		if err := outcomes[i].err; err != nil {
			srcErr := &types.SourceError{Source: section.Kind, Country: country, Err: err}
			result.Warnings = append(result.Warnings, srcErr.Error())
			result.Sections = append(result.Sections, section)
			e.metrics.SourcesFailed.Add(1)
			e.logger.Warn("source failed", "source", section.Kind, "country", country, "error", err)
			continue
		}

		fresh, droppedOld := FilterFresh(e.process(outcomes[i].articles), result.Cutoff)
		e.metrics.ArticlesDroppedOld.Add(int64(droppedOld))
		section.Articles = fresh
		result.Sections = append(result.Sections, section)
		lists = append(lists, fresh)
	}

	merged, stats := Merge(lists, result.Cutoff)
	result.Articles = merged
	result.Elapsed = time.Since(start)

	e.metrics.ArticlesCollected.Add(int64(len(merged)))
	e.metrics.ArticlesDroppedOld.Add(int64(stats.DroppedOld))
	e.metrics.ArticlesDroppedDup.Add(int64(stats.DroppedDup))

	e.logger.Info("country finished",
		"country", country,
		"articles", len(merged),
		"duplicates", stats.DroppedDup,
		"warnings", len(result.Warnings),
		"elapsed", result.Elapsed,
	)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// process runs articles through the pipeline, dropping rejects.
func (e *Engine) process(articles []*types.Article) []*types.Article {
	if e.pipeline == nil {
		return articles
	}
	out := make([]*types.Article, 0, len(articles))
	for _, a := range articles {
		processed, err := e.pipeline.Process(a)
		if err != nil {
			e.metrics.ArticlesDroppedPipe.Add(1)
			e.logger.Warn("pipeline rejected article", "url", a.URL, "error", err)
			continue
		}
		if processed == nil {
			e.metrics.ArticlesDroppedPipe.Add(1)
			continue
		}
		out = append(out, processed)
	}
	return out
}

// sourceLimit returns the per-source article cap from configuration.
func (e *Engine) sourceLimit(kind types.SourceKind) int {
	switch kind {
	case types.KindGuardian:
		return e.cfg.Sources.Guardian.Limit
	case types.KindAlJazeera:
		return e.cfg.Sources.AlJazeera.Limit
	case types.KindUNPress:
		return e.cfg.Sources.UNPress.Limit
	case types.KindRSS:
		return e.cfg.Sources.RSS.Limit
	default:
		return 0
	}
}

func (e *Engine) persist(result *CountryResult, logger *slog.Logger) {
	if e.storage == nil || result == nil {
		return
	}
	if err := e.storage.SaveCountry(result); err != nil {
		logger.Error("persist failed", "country", result.Country, "error", err)
	}
}

// Close releases the engine's sources and storage.
func (e *Engine) Close() error {
	var firstErr error
	for _, s := range e.sources {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.storage != nil {
		if err := e.storage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
