package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/observability"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// Option adjusts adapter construction.
type Option func(*options)

type options struct {
	metrics *observability.Metrics
}

// WithMetrics shares one metrics collector across the adapters and the
// fetchers they build.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CollectRequest carries the per-country inputs of one collection call.
type CollectRequest struct {
	// Term is the country search term, e.g. "kenya" or "south-sudan".
	Term string

	// Cutoff is the inclusive lower bound, YYYY-MM-DD. Items with a known
	// date before it are out of the window.
	Cutoff string

	// Limit caps how many articles this source may contribute.
	Limit int

	// FullText requests article body retrieval where the source supports it.
	FullText bool
}

// Source is the adapter contract. Implementations return an ordered
// sequence of articles, newest first as far as the source's own ordering
// allows. A returned error means the source contributed nothing; the
// orchestrator downgrades it to a warning.
type Source interface {
	// Kind returns the adapter variant tag.
	Kind() types.SourceKind

	// Name returns the display tag stamped on produced articles.
	Name() string

	// FetchRecent collects up to req.Limit recent articles for the term.
	FetchRecent(ctx context.Context, req CollectRequest) ([]*types.Article, error)

	// Close releases the adapter's fetcher resources.
	Close() error
}

// FromConfig builds the enabled source adapters in configuration order.
// That order is the merge precedence: when two sources return the same
// canonical URL, the earlier source's copy survives deduplication.
func FromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) ([]Source, error) {
	if len(cfg.Sources.Enabled) == 0 {
		return nil, types.ErrNoSources
	}

	var list []Source
	for _, name := range cfg.Sources.Enabled {
		kind := types.SourceKind(name)
		if !types.ValidKind(kind) {
			closeAll(list, logger)
			return nil, fmt.Errorf("source %q: %w", name, types.ErrUnknownSource)
		}

		var (
			src Source
			err error
		)
		switch kind {
		case types.KindGuardian:
			src, err = NewGuardian(cfg, logger, opts...)
		case types.KindAlJazeera:
			src, err = NewAlJazeera(cfg, logger, opts...)
		case types.KindUNPress:
			src, err = NewUNPress(cfg, logger, opts...)
		case types.KindRSS:
			src, err = NewRSS(cfg, logger, opts...)
		}
		if err != nil {
			closeAll(list, logger)
			return nil, fmt.Errorf("init source %q: %w", name, err)
		}
		list = append(list, src)
	}
	return list, nil
}

func closeAll(list []Source, logger *slog.Logger) {
	for _, s := range list {
		if err := s.Close(); err != nil {
			logger.Warn("source close failed", "source", s.Kind(), "error", err)
		}
	}
}

// --- shared adapter helpers ---

// rowsToArticles converts listing rows to articles under one source tag.
func rowsToArticles(rows []listingRow, source string) []*types.Article {
	articles := make([]*types.Article, 0, len(rows))
	for _, r := range rows {
		articles = append(articles, &types.Article{
			Source:    source,
			Title:     r.Title,
			URL:       r.URL,
			Published: r.Date,
		})
	}
	return articles
}

// absoluteURL roots a relative href at the site base.
func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimSuffix(base, "/") + href
}
