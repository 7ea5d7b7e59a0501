package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/fetcher"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// RSSSource reads configured RSS/Atom feeds. A feed URL may embed a
// {query} placeholder that is replaced with the escaped country term;
// feeds without one are filtered by term match against item titles.
// Items arrive newest-first with native timestamps, so no walking is
// needed and the merger applies the cutoff.
type RSSSource struct {
	cfg     *config.RSSConfig
	parser  *gofeed.Parser
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// NewRSS creates the feed adapter with its own fetcher instance.
func NewRSS(cfg *config.Config, logger *slog.Logger, opts ...Option) (*RSSSource, error) {
	o := buildOptions(opts)
	f, err := fetcher.NewHTTPFetcher(cfg, logger, fetcher.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}
	return &RSSSource{
		cfg:     &cfg.Sources.RSS,
		parser:  gofeed.NewParser(),
		fetcher: f,
		logger:  logger.With("component", "rss"),
	}, nil
}

func (s *RSSSource) Kind() types.SourceKind { return types.KindRSS }

func (s *RSSSource) Name() string { return "RSS" }

func (s *RSSSource) Close() error { return s.fetcher.Close() }

// FetchRecent reads every configured feed in order until the limit is
// filled. A failing feed is skipped; the source only errors when no feed
// produced anything and at least one failed.
func (s *RSSSource) FetchRecent(ctx context.Context, req CollectRequest) ([]*types.Article, error) {
	var (
		articles []*types.Article
		firstErr error
	)
	for _, feedURL := range s.cfg.Feeds {
		items, err := s.fetchFeed(ctx, feedURL, req)
		if err != nil {
			s.logger.Warn("feed fetch failed", "feed", feedURL, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		articles = append(articles, items...)
		if req.Limit > 0 && len(articles) >= req.Limit {
			articles = articles[:req.Limit]
			break
		}
	}

	if len(articles) == 0 && firstErr != nil {
		return nil, firstErr
	}
	s.logger.Debug("rss fetch complete", "term", req.Term, "articles", len(articles))
	return articles, nil
}

// fetchFeed downloads and parses one feed, converting matching items.
func (s *RSSSource) fetchFeed(ctx context.Context, feedURL string, req CollectRequest) ([]*types.Article, error) {
	target := feedURL
	filterByTerm := true
	if strings.Contains(feedURL, "{query}") {
		target = strings.ReplaceAll(feedURL, "{query}", url.QueryEscape(searchTerm(req.Term)))
		filterByTerm = false
	}

	r, err := types.NewRequest(target)
	if err != nil {
		return nil, err
	}
	r.Tag = types.TagFeed
	r.Headers.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := s.fetcher.Fetch(ctx, r)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &types.FetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        types.ErrAPIStatus,
		}
	}

	feed, err := s.parser.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	sourceName := s.Name()
	if feed.Title != "" {
		sourceName = feed.Title
	}

	term := strings.ToLower(searchTerm(req.Term))
	var out []*types.Article
	for _, item := range feed.Items {
		if item.Link == "" || item.Title == "" {
			continue
		}
		if filterByTerm && !strings.Contains(strings.ToLower(item.Title), term) {
			continue
		}
		out = append(out, &types.Article{
			Source:    sourceName,
			Title:     item.Title,
			URL:       item.Link,
			Published: feedItemDate(item),
		})
		if req.Limit > 0 && len(out) >= req.Limit {
			break
		}
	}
	return out, nil
}

// feedItemDate prefers the parsed publication time, then the parsed
// update time, then the raw published string for the resolver downstream.
func feedItemDate(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return item.Published
}
