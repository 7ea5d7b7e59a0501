package sources

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/dates"
	"github.com/IshaanNene/PressGoat/internal/extract"
	"github.com/IshaanNene/PressGoat/internal/fetcher"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// AlJazeeraSource scrapes the Al Jazeera country listing. The page is a
// single card grid whose article URLs embed their dates, so there is no
// pagination and no secondary date fetching. Candidates go out with raw
// dates; the merger applies the cutoff.
type AlJazeeraSource struct {
	cfg     *config.AlJazeeraConfig
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// NewAlJazeera creates the Al Jazeera adapter with its own fetcher instance.
func NewAlJazeera(cfg *config.Config, logger *slog.Logger, opts ...Option) (*AlJazeeraSource, error) {
	o := buildOptions(opts)
	f, err := fetcher.NewHTTPFetcher(cfg, logger,
		fetcher.WithRateLimitBackoff(cfg.Sources.AlJazeera.RateLimitBackoff),
		fetcher.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}
	return &AlJazeeraSource{
		cfg:     &cfg.Sources.AlJazeera,
		fetcher: f,
		logger:  logger.With("component", "aljazeera"),
	}, nil
}

func (s *AlJazeeraSource) Kind() types.SourceKind { return types.KindAlJazeera }

func (s *AlJazeeraSource) Name() string { return "Al Jazeera" }

func (s *AlJazeeraSource) Close() error { return s.fetcher.Close() }

// FetchRecent fetches the /where/<term>/ listing once and keeps the news
// cards, newest first as the site orders them.
func (s *AlJazeeraSource) FetchRecent(ctx context.Context, req CollectRequest) ([]*types.Article, error) {
	if err := fetcher.SleepBetween(ctx, s.cfg.Delay.Min, s.cfg.Delay.Max); err != nil {
		return nil, err
	}

	r, err := types.NewRequest(s.cfg.BaseURL + "/where/" + whereSlug(req.Term) + "/")
	if err != nil {
		return nil, err
	}
	r.Tag = types.TagListing

	resp, err := s.fetcher.Fetch(ctx, r)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &types.FetchError{
			URL:        r.URLString(),
			StatusCode: resp.StatusCode,
			Err:        types.ErrAPIStatus,
		}
	}

	rows, err := s.parseCards(resp)
	if err != nil {
		return nil, err
	}

	rows = dedupRows(rows)
	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}

	articles := rowsToArticles(rows, s.Name())
	if req.FullText {
		s.fillBodies(ctx, articles)
	}

	s.logger.Debug("aljazeera fetch complete", "term", req.Term, "articles", len(articles))
	return articles, nil
}

// parseCards extracts the clickable article cards, keeping only news
// section links.
func (s *AlJazeeraSource) parseCards(resp *types.Response) ([]listingRow, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}

	var rows []listingRow
	doc.Find("a.u-clickable-card__link").Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		abs := absoluteURL(s.cfg.BaseURL, href)
		if !strings.Contains(abs, "/news/") {
			return
		}
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return
		}
		rows = append(rows, listingRow{
			Title: title,
			URL:   abs,
			Date:  dates.FromURL(abs),
		})
	})
	return rows, nil
}

// fillBodies fetches each article page and extracts its body. Failures
// leave FullText empty; collection continues.
func (s *AlJazeeraSource) fillBodies(ctx context.Context, articles []*types.Article) {
	for _, a := range articles {
		if err := fetcher.SleepBetween(ctx, s.cfg.Delay.Min, s.cfg.Delay.Max); err != nil {
			return
		}
		r, err := types.NewRequest(a.URL)
		if err != nil {
			continue
		}
		r.Tag = types.TagArticle

		resp, err := s.fetcher.Fetch(ctx, r)
		if err != nil || !resp.IsSuccess() {
			s.logger.Debug("body fetch failed", "url", a.URL, "error", err)
			continue
		}
		if body, err := extract.NewsArticleBody(resp); err == nil && body != "" {
			a.FullText = body
		}
	}
}

// whereSlug maps a country term onto the listing's path form.
func whereSlug(term string) string {
	slug := strings.ToLower(strings.TrimSpace(term))
	slug = strings.ReplaceAll(slug, "_", " ")
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
