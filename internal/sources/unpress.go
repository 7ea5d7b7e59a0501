package sources

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/dates"
	"github.com/IshaanNene/PressGoat/internal/extract"
	"github.com/IshaanNene/PressGoat/internal/fetcher"
	"github.com/IshaanNene/PressGoat/internal/observability"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// UNPressSource walks the UN Press sitesearch listing. The listing sorts
// by date but offers no server-side date filter, so the paginated walk
// with its resolution budget and boundary detection does the filtering.
type UNPressSource struct {
	cfg     *config.UNPressConfig
	fetcher fetcher.Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewUNPress creates the UN Press adapter with its own fetcher instance.
func NewUNPress(cfg *config.Config, logger *slog.Logger, opts ...Option) (*UNPressSource, error) {
	o := buildOptions(opts)
	f, err := fetcher.NewHTTPFetcher(cfg, logger,
		fetcher.WithRateLimitBackoff(cfg.Sources.UNPress.RateLimitBackoff),
		fetcher.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}
	return &UNPressSource{
		cfg:     &cfg.Sources.UNPress,
		fetcher: f,
		logger:  logger.With("component", "unpress"),
		metrics: o.metrics,
	}, nil
}

func (s *UNPressSource) Kind() types.SourceKind { return types.KindUNPress }

func (s *UNPressSource) Name() string { return "UN Press" }

func (s *UNPressSource) Close() error { return s.fetcher.Close() }

// FetchRecent walks the listing for the term and converts the surviving
// rows to articles, optionally filling press release bodies.
func (s *UNPressSource) FetchRecent(ctx context.Context, req CollectRequest) ([]*types.Article, error) {
	rows, err := walkListing(ctx, s, req, s.logger)
	if err != nil {
		return nil, err
	}

	articles := rowsToArticles(rows, s.Name())
	if req.FullText {
		s.fillBodies(ctx, articles)
	}

	s.logger.Debug("unpress fetch complete", "term", req.Term, "articles", len(articles))
	return articles, nil
}

// FetchPage fetches and parses one sitesearch result page.
func (s *UNPressSource) FetchPage(ctx context.Context, term string, page int) ([]listingRow, error) {
	if err := fetcher.SleepBetween(ctx, s.cfg.ListingDelay.Min, s.cfg.ListingDelay.Max); err != nil {
		return nil, err
	}

	r, err := types.NewRequest(s.listingURL(term, page))
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

	return s.parseRows(resp)
}

// FetchItemDate fetches one press release page and extracts a date from
// its time elements or meta tags. Any failure reads as "no date".
func (s *UNPressSource) FetchItemDate(ctx context.Context, rawURL string) string {
	if s.metrics != nil {
		s.metrics.DateProbes.Add(1)
	}
	if err := fetcher.SleepBetween(ctx, s.cfg.ArticleDelay.Min, s.cfg.ArticleDelay.Max); err != nil {
		return ""
	}

	r, err := types.NewRequest(rawURL)
	if err != nil {
		return ""
	}
	r.Tag = types.TagArticle

	resp, err := s.fetcher.Fetch(ctx, r)
	if err != nil || !resp.IsSuccess() {
		s.logger.Debug("item date fetch failed", "url", rawURL, "error", err)
		return ""
	}
	return extract.PageDate(resp)
}

// listingURL builds the sitesearch URL. The site counts pages from zero
// in the query string while the walk counts from one: page 1 carries no
// page parameter and page N sends page=N-1.
func (s *UNPressSource) listingURL(term string, page int) string {
	q := url.Values{}
	q.Set("search_api_fulltext", searchTerm(term))
	q.Set("sort_by", "field_dated")
	if page > 1 {
		q.Set("page", strconv.Itoa(page-1))
	}
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + "/en/sitesearch?" + q.Encode()
}

// parseRows extracts search result rows: the result article nodes, their
// first anchor, and whatever date the row itself carries.
func (s *UNPressSource) parseRows(resp *types.Response) ([]listingRow, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}

	nodes := doc.Find("article.node--view-mode-search-results")
	if nodes.Length() == 0 {
		nodes = doc.Find("article.node")
	}

	var rows []listingRow
	nodes.Each(func(i int, sel *goquery.Selection) {
		anchor := sel.Find("a[href]").First()
		href, ok := anchor.Attr("href")
		if !ok || href == "" {
			return
		}
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			return
		}
		rows = append(rows, listingRow{
			Title: title,
			URL:   absoluteURL(s.cfg.BaseURL, href),
			Date:  rowDate(sel),
		})
	})
	return rows, nil
}

// rowDate pulls a publication date out of a listing row: a <time>
// datetime attribute, the time element's text, or a DD Month YYYY match
// anywhere in the row text.
func rowDate(sel *goquery.Selection) string {
	timeEl := sel.Find("time").First()
	if dt, ok := timeEl.Attr("datetime"); ok {
		if d := dates.Resolve(dt); d != "" {
			return d
		}
	}
	if d := dates.FromText(timeEl.Text()); d != "" {
		return d
	}
	return dates.FromText(sel.Text())
}

// fillBodies fetches each press release page and extracts its body text.
func (s *UNPressSource) fillBodies(ctx context.Context, articles []*types.Article) {
	for _, a := range articles {
		if err := fetcher.SleepBetween(ctx, s.cfg.ArticleDelay.Min, s.cfg.ArticleDelay.Max); err != nil {
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
		if body, err := extract.PressReleaseBody(resp); err == nil && body != "" {
			a.FullText = body
		}
	}
}

// searchTerm converts config-style terms ("south-sudan") into the space
// separated form sitesearch expects.
func searchTerm(term string) string {
	term = strings.ReplaceAll(term, "-", " ")
	term = strings.ReplaceAll(term, "_", " ")
	return strings.TrimSpace(term)
}
