package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/dates"
	"github.com/IshaanNene/PressGoat/internal/fetcher"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// maxGuardianPageSize is the content API's page-size ceiling.
const maxGuardianPageSize = 50

// GuardianSource queries the Guardian content API. The API sorts
// newest-first server-side, so a single request per country suffices and
// its ordering is passed through untouched.
type GuardianSource struct {
	cfg     *config.GuardianConfig
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// NewGuardian creates the Guardian adapter with its own fetcher instance.
func NewGuardian(cfg *config.Config, logger *slog.Logger, opts ...Option) (*GuardianSource, error) {
	o := buildOptions(opts)
	f, err := fetcher.NewHTTPFetcher(cfg, logger,
		fetcher.WithRateLimitBackoff(cfg.Sources.Guardian.RateLimitBackoff),
		fetcher.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}
	return &GuardianSource{
		cfg:     &cfg.Sources.Guardian,
		fetcher: f,
		logger:  logger.With("component", "guardian"),
	}, nil
}

func (s *GuardianSource) Kind() types.SourceKind { return types.KindGuardian }

func (s *GuardianSource) Name() string { return "The Guardian" }

func (s *GuardianSource) Close() error { return s.fetcher.Close() }

// guardianEnvelope mirrors the content API response shape.
type guardianEnvelope struct {
	Response struct {
		Status  string `json:"status"`
		Results []struct {
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			Fields             struct {
				BodyText string `json:"bodyText"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// FetchRecent issues one newest-first search against the content API.
// Dates come from webPublicationDate, with the article URL as a fallback
// when that field does not resolve. Any failure surfaces as an error for
// the orchestrator to absorb.
func (s *GuardianSource) FetchRecent(ctx context.Context, req CollectRequest) ([]*types.Article, error) {
	if s.cfg.APIKey == "" {
		return nil, types.ErrMissingAPIKey
	}

	pageSize := req.Limit
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxGuardianPageSize {
		pageSize = maxGuardianPageSize
	}

	q := url.Values{}
	q.Set("q", req.Term)
	q.Set("order-by", "newest")
	q.Set("page-size", strconv.Itoa(pageSize))
	q.Set("page", "1")
	q.Set("api-key", s.cfg.APIKey)
	if req.FullText {
		q.Set("show-fields", "bodyText")
	}

	r, err := types.NewRequest(s.cfg.Endpoint + "?" + q.Encode())
	if err != nil {
		return nil, err
	}
	r.Tag = types.TagAPI
	r.Headers.Set("Accept", "application/json")

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

	var envelope guardianEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decode guardian response: %w", err)
	}
	if envelope.Response.Status != "ok" {
		return nil, fmt.Errorf("guardian status %q: %w", envelope.Response.Status, types.ErrAPIStatus)
	}

	articles := make([]*types.Article, 0, len(envelope.Response.Results))
	for _, res := range envelope.Response.Results {
		published := dates.Resolve(res.WebPublicationDate)
		if published == "" {
			published = dates.FromURL(res.WebURL)
		}
		articles = append(articles, &types.Article{
			Source:    s.Name(),
			Title:     res.WebTitle,
			URL:       res.WebURL,
			Published: published,
			FullText:  res.Fields.BodyText,
		})
		if req.Limit > 0 && len(articles) >= req.Limit {
			break
		}
	}

	s.logger.Debug("guardian fetch complete", "term", req.Term, "articles", len(articles))
	return articles, nil
}
