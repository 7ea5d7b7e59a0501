package pipeline

import (
	"log/slog"
	"strings"

	"github.com/IshaanNene/PressGoat/internal/dates"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// Middleware processes an article and returns the (possibly modified)
// article. Return nil to drop the article from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms an article. Return nil to drop the article.
	Process(article *types.Article) (*types.Article, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default returns the standard normalization chain applied to every
// collected article: title cleanup, body cleanup, date canonicalization,
// and required-field filtering.
func Default(logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(NewTitleCleanMiddleware())
	p.Use(NewFullTextCleanMiddleware())
	p.Use(&DateNormalizeMiddleware{})
	p.Use(&RequiredFieldsMiddleware{})
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the article through all middleware in order.
func (p *Pipeline) Process(article *types.Article) (*types.Article, error) {
	current := article

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:   mw.Name(),
				Article: current,
				Err:     err,
			}
		}
		if result == nil {
			// Article dropped by middleware
			p.logger.Debug("article dropped", "stage", mw.Name(), "url", article.URL)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// RequiredFieldsMiddleware drops articles without a title or a URL.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(article *types.Article) (*types.Article, error) {
	if strings.TrimSpace(article.Title) == "" || strings.TrimSpace(article.URL) == "" {
		return nil, nil // Drop article
	}
	return article, nil
}

// DateNormalizeMiddleware rewrites Published into canonical YYYY-MM-DD
// form. Values that do not resolve become unknown (empty) instead of
// passing through in a foreign format.
type DateNormalizeMiddleware struct{}

func (m *DateNormalizeMiddleware) Name() string { return "date_normalize" }

func (m *DateNormalizeMiddleware) Process(article *types.Article) (*types.Article, error) {
	article.Published = dates.Resolve(article.Published)
	return article, nil
}
