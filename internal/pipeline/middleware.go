package pipeline

import (
	"html"
	"regexp"
	"strings"

	"github.com/IshaanNene/PressGoat/internal/types"
)

// --- Text Cleanup Middleware ---

// TitleCleanMiddleware strips residual markup from titles: HTML tags,
// entities, and runs of whitespace.
type TitleCleanMiddleware struct {
	stripRe *regexp.Regexp
}

func NewTitleCleanMiddleware() *TitleCleanMiddleware {
	return &TitleCleanMiddleware{
		stripRe: regexp.MustCompile(`<[^>]*>`),
	}
}

func (m *TitleCleanMiddleware) Name() string { return "title_clean" }

func (m *TitleCleanMiddleware) Process(article *types.Article) (*types.Article, error) {
	article.Title = cleanText(m.stripRe, article.Title)
	return article, nil
}

// FullTextCleanMiddleware normalizes extracted body text. Whitespace is
// collapsed within paragraphs while the blank-line paragraph breaks
// survive.
type FullTextCleanMiddleware struct {
	stripRe *regexp.Regexp
}

func NewFullTextCleanMiddleware() *FullTextCleanMiddleware {
	return &FullTextCleanMiddleware{
		stripRe: regexp.MustCompile(`<[^>]*>`),
	}
}

func (m *FullTextCleanMiddleware) Name() string { return "fulltext_clean" }

func (m *FullTextCleanMiddleware) Process(article *types.Article) (*types.Article, error) {
	if article.FullText == "" {
		return article, nil
	}

	var paras []string
	for _, p := range strings.Split(article.FullText, "\n\n") {
		if cleaned := cleanText(m.stripRe, p); cleaned != "" {
			paras = append(paras, cleaned)
		}
	}
	article.FullText = strings.Join(paras, "\n\n")
	return article, nil
}

// cleanText strips HTML tags, decodes entities, and collapses whitespace.
func cleanText(stripRe *regexp.Regexp, s string) string {
	if s == "" {
		return ""
	}
	cleaned := stripRe.ReplaceAllString(s, "")
	cleaned = html.UnescapeString(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}
