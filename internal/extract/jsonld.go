package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minBodyWords is the floor below which an extracted body is considered
// boilerplate rather than article text.
const minBodyWords = 40

var jsonLDArticleTypes = map[string]bool{
	"NewsArticle": true,
	"Article":     true,
	"Report":      true,
}

// bodiesFromJSONLD parses every <script type="application/ld+json"> element
// and collects the article bodies of NewsArticle/Article/Report nodes.
func bodiesFromJSONLD(doc *goquery.Document) []string {
	var bodies []string

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		// Try parsing as single object
		var single map[string]any
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			if b := articleBodyOf(single); b != "" {
				bodies = append(bodies, b)
			}
			return
		}

		// Try parsing as array
		var arr []map[string]any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			for _, obj := range arr {
				if b := articleBodyOf(obj); b != "" {
					bodies = append(bodies, b)
				}
			}
		}
	})

	return bodies
}

// articleBodyOf pulls articleBody (or text) from one JSON-LD node.
func articleBodyOf(obj map[string]any) string {
	if !isArticleType(obj["@type"]) {
		return ""
	}
	for _, key := range []string{"articleBody", "text"} {
		switch v := obj[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case []any:
			var parts []string
			for _, e := range v {
				if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "\n\n")
			}
		}
	}
	return ""
}

func isArticleType(v any) bool {
	switch t := v.(type) {
	case string:
		return jsonLDArticleTypes[t]
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && jsonLDArticleTypes[s] {
				return true
			}
		}
	}
	return false
}

// bestJSONLDBody returns the longest JSON-LD article body when it clears
// the word floor, "" otherwise.
func bestJSONLDBody(doc *goquery.Document) string {
	best := ""
	for _, b := range bodiesFromJSONLD(doc) {
		if wordCount(b) > wordCount(best) {
			best = b
		}
	}
	if wordCount(best) > minBodyWords {
		return best
	}
	return ""
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
