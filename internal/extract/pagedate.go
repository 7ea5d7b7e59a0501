package extract

import (
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/IshaanNene/PressGoat/internal/dates"
	"github.com/IshaanNene/PressGoat/internal/types"
)

var metaDateXPaths = []string{
	"//meta[@property='article:published_time']",
	"//meta[@name='date']",
	"//meta[@name='pubdate']",
}

// PageDate extracts a publication date from an article page: <time>
// datetime attributes first, then <time> text, then the usual meta tags.
// Returns "" when no date is recognized.
func PageDate(resp *types.Response) string {
	node, err := resp.HTMLNode()
	if err != nil {
		return ""
	}

	times := htmlquery.Find(node, "//time")
	for _, t := range times {
		if dt := strings.TrimSpace(htmlquery.SelectAttr(t, "datetime")); dt != "" {
			if d := resolveEither(dt); d != "" {
				return d
			}
		}
	}
	for _, t := range times {
		if d := dates.FromText(htmlquery.InnerText(t)); d != "" {
			return d
		}
	}

	for _, xp := range metaDateXPaths {
		for _, m := range htmlquery.Find(node, xp) {
			content := strings.TrimSpace(htmlquery.SelectAttr(m, "content"))
			if content == "" {
				continue
			}
			if d := resolveEither(content); d != "" {
				return d
			}
		}
	}

	return ""
}

func resolveEither(raw string) string {
	if d := dates.Resolve(raw); d != "" {
		return d
	}
	return dates.FromText(raw)
}
