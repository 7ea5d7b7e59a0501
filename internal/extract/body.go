package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PressGoat/internal/types"
)

// newsBodySelectors is tried in order against news article pages; the
// first container whose cleaned paragraphs clear the word floor wins.
var newsBodySelectors = []string{
	"article [data-component='article-body']",
	"article .wysiwyg",
	"article .article-p-wrapper",
	"article .article-body",
	"article .article__body",
	"article .longform-body",
	"article [itemprop='articleBody']",
	"article",
}

// pressBodySelectors is tried in order against press release pages.
var pressBodySelectors = []string{
	"div.field--name-body",
	"div[property='content:encoded']",
	"article",
}

// pressStopMarker ends press release body extraction; everything after it
// is media-contact boilerplate.
const pressStopMarker = "for information media"

// NewsArticleBody extracts the readable body of a news article page.
// JSON-LD article nodes are preferred; failing those, a selector waterfall
// over known body containers, and as a last resort every paragraph on the
// page. An empty result is not an error.
func NewsArticleBody(resp *types.Response) (string, error) {
	doc, err := resp.Document()
	if err != nil {
		return "", err
	}

	if body := bestJSONLDBody(doc); body != "" {
		return body, nil
	}

	for _, sel := range newsBodySelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		paras := cleanParagraphs(node)
		if wordCount(strings.Join(paras, " ")) > minBodyWords {
			return strings.Join(paras, "\n\n"), nil
		}
	}

	return strings.Join(cleanParagraphs(doc.Selection), "\n\n"), nil
}

// PressReleaseBody extracts the body of a press release page, stopping at
// the media-contact marker.
func PressReleaseBody(resp *types.Response) (string, error) {
	doc, err := resp.Document()
	if err != nil {
		return "", err
	}

	root := doc.Selection
	for _, sel := range pressBodySelectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			root = node
			break
		}
	}

	var paras []string
	root.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			return true
		}
		if strings.HasPrefix(strings.ToLower(txt), pressStopMarker) {
			return false
		}
		paras = append(paras, txt)
		return true
	})

	return strings.Join(paras, "\n\n"), nil
}

// cleanParagraphs collects paragraph texts under sel, dropping newsletter
// prompts, syndication footers, and repeated paragraphs.
func cleanParagraphs(sel *goquery.Selection) []string {
	var paras []string
	seen := make(map[string]bool)

	sel.Find("p").Each(func(i int, s *goquery.Selection) {
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			return
		}
		low := strings.ToLower(txt)
		if strings.Contains(low, "sign up for") && strings.Contains(low, "newsletter") {
			return
		}
		if strings.HasPrefix(low, "follow al jazeera") ||
			strings.HasPrefix(low, "recommended stories") ||
			strings.HasPrefix(low, "source: al jazeera") {
			return
		}
		if seen[txt] {
			return
		}
		seen[txt] = true
		paras = append(paras, txt)
	})

	return paras
}
