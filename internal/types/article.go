package types

import (
	"encoding/json"
	"html"
	"strings"
)

// SourceKind identifies one of the built-in source adapter variants.
// The set is closed: adapters are selected by this tag in configuration,
// there is no plugin or registration mechanism.
type SourceKind string

const (
	KindGuardian  SourceKind = "guardian"
	KindAlJazeera SourceKind = "aljazeera"
	KindUNPress   SourceKind = "unpress"
	KindRSS       SourceKind = "rss"
)

// ValidKind reports whether k names a known adapter variant.
func ValidKind(k SourceKind) bool {
	switch k {
	case KindGuardian, KindAlJazeera, KindUNPress, KindRSS:
		return true
	}
	return false
}

// Article is a single collected news item.
//
// Published is either a full ISO-8601 instant, a bare YYYY-MM-DD date, or
// empty when the source never exposed a usable date. Consumers that need a
// comparable date must reduce it through the dates package rather than
// parsing it locally.
type Article struct {
	// Source is the display tag of the producing source, e.g. "The Guardian".
	Source string `json:"source"`

	// Title may carry HTML entities as published; DisplayTitle unescapes.
	Title string `json:"title"`

	// URL is the article link. Canonical-URL equality (scheme+host+path)
	// is the cross-source identity used for deduplication.
	URL string `json:"url"`

	// Published is the raw recorded publication date, empty when unknown.
	Published string `json:"published,omitempty"`

	// FullText is the extracted body text when full-text collection is on.
	FullText string `json:"full_text,omitempty"`
}

// DisplayTitle returns the title with HTML entities decoded and
// surrounding whitespace trimmed, for human-facing output.
func (a *Article) DisplayTitle() string {
	return strings.TrimSpace(html.UnescapeString(a.Title))
}

// HasDate reports whether any publication date was recorded.
func (a *Article) HasDate() bool {
	return strings.TrimSpace(a.Published) != ""
}

// ToJSON serializes the article.
func (a *Article) ToJSON() ([]byte, error) {
	return json.Marshal(a)
}

// Clone returns a copy, so callers can mutate backfilled fields without
// aliasing surprises.
func (a *Article) Clone() *Article {
	clone := *a
	return &clone
}
