package types

import (
	"net/url"
	"strings"
)

// CanonicalURL reduces a URL to its identity for deduplication: scheme,
// host, and path, with scheme and host lowercased, default ports dropped,
// any trailing slash trimmed, and the query and fragment discarded.
// Unparseable input canonicalizes to its trimmed self so the function is
// total.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}

	path := strings.TrimSuffix(u.EscapedPath(), "/")
	return scheme + "://" + host + path
}
