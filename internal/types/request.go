package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Request tags describing what kind of page a fetch targets.
const (
	TagAPI     = "api"
	TagListing = "listing"
	TagArticle = "article"
	TagFeed    = "feed"
)

// Request represents a single HTTP fetch issued by a source adapter.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Headers are the HTTP headers to send. Adapters own their header
	// profiles; the fetcher only fills gaps (User-Agent, Accept-Encoding).
	Headers http.Header

	// Body is the request body, nil for GET.
	Body []byte

	// Timeout overrides the fetcher's request timeout when positive.
	Timeout time.Duration

	// Tag categorizes the fetch: TagAPI, TagListing, TagArticle, TagFeed.
	Tag string

	// FetcherType selects the transport: "http" or "browser".
	FetcherType string

	// Meta stores arbitrary metadata attached to this request.
	Meta map[string]any

	// CreatedAt is when this request was created.
	CreatedAt time.Time

	// ID is a unique identifier for this request.
	ID string
}

// NewRequest creates a GET Request with sensible defaults.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	return &Request{
		URL:         u,
		Method:      http.MethodGet,
		Headers:     make(http.Header),
		FetcherType: "http",
		Meta:        make(map[string]any),
		CreatedAt:   time.Now(),
		ID:          uuid.NewString(),
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the hostname of the request URL.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}

// Clone creates a deep copy of the request. The retry path uses this so a
// resend never observes header mutations from the first attempt.
func (r *Request) Clone() *Request {
	clone := *r
	if r.URL != nil {
		u := *r.URL
		clone.URL = &u
	}
	clone.Headers = r.Headers.Clone()
	clone.Meta = make(map[string]any, len(r.Meta))
	for k, v := range r.Meta {
		clone.Meta[k] = v
	}
	clone.Body = append([]byte(nil), r.Body...)
	return &clone
}
