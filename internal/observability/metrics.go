package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational metrics for the collector.
type Metrics struct {
	// Request metrics
	RequestsTotal   atomic.Int64
	RequestsFailed  atomic.Int64
	RequestsRetried atomic.Int64
	RateLimitHits   atomic.Int64

	// Response metrics
	Responses2xx atomic.Int64
	Responses3xx atomic.Int64
	Responses4xx atomic.Int64
	Responses5xx atomic.Int64

	// Article metrics
	ArticlesCollected   atomic.Int64
	ArticlesDroppedOld  atomic.Int64
	ArticlesDroppedDup  atomic.Int64
	ArticlesDroppedPipe atomic.Int64

	// Collection metrics
	CountriesCompleted atomic.Int64
	CountriesFailed    atomic.Int64
	SourcesFailed      atomic.Int64
	DateProbes         atomic.Int64

	// Engine metrics
	ActiveWorkers   atomic.Int32
	BytesDownloaded atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		typ   string
		value int64
	}{
		{"pressgoat_requests_total", "Total requests made", "counter", m.RequestsTotal.Load()},
		{"pressgoat_requests_failed_total", "Total failed requests", "counter", m.RequestsFailed.Load()},
		{"pressgoat_requests_retried_total", "Total retried requests", "counter", m.RequestsRetried.Load()},
		{"pressgoat_rate_limit_hits_total", "Total HTTP 429 responses", "counter", m.RateLimitHits.Load()},
		{"pressgoat_responses_2xx_total", "Total 2xx responses", "counter", m.Responses2xx.Load()},
		{"pressgoat_responses_3xx_total", "Total 3xx responses", "counter", m.Responses3xx.Load()},
		{"pressgoat_responses_4xx_total", "Total 4xx responses", "counter", m.Responses4xx.Load()},
		{"pressgoat_responses_5xx_total", "Total 5xx responses", "counter", m.Responses5xx.Load()},
		{"pressgoat_articles_collected_total", "Total articles kept after merging", "counter", m.ArticlesCollected.Load()},
		{"pressgoat_articles_dropped_old_total", "Total articles dropped as older than the cutoff", "counter", m.ArticlesDroppedOld.Load()},
		{"pressgoat_articles_dropped_dup_total", "Total articles dropped as cross-source duplicates", "counter", m.ArticlesDroppedDup.Load()},
		{"pressgoat_articles_dropped_pipeline_total", "Total articles dropped by the pipeline", "counter", m.ArticlesDroppedPipe.Load()},
		{"pressgoat_countries_completed_total", "Total countries collected", "counter", m.CountriesCompleted.Load()},
		{"pressgoat_countries_failed_total", "Total countries interrupted", "counter", m.CountriesFailed.Load()},
		{"pressgoat_sources_failed_total", "Total per-country source failures", "counter", m.SourcesFailed.Load()},
		{"pressgoat_date_probes_total", "Total article pages fetched to resolve listing dates", "counter", m.DateProbes.Load()},
		{"pressgoat_active_workers", "Currently active country workers", "gauge", int64(m.ActiveWorkers.Load())},
		{"pressgoat_bytes_downloaded_total", "Total bytes downloaded", "counter", m.BytesDownloaded.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.typ)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// CountResponse bumps the response class counter for an HTTP status.
func (m *Metrics) CountResponse(status int) {
	switch {
	case status >= 200 && status < 300:
		m.Responses2xx.Add(1)
	case status >= 300 && status < 400:
		m.Responses3xx.Add(1)
	case status >= 400 && status < 500:
		m.Responses4xx.Add(1)
	case status >= 500:
		m.Responses5xx.Add(1)
	}
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_total":            m.RequestsTotal.Load(),
		"requests_failed":           m.RequestsFailed.Load(),
		"requests_retried":          m.RequestsRetried.Load(),
		"rate_limit_hits":           m.RateLimitHits.Load(),
		"responses_2xx":             m.Responses2xx.Load(),
		"responses_3xx":             m.Responses3xx.Load(),
		"responses_4xx":             m.Responses4xx.Load(),
		"responses_5xx":             m.Responses5xx.Load(),
		"articles_collected":        m.ArticlesCollected.Load(),
		"articles_dropped_old":      m.ArticlesDroppedOld.Load(),
		"articles_dropped_dup":      m.ArticlesDroppedDup.Load(),
		"articles_dropped_pipeline": m.ArticlesDroppedPipe.Load(),
		"countries_completed":       m.CountriesCompleted.Load(),
		"countries_failed":          m.CountriesFailed.Load(),
		"sources_failed":            m.SourcesFailed.Load(),
		"date_probes":               m.DateProbes.Load(),
		"active_workers":            int64(m.ActiveWorkers.Load()),
		"bytes_downloaded":          m.BytesDownloaded.Load(),
	}
}
