package integration

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/engine"
	"github.com/IshaanNene/PressGoat/internal/fetcher"
	"github.com/IshaanNene/PressGoat/internal/sources"
	"github.com/IshaanNene/PressGoat/internal/storage"
	"github.com/IshaanNene/PressGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func skipUnlessLive(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping live test")
	}
	if os.Getenv("PRESSGOAT_LIVE") == "" {
		t.Skip("set PRESSGOAT_LIVE=1 to run tests against live sources")
	}
}

func liveConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Run.Cutoff = time.Now().AddDate(0, 0, -14).Format("2006-01-02")
	if key := os.Getenv("GUARDIAN_API_KEY"); key != "" {
		cfg.Sources.Guardian.APIKey = key
	}
	return cfg
}

func logArticles(t *testing.T, articles []*types.Article) {
	t.Helper()
	for _, a := range articles {
		date := a.Published
		if date == "" {
			date = "?"
		}
		t.Logf("  [%s] %s (%s)", a.Source, a.DisplayTitle(), date)
	}
}

// TestLiveFetch tests fetching a real listing page.
func TestLiveFetch(t *testing.T) {
	skipUnlessLive(t)

	cfg := liveConfig()
	f, err := fetcher.NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("create fetcher: %v", err)
	}
	defer f.Close()

	req, _ := types.NewRequest("https://www.aljazeera.com/where/kenya/")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := f.Fetch(ctx, req)
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}

	t.Logf("Status: %d", resp.StatusCode)
	t.Logf("Content-Type: %s", resp.ContentType)
	t.Logf("Body size: %d bytes", len(resp.Body))
	t.Logf("Duration: %s", resp.FetchDuration)

	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if len(resp.Body) < 1000 {
		t.Error("body too short for a listing page")
	}
}

// TestLiveGuardian tests the Guardian content API adapter.
func TestLiveGuardian(t *testing.T) {
	skipUnlessLive(t)

	cfg := liveConfig()
	src, err := sources.NewGuardian(cfg, testLogger)
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	articles, err := src.FetchRecent(ctx, sources.CollectRequest{
		Term:   "Kenya",
		Cutoff: cfg.Run.Cutoff,
		Limit:  5,
	})
	if err != nil {
		t.Fatalf("fetch recent: %v", err)
	}

	t.Logf("Guardian: %d articles", len(articles))
	logArticles(t, articles)

	if len(articles) == 0 {
		t.Error("expected at least one Guardian article for Kenya in a two-week window")
	}
	for _, a := range articles {
		if a.URL == "" || a.Title == "" {
			t.Errorf("incomplete article: %+v", a)
		}
		if a.Source != "The Guardian" {
			t.Errorf("source tag = %q", a.Source)
		}
	}
}

// TestLiveAlJazeera tests the Al Jazeera listing adapter.
func TestLiveAlJazeera(t *testing.T) {
	skipUnlessLive(t)

	cfg := liveConfig()
	src, err := sources.NewAlJazeera(cfg, testLogger)
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	articles, err := src.FetchRecent(ctx, sources.CollectRequest{
		Term:   "Kenya",
		Cutoff: cfg.Run.Cutoff,
		Limit:  5,
	})
	if err != nil {
		t.Fatalf("fetch recent: %v", err)
	}

	t.Logf("Al Jazeera: %d articles", len(articles))
	logArticles(t, articles)

	for _, a := range articles {
		if a.URL == "" || a.Title == "" {
			t.Errorf("incomplete article: %+v", a)
		}
	}
}

// TestLiveUNPress tests the UN Press listing adapter, including its
// fetch-budgeted date probing.
func TestLiveUNPress(t *testing.T) {
	skipUnlessLive(t)

	cfg := liveConfig()
	cfg.Sources.UNPress.Limit = 8

	src, err := sources.NewUNPress(cfg, testLogger)
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	articles, err := src.FetchRecent(ctx, sources.CollectRequest{
		Term:   "South Sudan",
		Cutoff: cfg.Run.Cutoff,
		Limit:  8,
	})
	if err != nil {
		t.Fatalf("fetch recent: %v", err)
	}

	t.Logf("UN Press: %d articles", len(articles))
	logArticles(t, articles)
}

// TestLiveRSS tests the RSS supplement against the UN News feed.
func TestLiveRSS(t *testing.T) {
	skipUnlessLive(t)

	cfg := liveConfig()
	cfg.Sources.RSS.Feeds = []string{"https://news.un.org/feed/subscribe/en/news/all/rss.xml"}

	src, err := sources.NewRSS(cfg, testLogger)
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	articles, err := src.FetchRecent(ctx, sources.CollectRequest{
		Term:   "Sudan",
		Cutoff: cfg.Run.Cutoff,
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("fetch recent: %v", err)
	}

	t.Logf("RSS: %d articles", len(articles))
	logArticles(t, articles)

	for _, a := range articles {
		if a.URL == "" || a.Title == "" {
			t.Errorf("incomplete article: %+v", a)
		}
	}
}

// TestLiveCollect runs a full single-country collection with storage.
func TestLiveCollect(t *testing.T) {
	skipUnlessLive(t)

	cfg := liveConfig()
	cfg.Run.Countries = []string{"Kenya"}
	cfg.Run.OutputDir = t.TempDir()
	cfg.Storage.Backends = []string{"text", "csv", "jsonl"}

	store, err := storage.FromConfig(cfg, testLogger)
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	eng, err := engine.New(cfg, testLogger, engine.WithStorage(store))
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	results, err := eng.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Errorf("close: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	result := results[0]
	t.Logf("Kenya: %d articles, %d sections, %d warnings, elapsed %s",
		len(result.Articles), len(result.Sections), len(result.Warnings), result.Elapsed)
	logArticles(t, result.Articles)
	for _, w := range result.Warnings {
		t.Logf("  warning: %s", w)
	}

	snap := eng.Metrics().Snapshot()
	t.Logf("Results:")
	t.Logf("  Requests:  %v sent, %v failed", snap["requests_total"], snap["requests_failed"])
	t.Logf("  Articles:  %v kept, %v stale, %v duplicate",
		snap["articles_collected"], snap["articles_dropped_old"], snap["articles_dropped_dup"])
	t.Logf("  Data:      %v bytes", snap["bytes_downloaded"])

	if snap["requests_total"] < 1 {
		t.Error("expected at least 1 request sent")
	}

	runDir := storage.RunDir(cfg)
	for _, path := range []string{
		filepath.Join(runDir, "text", "kenya.txt"),
		filepath.Join(runDir, "_index.csv"),
		filepath.Join(runDir, "results.jsonl"),
		filepath.Join(runDir, "run.json"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}
}
