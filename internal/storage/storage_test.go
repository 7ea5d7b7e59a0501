package storage

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/engine"
	"github.com/IshaanNene/PressGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sampleResult() *engine.CountryResult {
	articles := []*types.Article{
		{Source: "The Guardian", Title: "Flood relief arrives", URL: "https://site.example/news/flood", Published: "2025-08-14", FullText: "Relief supplies reached the city."},
		{Source: "UN Press", Title: "Security Council meets", URL: "https://press.example/sc-123"},
	}
	return &engine.CountryResult{
		Country:  "South Sudan",
		Cutoff:   "2025-08-10",
		Articles: articles,
		Sections: []engine.Section{
			{Kind: "guardian", Name: "The Guardian", Articles: articles[:1]},
			{Kind: "unpress", Name: "UN Press", Articles: articles[1:]},
			{Kind: "rss", Name: "RSS"},
		},
		Warnings: []string{`source rss failed for "South Sudan": connection refused`},
	}
}

// --- Slugify Tests ---

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"South Sudan", "south-sudan"},
		{"  Kenya  ", "kenya"},
		{"Bosnia & Herzegovina", "bosnia-herzegovina"},
		{"Côte d'Ivoire", "c-te-d-ivoire"},
		{"UK", "uk"},
		{"!!!", "x"},
		{"", "x"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestRunDir(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Run.OutputDir = "out"
	cfg.Run.Cutoff = "2025-08-10"

	want := filepath.Join("out", "20250810")
	if got := RunDir(cfg); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// --- Text Report Tests ---

func TestTextStorageWritesReport(t *testing.T) {
	dir := t.TempDir()
	ts, err := NewTextStorage(dir, testLogger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ts.SaveCountry(sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := ts.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "text", "south-sudan.txt"))
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"Country: South Sudan | Cutoff: 2025-08-10",
		"Articles: 2",
		"Warning: source rss failed",
		"[THE GUARDIAN]",
		"1) Flood relief arrives - The Guardian (2025-08-14)",
		"URL: https://site.example/news/flood",
		"Text: Relief supplies reached the city.",
		"[UN PRESS]",
		"1) Security Council meets - UN Press (date unknown)",
		"[RSS]",
		"No RSS results found.",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("report missing %q\n---\n%s", want, content)
		}
	}
}

// --- CSV Index Tests ---

func TestIndexStorageRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_index.csv")
	cs, err := NewIndexStorage(path, testLogger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cs.SaveCountry(sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := cs.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("index not written: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "country,source,title,url,published,cutoff" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	want := []string{"South Sudan", "The Guardian", "Flood relief arrives", "https://site.example/news/flood", "2025-08-14", "2025-08-10"}
	for i, cell := range want {
		if rows[1][i] != cell {
			t.Errorf("row 1 column %d: expected %q, got %q", i, cell, rows[1][i])
		}
	}
	if rows[2][4] != "" {
		t.Errorf("expected empty published for undated article, got %q", rows[2][4])
	}
}

// --- JSONL Tests ---

func TestJSONLStorageLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	js, err := NewJSONLStorage(path, testLogger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := js.SaveCountry(sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := js.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("jsonl not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("bad json line: %v", err)
	}
	if first["country"] != "South Sudan" || first["source"] != "The Guardian" {
		t.Errorf("unexpected first line: %v", first)
	}
	if _, ok := first["full_text"]; !ok {
		t.Error("expected full_text on the first line")
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("bad json line: %v", err)
	}
	if _, ok := second["full_text"]; ok {
		t.Error("expected no full_text key on the bodyless article")
	}
}

// --- SQLite Tests ---

func TestSQLiteStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.db")
	ss, err := NewSQLiteStorage(path, "run-1", testLogger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ss.SaveCountry(sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var n int
	if err := ss.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE run_id = ?`, "run-1").Scan(&n); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}

	var source string
	if err := ss.db.QueryRow(`SELECT source FROM articles WHERE url = ?`, "https://press.example/sc-123").Scan(&source); err != nil {
		t.Fatalf("source query: %v", err)
	}
	if source != "UN Press" {
		t.Errorf("expected UN Press, got %q", source)
	}

	if err := ss.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

// --- Manifest Tests ---

func TestManifestStorage(t *testing.T) {
	dir := t.TempDir()
	ms, err := NewManifestStorage(dir, "run-7", "2025-08-10", testLogger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ms.SaveCountry(sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := ms.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "run.json"))
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}

	var m RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("bad manifest json: %v", err)
	}
	if m.RunID != "run-7" || m.Cutoff != "2025-08-10" {
		t.Errorf("unexpected manifest identity: %+v", m)
	}
	if m.Articles != 2 || len(m.Countries) != 1 {
		t.Errorf("unexpected totals: %+v", m)
	}
	if len(m.Countries[0].Warnings) != 1 {
		t.Errorf("expected the warning carried into the manifest, got %v", m.Countries[0].Warnings)
	}
	if m.FinishedAt.IsZero() {
		t.Error("expected a finish timestamp")
	}
}

// --- Fan-Out Tests ---

type stubBackend struct {
	name   string
	err    error
	saves  int
	closed bool
}

func (s *stubBackend) SaveCountry(*engine.CountryResult) error { s.saves++; return s.err }
func (s *stubBackend) Close() error                            { s.closed = true; return s.err }
func (s *stubBackend) Name() string                            { return s.name }

func TestMultiStorageFanOut(t *testing.T) {
	good := &stubBackend{name: "good"}
	bad := &stubBackend{name: "bad", err: os.ErrPermission}
	last := &stubBackend{name: "last"}

	ms := NewMultiStorage([]Storage{good, bad, last}, testLogger)
	err := ms.SaveCountry(sampleResult())
	if err == nil {
		t.Fatal("expected the failing backend's error")
	}
	if good.saves != 1 || bad.saves != 1 || last.saves != 1 {
		t.Errorf("expected every backend saved once, got %d/%d/%d", good.saves, bad.saves, last.saves)
	}

	if err := ms.Close(); err == nil {
		t.Fatal("expected the failing backend's close error")
	}
	if !good.closed || !last.closed {
		t.Error("expected every backend closed")
	}
}

// --- FromConfig Tests ---

func TestFromConfigBuildsBackends(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Run.OutputDir = t.TempDir()
	cfg.Run.Cutoff = "2025-08-10"
	cfg.Storage.Backends = []string{"text", "csv", "jsonl"}

	st, err := FromConfig(cfg, testLogger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.SaveCountry(sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	dir := RunDir(cfg)
	for _, path := range []string{
		filepath.Join(dir, "text", "south-sudan.txt"),
		filepath.Join(dir, "_index.csv"),
		filepath.Join(dir, "results.jsonl"),
		filepath.Join(dir, "run.json"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}
}

func TestFromConfigUnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Run.OutputDir = t.TempDir()
	cfg.Run.Cutoff = "2025-08-10"
	cfg.Storage.Backends = []string{"text", "postgres"}

	if _, err := FromConfig(cfg, testLogger); err == nil || !strings.Contains(err.Error(), "postgres") {
		t.Fatalf("expected an error naming the unknown backend, got %v", err)
	}
}

// --- Aggregate Tests ---

func TestAggregate(t *testing.T) {
	runDir := t.TempDir()
	files := map[string]string{
		"info/kenya.txt":         "- Kenya update one. [2025-08-14; The Guardian]\n",
		"info/south-sudan.txt":   "- South Sudan update. [2025-08-12; UN Press]\n",
		"emails/south-sudan.txt": "Subject: South Sudan momentum\n\nDear Colleague, things moved. Kind regards,\n",
	}
	for name, content := range files {
		path := filepath.Join(runDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := Aggregate(runDir); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	info, err := os.ReadFile(filepath.Join(runDir, "all_info.txt"))
	if err != nil {
		t.Fatalf("read all_info.txt: %v", err)
	}
	want := "=== Kenya ===\n- Kenya update one. [2025-08-14; The Guardian]\n\n" +
		"=== South Sudan ===\n- South Sudan update. [2025-08-12; UN Press]\n\n"
	if string(info) != want {
		t.Errorf("all_info.txt = %q, want %q", info, want)
	}

	emails, err := os.ReadFile(filepath.Join(runDir, "all_emails.txt"))
	if err != nil {
		t.Fatalf("read all_emails.txt: %v", err)
	}
	if !strings.HasPrefix(string(emails), "=== South Sudan ===\nSubject: South Sudan momentum\n") {
		t.Errorf("all_emails.txt = %q", emails)
	}
}

func TestAggregateWithoutDigests(t *testing.T) {
	runDir := t.TempDir()

	if err := Aggregate(runDir); err != nil {
		t.Fatalf("Aggregate on a bare run dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(runDir, "all_info.txt")); !os.IsNotExist(err) {
		t.Error("all_info.txt written with no info directory present")
	}

	if err := Aggregate(filepath.Join(runDir, "missing")); err == nil {
		t.Fatal("expected an error for a missing run directory")
	}
}

func TestSlugToTitle(t *testing.T) {
	tests := []struct {
		slug, want string
	}{
		{"south-sudan", "South Sudan"},
		{"kenya", "Kenya"},
		{"c-te-d-ivoire", "C Te D Ivoire"},
		{"x", "X"},
	}
	for _, tt := range tests {
		if got := slugToTitle(tt.slug); got != tt.want {
			t.Errorf("slugToTitle(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}
