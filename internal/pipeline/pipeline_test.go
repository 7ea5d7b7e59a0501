package pipeline

import (
	"log/slog"
	"os"
	"testing"

	"github.com/IshaanNene/PressGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestPipelineBasic(t *testing.T) {
	p := Default(testLogger)

	article := &types.Article{
		Source:    "The Guardian",
		Title:     "  Australia news <b>live</b>: floods &amp; recovery  ",
		URL:       "https://www.theguardian.com/australia-news/live/2025/aug/14/floods",
		Published: "2025-08-14T03:12:00Z",
	}

	result, err := p.Process(article)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result == nil {
		t.Fatal("article should survive the default chain")
	}
	if result.Title != "Australia news live: floods & recovery" {
		t.Errorf("expected cleaned title, got %q", result.Title)
	}
	if result.Published != "2025-08-14" {
		t.Errorf("expected canonical date, got %q", result.Published)
	}
}

func TestRequiredFieldsMiddleware(t *testing.T) {
	m := &RequiredFieldsMiddleware{}

	// Should pass — has both title and URL
	ok := &types.Article{Title: "Hello", URL: "https://example.com/a"}
	result, err := m.Process(ok)
	if err != nil || result == nil {
		t.Error("article with title and URL should pass")
	}

	// Should drop — blank title (returns nil, nil)
	noTitle := &types.Article{Title: "   ", URL: "https://example.com/b"}
	result, _ = m.Process(noTitle)
	if result != nil {
		t.Error("article with blank title should be dropped (nil)")
	}

	// Should drop — no URL
	noURL := &types.Article{Title: "Hello"}
	result, _ = m.Process(noURL)
	if result != nil {
		t.Error("article without URL should be dropped (nil)")
	}
}

func TestTitleCleanMiddleware(t *testing.T) {
	m := NewTitleCleanMiddleware()
	article := &types.Article{Title: `<p>Hello <b>World</b></p> &amp; <a href="x">link</a>`}

	result, err := m.Process(article)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if result.Title != "Hello World & link" {
		t.Errorf("expected 'Hello World & link', got %q", result.Title)
	}
}

func TestFullTextCleanMiddleware(t *testing.T) {
	m := NewFullTextCleanMiddleware()
	article := &types.Article{
		FullText: "First   paragraph &amp; more.\n\n  \n\nSecond\tparagraph.",
	}

	result, err := m.Process(article)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if result.FullText != "First paragraph & more.\n\nSecond paragraph." {
		t.Errorf("unexpected fulltext: %q", result.FullText)
	}
}

func TestDateNormalizeMiddleware(t *testing.T) {
	m := &DateNormalizeMiddleware{}

	tests := []struct {
		input    string
		expected string
	}{
		{"2025-08-14T03:12:00Z", "2025-08-14"},
		{"2025-08-14", "2025-08-14"},
		{"14 August 2025", ""}, // listing text is resolved elsewhere
		{"garbage", ""},
		{"", ""},
	}

	for _, tt := range tests {
		article := &types.Article{Published: tt.input}
		result, _ := m.Process(article)
		if result.Published != tt.expected {
			t.Errorf("date %q: expected %q, got %q", tt.input, tt.expected, result.Published)
		}
	}
}

func TestPipelineDropShortCircuits(t *testing.T) {
	p := New(testLogger)
	p.Use(&RequiredFieldsMiddleware{})
	p.Use(&DateNormalizeMiddleware{})

	article := &types.Article{URL: "https://example.com", Published: "2025-08-14T00:00:00Z"}
	result, err := p.Process(article)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result != nil {
		t.Error("dropped article should not continue down the chain")
	}
	// The drop happened before date normalization ran
	if article.Published != "2025-08-14T00:00:00Z" {
		t.Errorf("later stages should not have run, got %q", article.Published)
	}
}

// --- Benchmarks ---

func BenchmarkPipeline(b *testing.B) {
	p := Default(testLogger)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		article := &types.Article{
			Source:    "Al Jazeera",
			Title:     "  Hello <b>World</b>  ",
			URL:       "https://www.aljazeera.com/news/2025/8/14/hello",
			Published: "2025-08-14",
			FullText:  "  Some   body  text.  ",
		}
		p.Process(article)
	}
}
