package dates

import "testing"

// --- Resolve Tests ---

func TestResolveISOInstants(t *testing.T) {
	cases := map[string]string{
		"2025-08-14T10:30:00Z":           "2025-08-14",
		"2025-08-14T10:30:00.123456Z":    "2025-08-14",
		"2025-08-14T10:30:00+05:30":      "2025-08-14",
		"2025-08-14T10:30:00":            "2025-08-14",
		"2025-08-14 10:30:00":            "2025-08-14",
		"2025-08-14":                     "2025-08-14",
		"2025-08-14T23:59:59.999999999Z": "2025-08-14",
	}
	for raw, want := range cases {
		if got := Resolve(raw); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestResolveLeadingDate(t *testing.T) {
	if got := Resolve("2025-08-14 (updated)"); got != "2025-08-14" {
		t.Errorf("expected leading date to win, got %q", got)
	}
}

func TestResolveUnknown(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"yesterday",
		"14/08/2025",
		"August 2025",
		"2025-13-01",
		"2025-02-30T00:00:00Z",
		"published 2025-08-14", // date must lead
	} {
		if got := Resolve(raw); got != "" {
			t.Errorf("Resolve(%q) = %q, want unknown", raw, got)
		}
	}
}

func TestResolveIdempotent(t *testing.T) {
	for _, raw := range []string{"2025-08-14T10:30:00Z", "2025-08-14", "garbage", ""} {
		once := Resolve(raw)
		if twice := Resolve(once); twice != once {
			t.Errorf("Resolve not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

// --- FromText Tests ---

func TestFromTextEmbeddedISO(t *testing.T) {
	got := FromText("SC/15999 | 14 some text 2025-08-14 trailing")
	if got != "2025-08-14" {
		t.Errorf("expected embedded ISO date, got %q", got)
	}
}

func TestFromTextDayMonthYear(t *testing.T) {
	cases := map[string]string{
		"14 August 2025":                     "2025-08-14",
		"Meeting held on 3 September 2024 …": "2024-09-03",
		"1 Jan 2026":                         "2026-01-01",
		"14 Aug 2025":                        "2025-08-14",
		"30 Sept 2025":                       "2025-09-30",
	}
	for text, want := range cases {
		if got := FromText(text); got != want {
			t.Errorf("FromText(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestFromTextRejectsNonMonths(t *testing.T) {
	for _, text := range []string{
		"14 Mayor 2025",
		"3 Wednesday 2024",
		"99 August 2025",
		"no date here",
	} {
		if got := FromText(text); got != "" {
			t.Errorf("FromText(%q) = %q, want unknown", text, got)
		}
	}
}

// --- FromURL Tests ---

func TestFromURLNumeric(t *testing.T) {
	cases := map[string]string{
		"https://www.theguardian.com/world/2025/08/14/some-story": "2025-08-14",
		"https://www.aljazeera.com/news/2025/8/4/title-here":      "2025-08-04",
	}
	for rawURL, want := range cases {
		if got := FromURL(rawURL); got != want {
			t.Errorf("FromURL(%q) = %q, want %q", rawURL, got, want)
		}
	}
}

func TestFromURLMonthName(t *testing.T) {
	cases := map[string]string{
		"https://www.theguardian.com/world/2025/aug/14/some-story": "2025-08-14",
		"https://www.theguardian.com/uk/2024/DEC/3/other":          "2024-12-03",
	}
	for rawURL, want := range cases {
		if got := FromURL(rawURL); got != want {
			t.Errorf("FromURL(%q) = %q, want %q", rawURL, got, want)
		}
	}
}

func TestFromURLNoDate(t *testing.T) {
	for _, rawURL := range []string{
		"https://press.un.org/en/2025/sc15999.doc.htm",
		"https://example.com/2025/99/14/story",
		"https://example.com/archive",
	} {
		if got := FromURL(rawURL); got != "" {
			t.Errorf("FromURL(%q) = %q, want unknown", rawURL, got)
		}
	}
}

func TestResolvedDatesCompareLexicographically(t *testing.T) {
	older := Resolve("2025-07-31T23:59:59Z")
	newer := Resolve("2025-08-01T00:00:00Z")
	if !(older < newer) {
		t.Errorf("expected %q < %q", older, newer)
	}
}

// --- Benchmarks ---

func BenchmarkResolve(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Resolve("2025-08-14T10:30:00.123Z")
	}
}

func BenchmarkFromURL(b *testing.B) {
	for i := 0; i < b.N; i++ {
		FromURL("https://www.aljazeera.com/news/2025/8/4/title-here")
	}
}
