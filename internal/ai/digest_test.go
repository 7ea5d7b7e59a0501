package ai

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/IshaanNene/PressGoat/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const sendResponse = `INFO:
- Kenya signed a drought-response financing agreement with two partners. [2025-08-14; The Guardian]
- Nairobi hosted talks on regional trade corridors. [2025-08-12; UN Press]

EMAIL_STATUS: SEND
REASON: coverage spans financing and trade
EMAIL_SUBJECT: Kenya: drought financing and trade corridor momentum
EMAIL_BODY:
Dear Colleague, recent coverage points to renewed momentum around drought
financing and the regional trade agenda in Kenya. Kind regards,
END`

const skipResponse = `INFO:
- One minor mention of Brazil in a regional roundup. [2025-08-11; RSS]

EMAIL_STATUS: SKIP
REASON: Only one passing mention, no country-specific substance.
END`

// --- Parser Tests ---

func TestParseDigestSend(t *testing.T) {
	dg := ParseDigest(sendResponse)

	if dg.EmailStatus != "SEND" {
		t.Fatalf("EmailStatus = %q, want SEND", dg.EmailStatus)
	}
	if !strings.Contains(dg.Info, "drought-response financing") {
		t.Errorf("Info missing first bullet: %q", dg.Info)
	}
	if !strings.Contains(dg.Info, "[2025-08-12; UN Press]") {
		t.Errorf("Info missing second bullet: %q", dg.Info)
	}
	if dg.Subject != "Kenya: drought financing and trade corridor momentum" {
		t.Errorf("Subject = %q", dg.Subject)
	}
	if !strings.HasPrefix(dg.Body, "Dear Colleague,") || !strings.HasSuffix(dg.Body, "Kind regards,") {
		t.Errorf("Body = %q", dg.Body)
	}
	if !dg.SendEmail() {
		t.Error("SendEmail() = false for a complete SEND response")
	}
}

func TestParseDigestSkip(t *testing.T) {
	dg := ParseDigest(skipResponse)

	if dg.EmailStatus != "SKIP" {
		t.Fatalf("EmailStatus = %q, want SKIP", dg.EmailStatus)
	}
	if dg.Reason != "Only one passing mention, no country-specific substance." {
		t.Errorf("Reason = %q", dg.Reason)
	}
	if dg.Subject != "" || dg.Body != "" {
		t.Errorf("SKIP response carried subject %q / body %q", dg.Subject, dg.Body)
	}
	if dg.SendEmail() {
		t.Error("SendEmail() = true for a SKIP response")
	}
}

func TestParseDigestMalformed(t *testing.T) {
	dg := ParseDigest("The model went completely off the rails here.")

	if dg.EmailStatus != "SKIP" {
		t.Errorf("EmailStatus = %q, want SKIP default", dg.EmailStatus)
	}
	if dg.Info != "" || dg.Reason != "" {
		t.Errorf("malformed response yielded info %q / reason %q", dg.Info, dg.Reason)
	}
}

func TestParseDigestSendWithoutBody(t *testing.T) {
	raw := "INFO:\n- Something happened. [2025-08-11; RSS]\n\nEMAIL_STATUS: SEND\nEMAIL_SUBJECT: A subject\nEND"
	dg := ParseDigest(raw)

	if dg.EmailStatus != "SEND" {
		t.Fatalf("EmailStatus = %q", dg.EmailStatus)
	}
	if dg.SendEmail() {
		t.Error("SendEmail() = true without a body")
	}
}

func TestCapBullets(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		limit int
		want  string
	}{
		{
			name:  "caps dash bullets",
			raw:   "- one\n- two\n- three\n- four",
			limit: 2,
			want:  "- one\n- two",
		},
		{
			name:  "drops surrounding prose",
			raw:   "Here are the updates:\n- one\n- two\nLet me know if you need more.",
			limit: 5,
			want:  "- one\n- two",
		},
		{
			name:  "numbered fallback",
			raw:   "1) first\n2) second\n3) third",
			limit: 2,
			want:  "1) first\n2) second",
		},
		{
			name:  "unicode bullets",
			raw:   "• alpha\n• beta",
			limit: 1,
			want:  "• alpha",
		},
		{
			name:  "plain text truncated not rewritten",
			raw:   "alpha\nbeta\ngamma",
			limit: 2,
			want:  "alpha\nbeta",
		},
		{
			name:  "zero limit keeps one",
			raw:   "- one\n- two",
			limit: 0,
			want:  "- one",
		},
		{
			name:  "empty input",
			raw:   "  \n\n",
			limit: 3,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CapBullets(tt.raw, tt.limit); got != tt.want {
				t.Errorf("CapBullets(%q, %d) = %q, want %q", tt.raw, tt.limit, got, tt.want)
			}
		})
	}
}

// --- Prompt Tests ---

func TestBuildPrompt(t *testing.T) {
	cfg := config.DefaultConfig().AI
	report := "Country: Kenya | Cutoff: 2025-08-10\nArticles: 2"

	prompt := BuildPrompt("Kenya", "2025-08-10", report, cfg)

	for _, want := range []string{
		"COUNTRY: Kenya",
		"CUTOFF: 2025-08-10",
		report,
		"1 to 5 concise bullets",
		"80-120 words",
		"EMAIL_STATUS: SEND|SKIP",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(prompt, "END") {
		t.Error("prompt does not end with the END key")
	}
	// email_min_items defaults to 1 but the send threshold floors at three.
	if !strings.Contains(prompt, "3 items means EMAIL_STATUS: SKIP") {
		t.Error("prompt missing the floored send threshold")
	}
}

func TestReportHeader(t *testing.T) {
	country, cutoff := reportHeader("Country: South Sudan | Cutoff: 2025-08-10\nArticles: 4\n", "south-sudan")
	if country != "South Sudan" || cutoff != "2025-08-10" {
		t.Errorf("reportHeader = (%q, %q)", country, cutoff)
	}

	country, cutoff = reportHeader("not a report", "south-sudan")
	if country != "south-sudan" || cutoff != "" {
		t.Errorf("fallback reportHeader = (%q, %q)", country, cutoff)
	}
}

// --- Digester Tests ---

type fakeGenerator struct {
	prompts []string
	fn      func(prompt string) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.fn(prompt)
}

func writeReport(t *testing.T, runDir, slug, country string) {
	t.Helper()
	dir := filepath.Join(runDir, "text")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	report := "Country: " + country + " | Cutoff: 2025-08-10\nArticles: 2\n\n==============================\n[THE GUARDIAN]\n==============================\n1) Something happened - The Guardian (2025-08-14)\n   URL: https://example.org/a\n"
	if err := os.WriteFile(filepath.Join(dir, slug+".txt"), []byte(report), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestDigesterRun(t *testing.T) {
	runDir := t.TempDir()
	writeReport(t, runDir, "kenya", "Kenya")
	writeReport(t, runDir, "brazil", "Brazil")
	writeReport(t, runDir, "chad", "Chad")

	gen := &fakeGenerator{fn: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "COUNTRY: Kenya"):
			return sendResponse, nil
		case strings.Contains(prompt, "COUNTRY: Brazil"):
			return skipResponse, nil
		default:
			return "EMAIL_STATUS: SKIP\nREASON: nothing relevant.\nEND", nil
		}
	}}
	d := NewDigester(gen, config.DefaultConfig().AI, testLogger)

	n, err := d.Run(context.Background(), runDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 3 {
		t.Fatalf("digested %d countries, want 3", n)
	}

	info := readFile(t, filepath.Join(runDir, "info", "kenya.txt"))
	if !strings.Contains(info, "[2025-08-14; The Guardian]") {
		t.Errorf("kenya info = %q", info)
	}
	email := readFile(t, filepath.Join(runDir, "emails", "kenya.txt"))
	if !strings.HasPrefix(email, "Subject: Kenya: drought financing") {
		t.Errorf("kenya email = %q", email)
	}
	if !strings.Contains(email, "\n\nDear Colleague,") {
		t.Errorf("kenya email missing body separator: %q", email)
	}

	// SKIP still writes the info digest but no email.
	info = readFile(t, filepath.Join(runDir, "info", "brazil.txt"))
	if !strings.Contains(info, "One minor mention of Brazil") {
		t.Errorf("brazil info = %q", info)
	}
	if _, err := os.Stat(filepath.Join(runDir, "emails", "brazil.txt")); !os.IsNotExist(err) {
		t.Error("brazil email written for a SKIP response")
	}

	// A response with no INFO block yields the placeholder line.
	info = readFile(t, filepath.Join(runDir, "info", "chad.txt"))
	if info != noUpdatesPlaceholder+"\n" {
		t.Errorf("chad info = %q", info)
	}

	// The prompt carries the display name from the report header, not the slug.
	found := false
	for _, p := range gen.prompts {
		if strings.Contains(p, "COUNTRY: Kenya") {
			found = true
		}
	}
	if !found {
		t.Error("no prompt carried the Kenya display name")
	}
}

func TestDigesterRunModelFailure(t *testing.T) {
	runDir := t.TempDir()
	writeReport(t, runDir, "kenya", "Kenya")
	writeReport(t, runDir, "brazil", "Brazil")

	gen := &fakeGenerator{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "COUNTRY: Brazil") {
			return "", errors.New("model exploded")
		}
		return sendResponse, nil
	}}
	d := NewDigester(gen, config.DefaultConfig().AI, testLogger)

	n, err := d.Run(context.Background(), runDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 1 {
		t.Fatalf("digested %d countries, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(runDir, "info", "kenya.txt")); err != nil {
		t.Errorf("kenya info missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(runDir, "info", "brazil.txt")); !os.IsNotExist(err) {
		t.Error("brazil info written despite model failure")
	}
}

func TestDigesterRunCancelled(t *testing.T) {
	runDir := t.TempDir()
	writeReport(t, runDir, "kenya", "Kenya")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDigester(&fakeGenerator{fn: func(string) (string, error) {
		t.Error("generator called after cancellation")
		return "", nil
	}}, config.DefaultConfig().AI, testLogger)

	n, err := d.Run(ctx, runDir)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n != 0 {
		t.Errorf("digested %d countries after cancellation", n)
	}
}

func TestDigesterRunMissingRunDir(t *testing.T) {
	d := NewDigester(&fakeGenerator{fn: func(string) (string, error) {
		return sendResponse, nil
	}}, config.DefaultConfig().AI, testLogger)

	if _, err := d.Run(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected an error for a missing run directory")
	}
}
