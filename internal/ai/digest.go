// Package ai turns per-country text reports into short info digests and
// optional email drafts through a configurable LLM provider.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/IshaanNene/PressGoat/internal/config"
)

// noUpdatesPlaceholder is written to an info file when the model returned
// nothing usable for a country.
const noUpdatesPlaceholder = "(No substantive updates identified.)"

// Generator produces a completion for a prompt. *LLMClient satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Digest is the parsed form of one model response.
type Digest struct {
	Info        string
	EmailStatus string
	Reason      string
	Subject     string
	Body        string
}

// SendEmail reports whether the response asked for an email draft and
// carried both a subject and a body.
func (d Digest) SendEmail() bool {
	return d.EmailStatus == "SEND" && d.Subject != "" && d.Body != ""
}

// Digester reads text reports from a run directory and writes an info
// digest per country, plus an email draft when the model calls for one.
type Digester struct {
	gen    Generator
	cfg    config.AIConfig
	logger *slog.Logger
}

// NewDigester creates a digester backed by the given generator.
func NewDigester(gen Generator, cfg config.AIConfig, logger *slog.Logger) *Digester {
	return &Digester{
		gen:    gen,
		cfg:    cfg,
		logger: logger.With("component", "digester"),
	}
}

// FromConfig builds a Digester backed by the configured LLM provider.
func FromConfig(cfg *config.Config, logger *slog.Logger) *Digester {
	client := NewLLMClient(LLMConfig{
		Provider:    LLMProvider(cfg.AI.Provider),
		Endpoint:    cfg.AI.Endpoint,
		Model:       cfg.AI.Model,
		APIKey:      cfg.AI.APIKey,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	}, logger)
	return NewDigester(client, cfg.AI, logger)
}

// Run digests every text report under runDir, writing info/<slug>.txt for
// each country and emails/<slug>.txt when the model decides to send. It
// returns the number of countries digested. Per-country model failures are
// logged and skipped; only cancellation and an unreadable run directory
// stop the stage.
func (d *Digester) Run(ctx context.Context, runDir string) (int, error) {
	textDir := filepath.Join(runDir, "text")
	entries, err := os.ReadDir(textDir)
	if err != nil {
		return 0, fmt.Errorf("read text reports: %w", err)
	}
	for _, dir := range []string{filepath.Join(runDir, "info"), filepath.Join(runDir, "emails")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}

	done := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return done, err
		}
		slug := strings.TrimSuffix(entry.Name(), ".txt")
		if err := d.digestOne(ctx, runDir, slug); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return done, err
			}
			d.logger.Warn("digest failed", "country", slug, "error", err)
			continue
		}
		done++
	}
	return done, nil
}

func (d *Digester) digestOne(ctx context.Context, runDir, slug string) error {
	report, err := os.ReadFile(filepath.Join(runDir, "text", slug+".txt"))
	if err != nil {
		return err
	}
	country, cutoff := reportHeader(string(report), slug)

	raw, err := d.gen.Generate(ctx, BuildPrompt(country, cutoff, strings.TrimSpace(string(report)), d.cfg))
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	dg := ParseDigest(raw)

	info := CapBullets(dg.Info, d.cfg.InfoLimit)
	if info == "" {
		info = noUpdatesPlaceholder
	}
	if err := os.WriteFile(filepath.Join(runDir, "info", slug+".txt"), []byte(info+"\n"), 0o644); err != nil {
		return err
	}

	if !dg.SendEmail() {
		reason := dg.Reason
		if reason == "" {
			reason = "insufficient country-specific substance"
		}
		d.logger.Info("digest written", "country", country, "email", false, "reason", reason)
		return nil
	}

	email := "Subject: " + dg.Subject + "\n\n" + dg.Body + "\n"
	if err := os.WriteFile(filepath.Join(runDir, "emails", slug+".txt"), []byte(email), 0o644); err != nil {
		return err
	}
	d.logger.Info("digest written", "country", country, "email", true)
	return nil
}

var headerRe = regexp.MustCompile(`^Country: (.+) \| Cutoff: (\S+)`)

// reportHeader recovers the display name and cutoff from the first line of
// a text report, falling back to the file slug.
func reportHeader(report, slug string) (country, cutoff string) {
	line, _, _ := strings.Cut(report, "\n")
	if m := headerRe.FindStringSubmatch(line); m != nil {
		return m[1], m[2]
	}
	return slug, ""
}

const promptTemplate = `You write country news briefings for programme officers. Style: crisp, neutral,
constructive; country-specific only; no links; never invent facts.

COUNTRY: %[1]s
CUTOFF: %[2]s (use developments on or after this date only)

SOURCE (verbatim lines; this is your only factual base):
---
%[3]s
---

RELEVANCE FILTER
Keep only items clearly about %[1]s: government decisions, agreements, financing,
sanctions or trade actions, disasters or security events, specific investments.
Discard passing mentions, items about other countries, generic explainers,
opinion columns and regional roundups with no %[1]s-specific substance.

TASKS (plain text, no markdown):
1) INFO: 1 to %[4]d concise bullets about %[1]s, anchored in SOURCE. End each
   bullet with [date; source].
2) DECIDE EMAIL: count the relevant %[1]s items after the filter. Fewer than
   %[5]d items means EMAIL_STATUS: SKIP with a one-line REASON. Otherwise
   EMAIL_STATUS: SEND.
3) If SEND: EMAIL_SUBJECT is one specific line. EMAIL_BODY is a single
   paragraph of %[6]d-%[7]d words, diplomatic and conversational, referencing
   the facts and closing with a gentle offer of support. Use a generic
   salutation and sign off with "Kind regards,".

OUTPUT FORMAT (exact keys, in order; plain text only):
INFO:
- <bullet>
- <bullet>

EMAIL_STATUS: SEND|SKIP
REASON: <one line, required if SKIP>
EMAIL_SUBJECT: <one line>
EMAIL_BODY:
<paragraph>
END`

// BuildPrompt assembles the digest prompt for one country report.
func BuildPrompt(country, cutoff, report string, cfg config.AIConfig) string {
	infoLimit := cfg.InfoLimit
	if infoLimit < 1 {
		infoLimit = 1
	}
	// The send threshold never drops below three items.
	minItems := cfg.EmailMinItems
	if minItems < 3 {
		minItems = 3
	}
	wordsMin, wordsMax := cfg.EmailWordsMin, cfg.EmailWordsMax
	if wordsMin < 1 {
		wordsMin = 80
	}
	if wordsMax < wordsMin {
		wordsMax = wordsMin + 40
	}
	return fmt.Sprintf(promptTemplate, country, cutoff, report, infoLimit, minItems, wordsMin, wordsMax)
}

var (
	infoRe    = regexp.MustCompile(`(?s)INFO:\s*(.*?)\nEMAIL_STATUS:`)
	statusRe  = regexp.MustCompile(`EMAIL_STATUS:\s*(SEND|SKIP)`)
	reasonRe  = regexp.MustCompile(`(?s)REASON:\s*(.*?)\n(?:EMAIL_SUBJECT:|EMAIL_BODY:|END|\z)`)
	subjectRe = regexp.MustCompile(`(?s)EMAIL_SUBJECT:\s*(.*?)\nEMAIL_BODY:`)
	bodyRe    = regexp.MustCompile(`(?s)EMAIL_BODY:\s*(.*?)\nEND`)
)

// ParseDigest extracts the keyed fields from a raw model response. Missing
// keys leave their fields empty; a missing EMAIL_STATUS reads as SKIP.
// Subject and body are only taken from a SEND response.
func ParseDigest(raw string) Digest {
	dg := Digest{EmailStatus: "SKIP"}
	if m := infoRe.FindStringSubmatch(raw); m != nil {
		dg.Info = strings.TrimSpace(m[1])
	}
	if m := statusRe.FindStringSubmatch(raw); m != nil {
		dg.EmailStatus = m[1]
	}
	if m := reasonRe.FindStringSubmatch(raw); m != nil {
		dg.Reason = strings.TrimSpace(m[1])
	}
	if dg.EmailStatus != "SEND" {
		return dg
	}
	if m := subjectRe.FindStringSubmatch(raw); m != nil {
		dg.Subject = strings.TrimSpace(m[1])
	}
	if m := bodyRe.FindStringSubmatch(raw); m != nil {
		dg.Body = strings.TrimSpace(m[1])
	}
	return dg
}

var (
	bulletLineRe   = regexp.MustCompile(`^\s*[-•–]\s+`)
	numberedLineRe = regexp.MustCompile(`^\s*\d+[).]\s+`)
)

// CapBullets keeps at most limit list lines from a raw INFO block. Lines
// prefixed with a dash or bullet count first; numbered lines count when no
// dash bullets exist. Text with no recognizable list is truncated to limit
// lines rather than rewritten.
func CapBullets(raw string, limit int) string {
	if limit < 1 {
		limit = 1
	}
	var lines []string
	for _, ln := range strings.Split(raw, "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(ln, " \t"))
	}
	if len(lines) == 0 {
		return ""
	}

	kept := matchingLines(lines, bulletLineRe)
	if len(kept) == 0 {
		kept = matchingLines(lines, numberedLineRe)
	}
	if len(kept) == 0 {
		kept = lines
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return strings.Join(kept, "\n")
}

func matchingLines(lines []string, re *regexp.Regexp) []string {
	var out []string
	for _, ln := range lines {
		if re.MatchString(ln) {
			out = append(out, ln)
		}
	}
	return out
}
