package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The resolver normalizes every raw date shape the sources emit into a
// canonical YYYY-MM-DD string. It is pure and never fails: any input it
// cannot recognize resolves to the empty string, which callers treat as
// "date unknown". Lexicographic comparison of resolved dates matches
// chronological order.

const layoutDate = "2006-01-02"

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var (
	reLeadingDate  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)
	reAnyDate      = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	reTextualDate  = regexp.MustCompile(`(\d{1,2})\s+([A-Za-z]{3,9})\s+(\d{4})`)
	reURLNumeric   = regexp.MustCompile(`/(\d{4})/(\d{1,2})/(\d{1,2})/`)
	reURLMonthName = regexp.MustCompile(`(?i)/(\d{4})/(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)/(\d{1,2})/`)
)

var monthsByName = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	"january": 1, "february": 2, "march": 3, "april": 4,
	"june": 6, "july": 7, "august": 8, "september": 9,
	"october": 10, "november": 11, "december": 12,
}

// Resolve reduces a recorded publication date to YYYY-MM-DD. It accepts
// full ISO-8601 instants (fractional seconds and zone offsets ignored) and
// values that lead with a bare date. Unrecognized input resolves to "".
func Resolve(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(layoutDate)
		}
	}

	if m := reLeadingDate.FindStringSubmatch(s); m != nil && valid(m[1]) {
		return m[1]
	}
	return ""
}

// FromText scans free text for the first recognizable date: an embedded
// YYYY-MM-DD, then a "14 August 2025" style day-month-year (full month
// names or their three-letter abbreviations).
func FromText(text string) string {
	if m := reAnyDate.FindStringSubmatch(text); m != nil && valid(m[1]) {
		return m[1]
	}

	if m := reTextualDate.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		month, ok := lookupMonth(m[2])
		if ok {
			if d, ok := ymd(year, month, day); ok {
				return d
			}
		}
	}
	return ""
}

// FromURL extracts a publication date embedded in a URL path, either
// numeric (/2025/08/14/ or /2025/8/14/) or with a three-letter month
// segment (/2025/aug/14/, case-insensitive).
func FromURL(rawURL string) string {
	if m := reURLNumeric.FindStringSubmatch(rawURL); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := ymd(year, month, day); ok {
			return d
		}
	}

	if m := reURLMonthName.FindStringSubmatch(rawURL); m != nil {
		year, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[3])
		month, ok := lookupMonth(m[2])
		if ok {
			if d, ok := ymd(year, month, day); ok {
				return d
			}
		}
	}
	return ""
}

func lookupMonth(name string) (int, bool) {
	key := strings.ToLower(name)
	if n, ok := monthsByName[key]; ok {
		return n, true
	}
	for full, n := range monthsByName {
		if len(full) > 3 && strings.HasPrefix(full, key) {
			return n, true
		}
	}
	return 0, false
}

func ymd(year, month, day int) (string, bool) {
	s := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	if !valid(s) {
		return "", false
	}
	return s, true
}

func valid(s string) bool {
	_, err := time.Parse(layoutDate, s)
	return err == nil
}
