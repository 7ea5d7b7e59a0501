package sources

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/IshaanNene/PressGoat/internal/types"
)

// maxListPages is a hard ceiling on listing pages walked per source, a
// runaway guard for listings that never run out. Reaching it ends the
// walk as if the listing were exhausted.
const maxListPages = 20

// listingRow is one parsed row of a listing page.
type listingRow struct {
	Title string
	URL   string
	// Date is the canonical YYYY-MM-DD resolved from the row itself,
	// empty when the row carried no usable date.
	Date string
}

// listingSite is the site-specific half of a walked listing source: how
// to fetch and parse one page of rows, and how to pull a date off an
// individual item page.
type listingSite interface {
	// FetchPage returns the rows of the numbered listing page (1-based),
	// in the listing's own order. An empty slice means the listing is
	// exhausted.
	FetchPage(ctx context.Context, term string, page int) ([]listingRow, error)

	// FetchItemDate fetches one item page and extracts its publication
	// date, empty when none was found. Failures count as "no date".
	FetchItemDate(ctx context.Context, url string) string
}

// dateBudget is the number of secondary item-page fetches a walk may
// spend resolving missing row dates: max(1, ceil(log2(max(2, limit)))).
// It scales sub-linearly with the requested volume so date resolution
// never dominates the request count.
func dateBudget(limit int) int {
	n := limit
	if n < 2 {
		n = 2
	}
	b := int(math.Ceil(math.Log2(float64(n))))
	if b < 1 {
		b = 1
	}
	return b
}

// walkListing drives a newest-first paginated listing. Pages are walked
// in order until limit candidates are gathered, a row with a known date
// before the cutoff proves the boundary is crossed (everything after is
// older still), the listing runs out of rows, or the page ceiling is
// reached.
//
// Rows lacking a date get one secondary fetch each while the budget
// lasts; the budget is spent whether or not the fetch yields a date.
//
// A page fetch failure past the first page ends the walk with whatever
// was collected; a failing first page fails the source.
func walkListing(ctx context.Context, site listingSite, req CollectRequest, logger *slog.Logger) ([]listingRow, error) {
	budget := dateBudget(req.Limit)
	boundary := false
	var candidates []listingRow

	for page := 1; page <= maxListPages && len(candidates) < req.Limit && !boundary; page++ {
		rows, err := site.FetchPage(ctx, req.Term, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			logger.Warn("listing page fetch failed, ending walk", "page", page, "error", err)
			break
		}
		if len(rows) == 0 {
			logger.Debug("listing exhausted", "page", page)
			break
		}

		for _, row := range rows {
			if row.Date == "" && budget > 0 {
				budget--
				row.Date = site.FetchItemDate(ctx, row.URL)
			}
			if row.Date != "" && row.Date < req.Cutoff {
				boundary = true
				logger.Debug("cutoff boundary crossed",
					"page", page, "date", row.Date, "cutoff", req.Cutoff)
				break
			}
			candidates = append(candidates, row)
			if len(candidates) >= req.Limit {
				break
			}
		}
	}

	return selectRows(candidates, req.Cutoff, req.Limit), nil
}

// selectRows reduces walked candidates to the final per-source slice:
// rows with a known date on/after the cutoff are deduplicated and sorted
// newest first; rows with no date then fill the remainder in their
// original listing order, a best-effort policy that favors recall over
// certainty. The result is capped at limit.
func selectRows(candidates []listingRow, cutoff string, limit int) []listingRow {
	var fresh, unknown []listingRow
	for _, c := range candidates {
		switch {
		case c.Date == "":
			unknown = append(unknown, c)
		case c.Date >= cutoff:
			fresh = append(fresh, c)
		}
	}

	fresh = dedupRows(fresh)
	sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].Date > fresh[j].Date })

	out := fresh
	for _, u := range unknown {
		if len(out) >= limit {
			break
		}
		out = append(out, u)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// dedupRows drops rows repeating an earlier (lowercased title, canonical
// URL) pair.
func dedupRows(rows []listingRow) []listingRow {
	seen := make(map[[2]string]bool, len(rows))
	var out []listingRow
	for _, r := range rows {
		key := [2]string{
			strings.ToLower(strings.TrimSpace(r.Title)),
			types.CanonicalURL(r.URL),
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
