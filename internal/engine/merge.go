package engine

import (
	"sort"

	"github.com/IshaanNene/PressGoat/internal/dates"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// MergeStats counts what one merge discarded.
type MergeStats struct {
	DroppedOld int
	DroppedDup int
}

// mergeEntry pairs an article with its resolved date so the sort does not
// re-resolve on every comparison.
type mergeEntry struct {
	article *types.Article
	date    string
}

// resolveEntry normalizes an article's date in place. The published field
// is tried first; when it does not resolve, the URL path is consulted. An
// article whose date survives neither stays undated.
func resolveEntry(a *types.Article) mergeEntry {
	date := dates.Resolve(a.Published)
	if date == "" {
		date = dates.FromURL(a.URL)
	}
	if date != "" {
		a.Published = date
	}
	return mergeEntry{article: a, date: date}
}

// FilterFresh drops articles whose resolved date falls before the cutoff.
// Undated articles are kept: a missing date is not evidence of staleness.
// The second return is the number dropped.
func FilterFresh(articles []*types.Article, cutoff string) ([]*types.Article, int) {
	kept := make([]*types.Article, 0, len(articles))
	dropped := 0
	for _, a := range articles {
		if a == nil {
			continue
		}
		e := resolveEntry(a)
		if e.date != "" && cutoff != "" && e.date < cutoff {
			dropped++
			continue
		}
		kept = append(kept, a)
	}
	return kept, dropped
}

// Merge reduces per-source article lists into one per-country list. Dates
// are backfilled from URLs, articles known to be older than the cutoff
// are dropped, the lists are concatenated in precedence order, canonical
// URL duplicates are removed keeping the first copy, and the survivors
// are stably sorted newest first with undated articles at the end.
//
// The list order is the precedence order: when two sources carry the same
// canonical URL, the earlier list's copy wins.
func Merge(lists [][]*types.Article, cutoff string) ([]*types.Article, MergeStats) {
	var stats MergeStats

	var entries []mergeEntry
	for _, list := range lists {
		for _, a := range list {
			if a == nil {
				continue
			}
			e := resolveEntry(a)
			if e.date != "" && cutoff != "" && e.date < cutoff {
				stats.DroppedOld++
				continue
			}
			entries = append(entries, e)
		}
	}

	entries, stats.DroppedDup = dedupEntries(entries)

	// Descending lexicographic order on YYYY-MM-DD is reverse
	// chronological, and the empty date sorts after every real one.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].date > entries[j].date
	})

	out := make([]*types.Article, len(entries))
	for i, e := range entries {
		out[i] = e.article
	}
	return out, stats
}
