package engine

import "github.com/IshaanNene/PressGoat/internal/types"

// dedupEntries removes canonical URL duplicates, keeping the first
// occurrence. Entries arrive concatenated in source precedence order, so
// the surviving copy is always the highest-precedence one. The second
// return is the number removed.
//
// Identity is the canonical URL alone. Title matching is left to the
// per-source listing walk, where near-duplicate rows of one site are
// common; across sites the same story rarely shares a headline but a
// syndicated link shares its URL.
func dedupEntries(entries []mergeEntry) ([]mergeEntry, int) {
	seen := make(map[string]bool, len(entries))
	kept := make([]mergeEntry, 0, len(entries))
	dropped := 0
	for _, e := range entries {
		key := types.CanonicalURL(e.article.URL)
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true
		kept = append(kept, e)
	}
	return kept, dropped
}
