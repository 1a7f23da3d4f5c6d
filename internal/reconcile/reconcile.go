
// Package reconcile merges a freshly extracted article list with the cached
// one, keyed by title_link.
package reconcile

import "newsinlevels-crawler/internal/models"

// Stats summarizes one reconciliation. Dropped counts cached keys that no
// longer appear on the live listing.
type Stats struct {
	Reused  int `json:"reused"`
	Added   int `json:"added"`
	Dropped int `json:"dropped"`
}

// Reconcile returns fresh with every record whose key is already cached
// replaced by the cached record. Output order follows fresh; cached-only keys
// are dropped. A nil cached list means there is nothing to reconcile against
// and fresh is returned as is. Keys are expected to be non-empty and unique
// in fresh; among duplicate cached keys the first one wins.
func Reconcile(fresh, cached []models.ListingRecord) ([]models.ListingRecord, Stats) {
	if cached == nil {
		return fresh, Stats{Added: len(fresh)}
	}

	index := make(map[string]int, len(cached))
	for i, rec := range cached {
		if _, seen := index[rec.TitleLink]; !seen {
			index[rec.TitleLink] = i
		}
	}

	var st Stats
	used := make(map[string]struct{}, len(fresh))
	out := make([]models.ListingRecord, 0, len(fresh))
	for _, rec := range fresh {
		if i, ok := index[rec.TitleLink]; ok {
			out = append(out, cached[i])
			used[rec.TitleLink] = struct{}{}
			st.Reused++
			continue
		}
		out = append(out, rec)
		st.Added++
	}
	st.Dropped = len(index) - len(used)
	return out, st
}

// Dedupe drops records without a key and every repeat of a key already seen,
// keeping the first occurrence. The dropped records are returned so callers
// can log them.
func Dedupe(records []models.ListingRecord) (kept, dropped []models.ListingRecord) {
	seen := make(map[string]struct{}, len(records))
	kept = make([]models.ListingRecord, 0, len(records))
	for _, rec := range records {
		if rec.TitleLink == "" {
			dropped = append(dropped, rec)
			continue
		}
		if _, dup := seen[rec.TitleLink]; dup {
			dropped = append(dropped, rec)
			continue
		}
		seen[rec.TitleLink] = struct{}{}
		kept = append(kept, rec)
	}
	return kept, dropped
}
