package waitlist

import (
	"sort"
	"time"
)

// SortByPriority returns a new slice ordered by urgency rank, then by wait
// days with the longest wait first. The sort is stable, so patients that tie
// on both keys keep their input order. Neither the input slice nor its
// elements are modified.
func SortByPriority(patients []*Patient, catalog Catalog, now time.Time) []*Patient {
	out := make([]*Patient, len(patients))
	copy(out, patients)
	if len(out) < 2 {
		return out
	}

	type key struct{ rank, wait int }
	keys := make(map[*Patient]key, len(out))
	for _, p := range out {
		keys[p] = key{rank: catalog.UrgencyRank(p.Urgency), wait: WaitDays(p.AddedDate, now)}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := keys[out[i]], keys[out[j]]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.wait > b.wait
	})
	return out
}
