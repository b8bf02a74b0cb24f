// Package diff implements the pure set algebra that classifies every
// article id as new, updated, deleted, or (implicitly) unchanged by
// comparing the previous and current locks.
package diff

import "github.com/cuemby/articlesync/internal/types"

// Diff compares previous (the persisted lock from the last successful
// tick) against current (the hash of this tick's harvest) and returns
// the three disjoint id sets. Ordering within each set is unspecified.
func Diff(previous, current types.Lock) types.DiffResult {
	var result types.DiffResult

	for id := range current {
		if _, ok := previous[id]; !ok {
			result.New = append(result.New, id)
		}
	}

	for id, prevHash := range previous {
		curHash, ok := current[id]
		if !ok {
			result.Deleted = append(result.Deleted, id)
			continue
		}
		if curHash != prevHash {
			result.Updated = append(result.Updated, id)
		}
	}

	return result
}
