package reconcile

import (
	"slices"

	"backlog/internal/domain"
)

// FilterCandidates is the cheap first phase of winner selection. It decides
// which branch copies are worth fetching using only index timestamps.
//
// A task with no local copy always yields its newest branch copy. A task
// with a local copy yields its newest branch copy only when that copy is
// strictly newer than the local one. Both strategies filter alike here:
// most_progressed needs the hydrated status, so that comparison is left to
// ResolveTaskConflict.
func FilterCandidates(
	local map[string]domain.Task,
	index domain.BranchIndex,
	_ domain.ResolutionStrategy,
	refFor RefFunc,
) []domain.Winner {
	winners := make([]domain.Winner, 0, len(index))
	for id, entries := range index {
		newest, ok := newestEntry(entries)
		if !ok {
			continue
		}

		if lt, exists := local[id]; exists && !newest.LastModified.After(lt.Timestamp()) {
			continue
		}
		winners = append(winners, winnerOf(id, newest, refFor))
	}
	sortWinners(winners)
	return winners
}

// SelectLatest picks the newest copy of every indexed task, with no local
// tasks to compare against
func SelectLatest(index domain.BranchIndex, refFor RefFunc) []domain.Winner {
	return FilterCandidates(nil, index, domain.DefaultStrategy, refFor)
}

// ResolveTaskConflict is the final phase of winner selection, run once the
// incoming copy has been hydrated. Ties keep existing.
func ResolveTaskConflict(
	existing, incoming domain.Task,
	strategy domain.ResolutionStrategy,
	ranker domain.StatusRanker,
) domain.Task {
	if strategy == domain.StrategyMostRecent {
		if c, ok := compareTimestamps(existing, incoming); ok {
			if c < 0 {
				return incoming
			}
			return existing
		}
		// neither side is dated; decide by status instead
	}

	er, ir := ranker.Rank(existing.Status), ranker.Rank(incoming.Status)
	switch {
	case ir > er:
		return incoming
	case ir < er:
		return existing
	}
	if c, ok := compareTimestamps(existing, incoming); ok && c < 0 {
		return incoming
	}
	return existing
}

// MergeTasks resolves hydrated branch copies against the local tasks. Tasks
// unknown locally are added. The result is sorted by ID.
func MergeTasks(
	local, incoming []domain.Task,
	strategy domain.ResolutionStrategy,
	ranker domain.StatusRanker,
) []domain.Task {
	merged := domain.IndexTasks(domain.CloneTasks(local))
	for _, in := range incoming {
		if existing, ok := merged[in.ID]; ok {
			merged[in.ID] = ResolveTaskConflict(existing, in.Clone(), strategy, ranker)
			continue
		}
		merged[in.ID] = in.Clone()
	}

	out := make([]domain.Task, 0, len(merged))
	for _, t := range merged {
		out = append(out, t)
	}
	domain.SortTasksByID(out)
	return out
}

// compareTimestamps compares UpdatedDate-or-LastModified of both tasks.
// ok is false when neither task has a timestamp.
func compareTimestamps(a, b domain.Task) (c int, ok bool) {
	at, bt := a.Timestamp(), b.Timestamp()
	if at.IsZero() && bt.IsZero() {
		return 0, false
	}
	return at.Compare(bt), true
}

// newestEntry returns the entry with the latest LastModified. Entries are
// sorted by branch, so ties go to the first branch by name.
func newestEntry(entries []domain.BranchIndexEntry) (domain.BranchIndexEntry, bool) {
	if len(entries) == 0 {
		return domain.BranchIndexEntry{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.LastModified.After(best.LastModified) {
			best = e
		}
	}
	return best, true
}

func winnerOf(id string, e domain.BranchIndexEntry, refFor RefFunc) domain.Winner {
	return domain.Winner{
		ID:           id,
		Branch:       e.Branch,
		Ref:          refFor(e.Branch),
		Path:         e.Path,
		LastModified: e.LastModified,
		Blob:         e.Blob,
	}
}

func sortWinners(winners []domain.Winner) {
	slices.SortFunc(winners, func(a, b domain.Winner) int {
		return domain.CompareTaskIDs(a.ID, b.ID)
	})
}
