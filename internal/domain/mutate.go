package domain

import "slices"

// AdjustDependenciesForMove moves a task into an existing sequence by
// joining it: the task's dependencies become every task of the previous
// sequence (none when the target is sequence 1). No other task changes.
//
// Returns a copy of tasks; when movedID is unknown the copy is unchanged.
func AdjustDependenciesForMove(tasks []Task, sequences []Sequence, movedID string, targetSequenceIndex int) []Task {
	out := CloneTasks(tasks)
	pos := slices.IndexFunc(out, func(t Task) bool { return t.ID == movedID })
	if pos < 0 {
		return out
	}

	deps := []string{}
	if prev, ok := findSequence(sequences, targetSequenceIndex-1); ok {
		deps = idsExcept(prev, movedID)
	}
	out[pos].Dependencies = deps
	return out
}

// AdjustDependenciesForInsertBetween inserts a task as a new layer after
// sequence k (k is clamped to [0, len(sequences)]). The task depends on
// every task of sequence k, and every task of sequence k+1 gains a
// dependency on it, displacing that sequence one layer down.
//
// A task inserted before everything with nothing to depend on and no
// following sequence would look isolated, so it gets ordinal 0 to keep it
// sequenced.
func AdjustDependenciesForInsertBetween(tasks []Task, sequences []Sequence, movedID string, k int) []Task {
	out := CloneTasks(tasks)
	pos := slices.IndexFunc(out, func(t Task) bool { return t.ID == movedID })
	if pos < 0 {
		return out
	}

	k = max(0, min(k, len(sequences)))

	deps := []string{}
	if k > 0 {
		if seq, ok := findSequence(sequences, k); ok {
			deps = idsExcept(seq, movedID)
		}
	}
	out[pos].Dependencies = deps

	next, hasNext := findSequence(sequences, k+1)
	if hasNext {
		inNext := make(map[string]bool, len(next.Tasks))
		for _, t := range next.Tasks {
			if t.ID != movedID {
				inNext[t.ID] = true
			}
		}
		for i := range out {
			if !inNext[out[i].ID] || slices.Contains(out[i].Dependencies, movedID) {
				continue
			}
			out[i].Dependencies = append(out[i].Dependencies, movedID)
		}
	}

	if !hasNext && k == 0 && len(deps) == 0 {
		out[pos].Ordinal = OrdinalPtr(0)
	}
	return out
}

// CanMoveToUnsequenced reports whether a task may be demoted to the
// unsequenced bucket: it depends on no known task and no task depends on it.
// Unknown IDs return false.
func CanMoveToUnsequenced(tasks []Task, id string) bool {
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	if !known[id] {
		return false
	}

	for _, t := range tasks {
		if t.ID == id {
			for _, dep := range t.Dependencies {
				if known[dep] {
					return false
				}
			}
			continue
		}
		if slices.Contains(t.Dependencies, id) {
			return false
		}
	}
	return true
}

func idsExcept(seq Sequence, id string) []string {
	ids := make([]string, 0, len(seq.Tasks))
	for _, t := range seq.Tasks {
		if t.ID != id {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
