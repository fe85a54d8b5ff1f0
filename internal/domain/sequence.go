package domain

import (
	"slices"
)

// ComputeSequences layers tasks by their dependencies.
//
// Isolated tasks (no in-set dependencies, no dependents, no ordinal) go to
// Unsequenced. The rest are layered with Kahn's algorithm, taking every
// zero in-degree task at once per layer. Dependencies on IDs outside the
// set are ignored. If a cycle blocks progress, all remaining tasks form one
// final layer, so every input task lands in exactly one place.
//
// Each task is assigned a dense index once; adjacency and in-degree are
// slices over those indices.
func ComputeSequences(tasks []Task) SequenceResult {
	n := len(tasks)
	indexOf := make(map[string]int, n)
	for i, t := range tasks {
		if _, dup := indexOf[t.ID]; !dup {
			indexOf[t.ID] = i
		}
	}

	// deps[i] holds in-set dependency indices of task i, deduplicated
	deps := make([][]int, n)
	hasDependents := make([]bool, n)
	for i, t := range tasks {
		for _, depID := range t.Dependencies {
			j, ok := indexOf[depID]
			if !ok || slices.Contains(deps[i], j) {
				continue
			}
			deps[i] = append(deps[i], j)
			hasDependents[j] = true
		}
	}

	result := SequenceResult{
		Unsequenced: []Task{},
		Sequences:   []Sequence{},
	}

	layering := make([]bool, n)
	for i, t := range tasks {
		if len(deps[i]) == 0 && !hasDependents[i] && t.Ordinal == nil {
			result.Unsequenced = append(result.Unsequenced, t)
			continue
		}
		layering[i] = true
	}
	sortByID(result.Unsequenced)

	// Isolated tasks have no edges, so restricting edges to the layering
	// set only needs the dependent side checked.
	outgoing := make([][]int, n)
	indeg := make([]int, n)
	remaining := make([]int, 0, n)
	for i := range tasks {
		if !layering[i] {
			continue
		}
		remaining = append(remaining, i)
		for _, j := range deps[i] {
			outgoing[j] = append(outgoing[j], i)
			indeg[i]++
		}
	}

	for len(remaining) > 0 {
		var layer, rest []int
		for _, i := range remaining {
			if indeg[i] == 0 {
				layer = append(layer, i)
			} else {
				rest = append(rest, i)
			}
		}

		if len(layer) == 0 {
			// Cycle: flatten what is left into one terminal layer
			result.Sequences = append(result.Sequences, newSequence(len(result.Sequences)+1, tasks, remaining))
			break
		}

		result.Sequences = append(result.Sequences, newSequence(len(result.Sequences)+1, tasks, layer))
		for _, i := range layer {
			for _, k := range outgoing[i] {
				indeg[k]--
			}
		}
		remaining = rest
	}

	return result
}

func newSequence(index int, tasks []Task, members []int) Sequence {
	layer := make([]Task, len(members))
	for i, m := range members {
		layer[i] = tasks[m]
	}
	sortByID(layer)
	return Sequence{Index: index, Tasks: layer}
}

func sortByID(tasks []Task) {
	slices.SortStableFunc(tasks, func(a, b Task) int {
		return CompareTaskIDs(a.ID, b.ID)
	})
}

// SortTasksByID sorts tasks in place by numeric-aware ID order
func SortTasksByID(tasks []Task) {
	sortByID(tasks)
}

// SortForDisplay orders a layer for presentation: tasks with ordinals first
// in ascending ordinal order, then the rest by ID.
func SortForDisplay(tasks []Task) []Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b Task) int {
		switch {
		case a.Ordinal != nil && b.Ordinal != nil:
			if *a.Ordinal != *b.Ordinal {
				if *a.Ordinal < *b.Ordinal {
					return -1
				}
				return 1
			}
		case a.Ordinal != nil:
			return -1
		case b.Ordinal != nil:
			return 1
		}
		return CompareTaskIDs(a.ID, b.ID)
	})
	return out
}
