package domain

import (
	"math"
	"slices"
)

const (
	// DefaultOrdinalStep is the gap left between freshly assigned ordinals
	DefaultOrdinalStep = 1000.0
	// OrdinalEpsilon is the smallest gap considered usable between neighbors
	OrdinalEpsilon = 1e-6
)

// Neighbors describes the ordinals around an insertion point.
// It is one of NoNeighbors, NextOnly, PrevOnly or Between.
type Neighbors interface {
	neighbors()
}

// NoNeighbors is an insertion into an empty list
type NoNeighbors struct{}

// NextOnly is an insertion before the first element
type NextOnly struct{ Next float64 }

// PrevOnly is an insertion after the last element
type PrevOnly struct{ Prev float64 }

// Between is an insertion between two elements
type Between struct{ Prev, Next float64 }

func (NoNeighbors) neighbors() {}
func (NextOnly) neighbors()    {}
func (PrevOnly) neighbors()    {}
func (Between) neighbors()     {}

// NeighborsOf builds the Neighbors value for optional previous and next ordinals
func NeighborsOf(prev, next *float64) Neighbors {
	switch {
	case prev != nil && next != nil:
		return Between{Prev: *prev, Next: *next}
	case prev != nil:
		return PrevOnly{Prev: *prev}
	case next != nil:
		return NextOnly{Next: *next}
	default:
		return NoNeighbors{}
	}
}

// OrdinalResult is a proposed ordinal and whether the neighbors must be
// renumbered before it can be trusted
type OrdinalResult struct {
	Ordinal           float64
	RequiresRebalance bool
}

// CalculateNewOrdinal bisects between neighbors. A defaultStep <= 0 uses
// DefaultOrdinalStep.
func CalculateNewOrdinal(n Neighbors, defaultStep float64) OrdinalResult {
	if defaultStep <= 0 {
		defaultStep = DefaultOrdinalStep
	}

	switch n := n.(type) {
	case NextOnly:
		candidate := n.Next / 2
		rebalance := !isFinite(candidate) || candidate <= 0 || math.Abs(candidate-n.Next) <= OrdinalEpsilon
		return OrdinalResult{Ordinal: candidate, RequiresRebalance: rebalance}

	case PrevOnly:
		candidate := n.Prev + defaultStep
		return OrdinalResult{Ordinal: candidate, RequiresRebalance: !isFinite(candidate)}

	case Between:
		gap := n.Next - n.Prev
		candidate := n.Prev + gap/2
		rebalance := gap <= OrdinalEpsilon ||
			!isFinite(candidate) ||
			math.Abs(candidate-n.Prev) <= OrdinalEpsilon ||
			math.Abs(n.Next-candidate) <= OrdinalEpsilon
		return OrdinalResult{Ordinal: candidate, RequiresRebalance: rebalance}

	default:
		return OrdinalResult{Ordinal: defaultStep}
	}
}

type ordinalOptions struct {
	defaultStep     float64
	startOrdinal    *float64
	forceSequential bool
}

// OrdinalOption configures ResolveOrdinalConflicts
type OrdinalOption func(*ordinalOptions)

// WithDefaultStep sets the gap between reassigned ordinals
func WithDefaultStep(step float64) OrdinalOption {
	return func(o *ordinalOptions) {
		if step > 0 {
			o.defaultStep = step
		}
	}
}

// WithStartOrdinal sets the ordinal given to the first reassigned task
func WithStartOrdinal(start float64) OrdinalOption {
	return func(o *ordinalOptions) {
		o.startOrdinal = &start
	}
}

// WithForceSequential renumbers every task regardless of existing ordinals
func WithForceSequential() OrdinalOption {
	return func(o *ordinalOptions) {
		o.forceSequential = true
	}
}

// ResolveOrdinalConflicts walks tasks in presentation order and reassigns
// ordinals that are missing or not strictly increasing. Only tasks whose
// ordinal actually changed are returned, carrying their new ordinal.
func ResolveOrdinalConflicts(tasks []Task, opts ...OrdinalOption) []Task {
	o := ordinalOptions{defaultStep: DefaultOrdinalStep}
	for _, opt := range opts {
		opt(&o)
	}
	start := o.defaultStep
	if o.startOrdinal != nil {
		start = *o.startOrdinal
	}

	changed := []Task{}
	var last float64
	for i, t := range tasks {
		assigned := 0.0
		switch {
		case o.forceSequential, t.Ordinal == nil, i > 0 && *t.Ordinal <= last:
			if i == 0 {
				assigned = start
			} else {
				assigned = last + o.defaultStep
			}
		default:
			assigned = *t.Ordinal
		}

		if t.Ordinal == nil || *t.Ordinal != assigned {
			c := t.Clone()
			c.Ordinal = OrdinalPtr(assigned)
			changed = append(changed, c)
		}
		last = assigned
	}
	return changed
}

// ReorderWithinSequence moves movedID to newIndex within the ordered
// sequenceTaskIDs and assigns dense ordinals 0..n-1 to that subset.
// Tasks outside the subset, and every other field, are left alone.
// Returns a copy of tasks; unknown movedID leaves it unchanged.
func ReorderWithinSequence(tasks []Task, sequenceTaskIDs []string, movedID string, newIndex int) []Task {
	out := CloneTasks(tasks)
	if !slices.Contains(sequenceTaskIDs, movedID) {
		return out
	}

	order := make([]string, 0, len(sequenceTaskIDs))
	for _, id := range sequenceTaskIDs {
		if id != movedID {
			order = append(order, id)
		}
	}
	newIndex = max(0, min(newIndex, len(order)))
	order = slices.Insert(order, newIndex, movedID)

	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}
	for i := range out {
		if p, ok := position[out[i].ID]; ok {
			out[i].Ordinal = OrdinalPtr(float64(p))
		}
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
