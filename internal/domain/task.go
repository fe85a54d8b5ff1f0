package domain

import (
	"slices"
	"time"
)

// Source identifies where a task copy was loaded from
type Source string

const (
	SourceLocal       Source = "local"
	SourceRemote      Source = "remote"
	SourceLocalBranch Source = "local-branch"
)

// Task is a single backlog task as stored in a markdown file
type Task struct {
	ID           string
	Title        string
	Status       string
	Assignee     []string
	Labels       []string
	Dependencies []string   // Task IDs, may reference tasks outside the loaded set
	Ordinal      *float64   // Explicit list position, nil when unset
	CreatedDate  time.Time
	UpdatedDate  *time.Time
	LastModified time.Time // File or branch timestamp, zero when unknown
	Source       Source
	Branch       string // Originating branch for remote and local-branch copies
	Body         string
	FilePath     string // Local file path, empty for tasks hydrated from other branches
}

// Clone returns a deep copy so callers can mutate the result freely
func (t Task) Clone() Task {
	c := t
	c.Assignee = slices.Clone(t.Assignee)
	c.Labels = slices.Clone(t.Labels)
	c.Dependencies = slices.Clone(t.Dependencies)
	if t.Ordinal != nil {
		o := *t.Ordinal
		c.Ordinal = &o
	}
	if t.UpdatedDate != nil {
		u := *t.UpdatedDate
		c.UpdatedDate = &u
	}
	return c
}

// Timestamp returns the best known modification time: UpdatedDate, falling
// back to LastModified. The zero time means neither is known.
func (t Task) Timestamp() time.Time {
	if t.UpdatedDate != nil && !t.UpdatedDate.IsZero() {
		return *t.UpdatedDate
	}
	return t.LastModified
}

// HasOrdinal reports whether the task carries an explicit ordinal
func (t Task) HasOrdinal() bool {
	return t.Ordinal != nil
}

// OrdinalPtr returns a pointer to v, for building tasks with ordinals
func OrdinalPtr(v float64) *float64 {
	return &v
}

// BranchIndexEntry is one copy of a task on a branch, known only by its
// path and last commit time
type BranchIndexEntry struct {
	Branch       string
	Path         string
	LastModified time.Time
	Blob         string // content hash, "" when unknown
}

// BranchIndex maps task IDs to every branch copy found for them
type BranchIndex map[string][]BranchIndexEntry

// Winner is the branch copy selected for hydration
type Winner struct {
	ID           string
	Branch       string
	Ref          string // origin/<branch> for remote winners, <branch> for local ones
	Path         string
	LastModified time.Time
	Blob         string
}

// Sequence is a dependency layer: every task's in-set dependencies are
// satisfied by earlier sequences
type Sequence struct {
	Index int // 1-based, contiguous
	Tasks []Task
}

// TaskIDs returns the IDs of the tasks in the sequence, in order
func (s Sequence) TaskIDs() []string {
	ids := make([]string, len(s.Tasks))
	for i, t := range s.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// SequenceResult is the output of ComputeSequences
type SequenceResult struct {
	Unsequenced []Task
	Sequences   []Sequence
}

// FindSequence returns the sequence with the given 1-based index
func (r SequenceResult) FindSequence(index int) (Sequence, bool) {
	return findSequence(r.Sequences, index)
}

// SequenceOf returns the index of the sequence containing id, or 0 when the
// task is unsequenced or unknown
func (r SequenceResult) SequenceOf(id string) int {
	for _, seq := range r.Sequences {
		for _, t := range seq.Tasks {
			if t.ID == id {
				return seq.Index
			}
		}
	}
	return 0
}

func findSequence(sequences []Sequence, index int) (Sequence, bool) {
	for _, seq := range sequences {
		if seq.Index == index {
			return seq, true
		}
	}
	return Sequence{}, false
}

// IndexTasks returns a map from ID to task
func IndexTasks(tasks []Task) map[string]Task {
	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	return byID
}

// CloneTasks deep-copies a task slice
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
