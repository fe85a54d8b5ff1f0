package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// three layers: task-1 | task-2, task-3 | task-4
func layeredTasks() []Task {
	return []Task{
		task("task-1"),
		task("task-2", "task-1"),
		task("task-3", "task-1"),
		task("task-4", "task-2", "task-3"),
	}
}

func byID(tasks []Task, id string) Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return Task{}
}

func TestAdjustDependenciesForMove_IntoSequenceOne(t *testing.T) {
	tasks := layeredTasks()
	seqs := ComputeSequences(tasks).Sequences

	out := AdjustDependenciesForMove(tasks, seqs, "task-4", 1)

	assert.Equal(t, []string{}, byID(out, "task-4").Dependencies)
	// next-layer tasks keep their dependencies exactly
	assert.Equal(t, []string{"task-1"}, byID(out, "task-2").Dependencies)
	assert.Equal(t, []string{"task-1"}, byID(out, "task-3").Dependencies)
}

func TestAdjustDependenciesForMove_JoinsTargetLayer(t *testing.T) {
	tasks := layeredTasks()
	seqs := ComputeSequences(tasks).Sequences

	out := AdjustDependenciesForMove(tasks, seqs, "task-2", 3)

	assert.Equal(t, []string{"task-3"}, byID(out, "task-2").Dependencies, "moved task excluded from its own dependencies")

	r := ComputeSequences(out)
	assert.Equal(t, 2, r.SequenceOf("task-3"))
	assert.Equal(t, 3, r.SequenceOf("task-2"))
	// task-4 still depends on task-2, so it is pushed down a layer
	assert.Equal(t, 4, r.SequenceOf("task-4"))
}

func TestAdjustDependenciesForMove_UnknownID(t *testing.T) {
	tasks := layeredTasks()
	seqs := ComputeSequences(tasks).Sequences

	out := AdjustDependenciesForMove(tasks, seqs, "task-99", 2)

	assert.Equal(t, tasks, out)
}

func TestAdjustDependenciesForMove_DoesNotMutateInput(t *testing.T) {
	tasks := layeredTasks()
	seqs := ComputeSequences(tasks).Sequences

	AdjustDependenciesForMove(tasks, seqs, "task-4", 1)

	assert.Equal(t, []string{"task-2", "task-3"}, tasks[3].Dependencies)
}

func TestAdjustDependenciesForInsertBetween_DisplacesNextLayer(t *testing.T) {
	tasks := append(layeredTasks(), task("task-5"))
	seqs := ComputeSequences(tasks).Sequences

	out := AdjustDependenciesForInsertBetween(tasks, seqs, "task-5", 1)

	assert.Equal(t, []string{"task-1"}, byID(out, "task-5").Dependencies)
	assert.Equal(t, []string{"task-1", "task-5"}, byID(out, "task-2").Dependencies)
	assert.Equal(t, []string{"task-1", "task-5"}, byID(out, "task-3").Dependencies)
	assert.Equal(t, []string{"task-2", "task-3"}, byID(out, "task-4").Dependencies)

	r := ComputeSequences(out)
	assert.Equal(t, [][]string{
		{"task-1"},
		{"task-5"},
		{"task-2", "task-3"},
		{"task-4"},
	}, sequenceIDs(r))
}

func TestAdjustDependenciesForInsertBetween_NoDuplicateDependency(t *testing.T) {
	tasks := []Task{
		task("task-1"),
		task("task-2", "task-1", "task-3"),
		task("task-3"),
	}
	seqs := []Sequence{
		{Index: 1, Tasks: []Task{tasks[0]}},
		{Index: 2, Tasks: []Task{tasks[1]}},
	}

	out := AdjustDependenciesForInsertBetween(tasks, seqs, "task-3", 1)

	assert.Equal(t, []string{"task-1", "task-3"}, byID(out, "task-2").Dependencies)
}

func TestAdjustDependenciesForInsertBetween_ClampsK(t *testing.T) {
	tasks := append(layeredTasks(), task("task-5"))
	seqs := ComputeSequences(tasks).Sequences

	out := AdjustDependenciesForInsertBetween(tasks, seqs, "task-5", 42)

	assert.Equal(t, []string{"task-4"}, byID(out, "task-5").Dependencies)
	assert.Nil(t, byID(out, "task-5").Ordinal)

	low := AdjustDependenciesForInsertBetween(tasks, seqs, "task-5", -3)
	assert.Equal(t, []string{}, byID(low, "task-5").Dependencies)
	assert.Equal(t, []string{"task-5"}, byID(low, "task-1").Dependencies)
}

func TestAdjustDependenciesForInsertBetween_ZeroWithoutSequencesSetsOrdinal(t *testing.T) {
	tasks := []Task{task("task-1")}

	out := AdjustDependenciesForInsertBetween(tasks, nil, "task-1", 0)

	require.NotNil(t, byID(out, "task-1").Ordinal)
	assert.Equal(t, 0.0, *byID(out, "task-1").Ordinal)

	r := ComputeSequences(out)
	assert.Empty(t, r.Unsequenced)
	assert.Equal(t, [][]string{{"task-1"}}, sequenceIDs(r))
}

func TestAdjustDependenciesForInsertBetween_MovedTaskNotSelfDependent(t *testing.T) {
	tasks := layeredTasks()
	seqs := ComputeSequences(tasks).Sequences

	// task-2 sits in sequence 2; inserting it after sequence 1 must not make it depend on itself
	out := AdjustDependenciesForInsertBetween(tasks, seqs, "task-2", 1)

	assert.Equal(t, []string{"task-1"}, byID(out, "task-2").Dependencies)
	assert.Equal(t, []string{"task-1", "task-2"}, byID(out, "task-3").Dependencies)
}

func TestAdjustDependenciesForInsertBetween_UnknownID(t *testing.T) {
	tasks := layeredTasks()
	seqs := ComputeSequences(tasks).Sequences

	assert.Equal(t, tasks, AdjustDependenciesForInsertBetween(tasks, seqs, "task-404", 1))
}

func TestCanMoveToUnsequenced(t *testing.T) {
	tasks := []Task{
		task("task-1"),
		task("task-2", "task-1"),
		task("task-3", "task-77"),
		task("task-4"),
	}

	assert.False(t, CanMoveToUnsequenced(tasks, "task-1"), "has a dependent")
	assert.False(t, CanMoveToUnsequenced(tasks, "task-2"), "has an in-set dependency")
	assert.True(t, CanMoveToUnsequenced(tasks, "task-3"), "external dependencies do not count")
	assert.True(t, CanMoveToUnsequenced(tasks, "task-4"))
	assert.False(t, CanMoveToUnsequenced(tasks, "task-404"))
}
