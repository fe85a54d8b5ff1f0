package commands

import (
	"context"
	"fmt"

	"backlog/internal/application"
	"backlog/internal/domain"
)

// SequenceChangeResult contains the outcome of a sequence mutation
type SequenceChangeResult struct {
	TaskID    string
	Changed   []string // IDs of the task files rewritten
	Sequences domain.SequenceResult
	Message   string
}

// ListSequencesCommand computes the dependency layers of the local backlog
type ListSequencesCommand struct {
	ws *Workspace
}

// NewListSequencesCommand creates a new ListSequencesCommand
func NewListSequencesCommand(ws *Workspace) *ListSequencesCommand {
	return &ListSequencesCommand{ws: ws}
}

// Execute runs the list sequences command. It reads without locking.
func (c *ListSequencesCommand) Execute(ctx context.Context) (domain.SequenceResult, error) {
	tasks, err := c.ws.Repo.ListTasks(ctx)
	if err != nil {
		return domain.SequenceResult{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	return domain.ComputeSequences(tasks), nil
}

// MoveTaskCommand moves a task into an existing sequence, or into a new
// last one when Sequence is one past the end
type MoveTaskCommand struct {
	ws       *Workspace
	TaskID   string
	Sequence int
}

// NewMoveTaskCommand creates a new MoveTaskCommand
func NewMoveTaskCommand(ws *Workspace, taskID string, sequence int) *MoveTaskCommand {
	return &MoveTaskCommand{
		ws:       ws,
		TaskID:   application.NormalizeTaskID(taskID),
		Sequence: sequence,
	}
}

// Validate checks the command arguments
func (c *MoveTaskCommand) Validate() error {
	if err := application.ValidateTaskID("taskID", c.TaskID); err != nil {
		return err
	}
	return application.ValidatePositive("sequence", c.Sequence)
}

// Execute runs the move task command
func (c *MoveTaskCommand) Execute(ctx context.Context) (*SequenceChangeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var result *SequenceChangeResult
	err := c.ws.withLock(ctx, func(tasks []domain.Task) error {
		if _, err := findTask(tasks, c.TaskID); err != nil {
			return err
		}
		current := domain.ComputeSequences(tasks)
		if c.Sequence > len(current.Sequences)+1 {
			return &application.MoveError{
				TaskID: c.TaskID,
				Target: fmt.Sprintf("sequence %d", c.Sequence),
				Reason: fmt.Sprintf("only %d sequences exist", len(current.Sequences)),
			}
		}

		out := domain.AdjustDependenciesForMove(tasks, current.Sequences, c.TaskID, c.Sequence)
		out = c.keepSequenced(out)

		changed, err := c.ws.saveChanged(ctx, tasks, out)
		if err != nil {
			return err
		}
		after := domain.ComputeSequences(out)
		result = &SequenceChangeResult{
			TaskID:    c.TaskID,
			Changed:   changed,
			Sequences: after,
			Message:   fmt.Sprintf("Moved %s to sequence %d", c.TaskID, after.SequenceOf(c.TaskID)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// keepSequenced gives the moved task an ordinal when its new dependencies
// would leave it isolated, e.g. a move into sequence 1 with no dependents.
func (c *MoveTaskCommand) keepSequenced(tasks []domain.Task) []domain.Task {
	after := domain.ComputeSequences(tasks)
	if after.SequenceOf(c.TaskID) != 0 {
		return tasks
	}

	var last *float64
	if first, ok := after.FindSequence(1); ok {
		for _, t := range first.Tasks {
			if t.Ordinal != nil && (last == nil || *t.Ordinal > *last) {
				last = t.Ordinal
			}
		}
	}
	placed := domain.CalculateNewOrdinal(domain.NeighborsOf(last, nil), c.ws.step())
	for i := range tasks {
		if tasks[i].ID == c.TaskID {
			tasks[i].Ordinal = domain.OrdinalPtr(placed.Ordinal)
		}
	}
	return tasks
}

// InsertTaskCommand places a task in a new sequence directly after
// AfterSequence, pushing later sequences down. AfterSequence 0 inserts
// before everything.
type InsertTaskCommand struct {
	ws            *Workspace
	TaskID        string
	AfterSequence int
}

// NewInsertTaskCommand creates a new InsertTaskCommand
func NewInsertTaskCommand(ws *Workspace, taskID string, afterSequence int) *InsertTaskCommand {
	return &InsertTaskCommand{
		ws:            ws,
		TaskID:        application.NormalizeTaskID(taskID),
		AfterSequence: afterSequence,
	}
}

// Validate checks the command arguments
func (c *InsertTaskCommand) Validate() error {
	if err := application.ValidateTaskID("taskID", c.TaskID); err != nil {
		return err
	}
	return application.ValidateNonNegative("afterSequence", c.AfterSequence)
}

// Execute runs the insert task command
func (c *InsertTaskCommand) Execute(ctx context.Context) (*SequenceChangeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var result *SequenceChangeResult
	err := c.ws.withLock(ctx, func(tasks []domain.Task) error {
		if _, err := findTask(tasks, c.TaskID); err != nil {
			return err
		}
		current := domain.ComputeSequences(tasks)
		out := domain.AdjustDependenciesForInsertBetween(tasks, current.Sequences, c.TaskID, c.AfterSequence)

		changed, err := c.ws.saveChanged(ctx, tasks, out)
		if err != nil {
			return err
		}
		after := domain.ComputeSequences(out)
		result = &SequenceChangeResult{
			TaskID:    c.TaskID,
			Changed:   changed,
			Sequences: after,
			Message:   fmt.Sprintf("Inserted %s as sequence %d", c.TaskID, after.SequenceOf(c.TaskID)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReorderTaskCommand moves a task to a 0-based position within its own
// sequence. Only ordinals change.
type ReorderTaskCommand struct {
	ws       *Workspace
	TaskID   string
	Position int
}

// NewReorderTaskCommand creates a new ReorderTaskCommand
func NewReorderTaskCommand(ws *Workspace, taskID string, position int) *ReorderTaskCommand {
	return &ReorderTaskCommand{
		ws:       ws,
		TaskID:   application.NormalizeTaskID(taskID),
		Position: position,
	}
}

// Validate checks the command arguments
func (c *ReorderTaskCommand) Validate() error {
	if err := application.ValidateTaskID("taskID", c.TaskID); err != nil {
		return err
	}
	return application.ValidateNonNegative("position", c.Position)
}

// Execute runs the reorder task command. When both neighbors at the new
// position carry ordinals the task is bisected between them and is the only
// file written; otherwise the whole sequence is renumbered.
func (c *ReorderTaskCommand) Execute(ctx context.Context) (*SequenceChangeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var result *SequenceChangeResult
	err := c.ws.withLock(ctx, func(tasks []domain.Task) error {
		if _, err := findTask(tasks, c.TaskID); err != nil {
			return err
		}
		current := domain.ComputeSequences(tasks)
		seq, ok := current.FindSequence(current.SequenceOf(c.TaskID))
		if !ok {
			return &application.MoveError{
				TaskID: c.TaskID,
				Target: fmt.Sprintf("position %d", c.Position),
				Reason: "unsequenced tasks have no order",
			}
		}

		ordered := domain.SortForDisplay(seq.Tasks)
		out, ok := c.bisect(tasks, ordered)
		if !ok {
			ids := make([]string, len(ordered))
			for i, t := range ordered {
				ids[i] = t.ID
			}
			out = domain.ReorderWithinSequence(tasks, ids, c.TaskID, c.Position)
		}

		changed, err := c.ws.saveChanged(ctx, tasks, out)
		if err != nil {
			return err
		}
		result = &SequenceChangeResult{
			TaskID:    c.TaskID,
			Changed:   changed,
			Sequences: domain.ComputeSequences(out),
			Message:   fmt.Sprintf("Moved %s to position %d of sequence %d", c.TaskID, c.Position, seq.Index),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// bisect places the task between its new neighbors with a fresh ordinal.
// It reports false when a neighbor lacks an ordinal or the gap is exhausted.
func (c *ReorderTaskCommand) bisect(tasks, ordered []domain.Task) ([]domain.Task, bool) {
	others := make([]domain.Task, 0, len(ordered))
	for _, t := range ordered {
		if t.ID != c.TaskID {
			others = append(others, t)
		}
	}
	pos := max(0, min(c.Position, len(others)))

	var prev, next *float64
	if pos > 0 {
		if prev = others[pos-1].Ordinal; prev == nil {
			return nil, false
		}
	}
	if pos < len(others) {
		if next = others[pos].Ordinal; next == nil {
			return nil, false
		}
	}

	placed := domain.CalculateNewOrdinal(domain.NeighborsOf(prev, next), c.ws.step())
	if placed.RequiresRebalance {
		return nil, false
	}
	out := domain.CloneTasks(tasks)
	for i := range out {
		if out[i].ID == c.TaskID {
			out[i].Ordinal = domain.OrdinalPtr(placed.Ordinal)
		}
	}
	return out, true
}

// DemoteTaskCommand moves a task back to the unsequenced bucket
type DemoteTaskCommand struct {
	ws     *Workspace
	TaskID string
}

// NewDemoteTaskCommand creates a new DemoteTaskCommand
func NewDemoteTaskCommand(ws *Workspace, taskID string) *DemoteTaskCommand {
	return &DemoteTaskCommand{ws: ws, TaskID: application.NormalizeTaskID(taskID)}
}

// Validate checks the command arguments
func (c *DemoteTaskCommand) Validate() error {
	return application.ValidateTaskID("taskID", c.TaskID)
}

// Execute runs the demote task command
func (c *DemoteTaskCommand) Execute(ctx context.Context) (*SequenceChangeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var result *SequenceChangeResult
	err := c.ws.withLock(ctx, func(tasks []domain.Task) error {
		if _, err := findTask(tasks, c.TaskID); err != nil {
			return err
		}
		if !domain.CanMoveToUnsequenced(tasks, c.TaskID) {
			return &application.MoveError{
				TaskID: c.TaskID,
				Target: "unsequenced",
				Reason: "it depends on, or is depended on by, other tasks",
			}
		}

		out := domain.CloneTasks(tasks)
		for i := range out {
			if out[i].ID == c.TaskID {
				out[i].Ordinal = nil
			}
		}

		changed, err := c.ws.saveChanged(ctx, tasks, out)
		if err != nil {
			return err
		}
		result = &SequenceChangeResult{
			TaskID:    c.TaskID,
			Changed:   changed,
			Sequences: domain.ComputeSequences(out),
			Message:   fmt.Sprintf("Moved %s to unsequenced", c.TaskID),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RebalanceCommand renumbers the ordinals of one sequence in display order.
// Without Force only missing or out-of-order ordinals are reassigned.
type RebalanceCommand struct {
	ws       *Workspace
	Sequence int
	Force    bool
}

// NewRebalanceCommand creates a new RebalanceCommand
func NewRebalanceCommand(ws *Workspace, sequence int, force bool) *RebalanceCommand {
	return &RebalanceCommand{ws: ws, Sequence: sequence, Force: force}
}

// Validate checks the command arguments
func (c *RebalanceCommand) Validate() error {
	return application.ValidatePositive("sequence", c.Sequence)
}

// Execute runs the rebalance command
func (c *RebalanceCommand) Execute(ctx context.Context) (*SequenceChangeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var result *SequenceChangeResult
	err := c.ws.withLock(ctx, func(tasks []domain.Task) error {
		current := domain.ComputeSequences(tasks)
		seq, ok := current.FindSequence(c.Sequence)
		if !ok {
			return fmt.Errorf("sequence %d: %w", c.Sequence, application.ErrNotFound)
		}

		opts := []domain.OrdinalOption{domain.WithDefaultStep(c.ws.step())}
		if c.Force {
			opts = append(opts, domain.WithForceSequential())
		}
		updates := domain.IndexTasks(domain.ResolveOrdinalConflicts(domain.SortForDisplay(seq.Tasks), opts...))

		out := domain.CloneTasks(tasks)
		for i := range out {
			if u, ok := updates[out[i].ID]; ok {
				out[i].Ordinal = u.Ordinal
			}
		}

		changed, err := c.ws.saveChanged(ctx, tasks, out)
		if err != nil {
			return err
		}
		result = &SequenceChangeResult{
			Changed:   changed,
			Sequences: domain.ComputeSequences(out),
			Message:   fmt.Sprintf("Rebalanced sequence %d (%d tasks renumbered)", c.Sequence, len(changed)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
