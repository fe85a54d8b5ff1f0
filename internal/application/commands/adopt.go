package commands

import (
	"context"
	"fmt"

	"backlog/internal/application"
	"backlog/internal/application/reconcile"
	"backlog/internal/config"
	"backlog/internal/domain"
)

// AdoptTaskResult contains the result of adopting a branch copy
type AdoptTaskResult struct {
	Task    domain.Task
	Adopted bool
	Message string
}

// AdoptTaskCommand writes the winning branch copy of a task into the local
// backlog, replacing the local copy when the branch copy wins
type AdoptTaskCommand struct {
	ws         *Workspace
	loader     BranchLoader
	cfg        *config.Config
	TaskID     string
	OnProgress reconcile.ProgressFunc
}

// NewAdoptTaskCommand creates a new AdoptTaskCommand
func NewAdoptTaskCommand(ws *Workspace, loader BranchLoader, cfg *config.Config, taskID string) *AdoptTaskCommand {
	return &AdoptTaskCommand{
		ws:     ws,
		loader: loader,
		cfg:    cfg,
		TaskID: application.NormalizeTaskID(taskID),
	}
}

// Validate checks the command arguments
func (c *AdoptTaskCommand) Validate() error {
	return application.ValidateTaskID("taskID", c.TaskID)
}

// Execute runs the adopt task command
func (c *AdoptTaskCommand) Execute(ctx context.Context) (*AdoptTaskResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var result *AdoptTaskResult
	err := c.ws.withLock(ctx, func(tasks []domain.Task) error {
		load := NewLoadBranchTasksCommand(c.ws.Repo, c.loader, c.cfg, ScopeAll)
		load.OnProgress = c.OnProgress
		incoming, err := load.Execute(ctx)
		if err != nil {
			return err
		}

		branchCopy, err := findTask(incoming, c.TaskID)
		if err != nil {
			return fmt.Errorf("no newer copy on other branches: %w", err)
		}

		local, hasLocal := domain.IndexTasks(tasks)[c.TaskID]
		if hasLocal {
			winner := reconcile.ResolveTaskConflict(local, branchCopy, c.cfg.Strategy(), c.cfg.Ranker())
			if winner.Source != branchCopy.Source || winner.Branch != branchCopy.Branch {
				result = &AdoptTaskResult{
					Task:    local,
					Message: fmt.Sprintf("Local copy of %s is already current", c.TaskID),
				}
				return nil
			}
			branchCopy.FilePath = local.FilePath
		}

		from := branchCopy.Branch
		branchCopy.Source = domain.SourceLocal
		branchCopy.Branch = ""
		saved, err := c.ws.Repo.SaveTask(ctx, branchCopy)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", c.TaskID, err)
		}
		result = &AdoptTaskResult{
			Task:    saved,
			Adopted: true,
			Message: fmt.Sprintf("Adopted %s from %s", c.TaskID, from),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
