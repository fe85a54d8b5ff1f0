package commands

import (
	"context"
	"fmt"

	"backlog/internal/application/reconcile"
	"backlog/internal/config"
	"backlog/internal/domain"
	"backlog/internal/ports"
)

// BranchLoader loads task copies from other branches
type BranchLoader interface {
	LoadRemoteTasks(ctx context.Context, cfg *config.Config, onProgress reconcile.ProgressFunc, localTasks []domain.Task) ([]domain.Task, error)
	LoadLocalBranchTasks(ctx context.Context, cfg *config.Config, onProgress reconcile.ProgressFunc, localTasks []domain.Task) ([]domain.Task, error)
}

// BranchScope selects which branches a load reads
type BranchScope string

const (
	ScopeRemote        BranchScope = "remote"
	ScopeLocalBranches BranchScope = "local-branches"
	ScopeAll           BranchScope = "all"
)

// ListTasksCommand lists the tasks of the local backlog
type ListTasksCommand struct {
	repo ports.TaskRepository
}

// NewListTasksCommand creates a new ListTasksCommand
func NewListTasksCommand(repo ports.TaskRepository) *ListTasksCommand {
	return &ListTasksCommand{repo: repo}
}

// Execute runs the list tasks command
func (c *ListTasksCommand) Execute(ctx context.Context) ([]domain.Task, error) {
	tasks, err := c.repo.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	domain.SortTasksByID(tasks)
	return tasks, nil
}

// LoadBranchTasksCommand loads the copies of tasks found on other branches.
// With Merge the result is the local backlog reconciled against them;
// otherwise only the loaded copies are returned.
type LoadBranchTasksCommand struct {
	repo       ports.TaskRepository
	loader     BranchLoader
	cfg        *config.Config
	Scope      BranchScope
	Merge      bool
	OnProgress reconcile.ProgressFunc
}

// NewLoadBranchTasksCommand creates a new LoadBranchTasksCommand
func NewLoadBranchTasksCommand(repo ports.TaskRepository, loader BranchLoader, cfg *config.Config, scope BranchScope) *LoadBranchTasksCommand {
	return &LoadBranchTasksCommand{
		repo:   repo,
		loader: loader,
		cfg:    cfg,
		Scope:  scope,
	}
}

// Execute runs the load branch tasks command
func (c *LoadBranchTasksCommand) Execute(ctx context.Context) ([]domain.Task, error) {
	local, err := c.repo.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	for i := range local {
		local[i].Source = domain.SourceLocal
	}

	var incoming []domain.Task
	if c.Scope == ScopeRemote || c.Scope == ScopeAll {
		remote, err := c.loader.LoadRemoteTasks(ctx, c.cfg, c.OnProgress, local)
		if err != nil {
			return nil, err
		}
		incoming = append(incoming, remote...)
	}
	if c.Scope == ScopeLocalBranches || c.Scope == ScopeAll {
		branch, err := c.loader.LoadLocalBranchTasks(ctx, c.cfg, c.OnProgress, local)
		if err != nil {
			return nil, err
		}
		incoming = append(incoming, branch...)
	}

	if !c.Merge {
		// remote and local-branch copies of one task still compete
		return reconcile.MergeTasks(nil, incoming, c.cfg.Strategy(), c.cfg.Ranker()), nil
	}
	return reconcile.MergeTasks(local, incoming, c.cfg.Strategy(), c.cfg.Ranker()), nil
}
