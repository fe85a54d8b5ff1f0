package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"backlog/internal/adapters/tui/views"
	"backlog/internal/application/commands"
	"backlog/internal/application/reconcile"
	"backlog/internal/domain"
)

var listAllBranches bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks of the local backlog",
	Long: `List the tasks in backlog/tasks.

With --all-branches the list is reconciled against copies of the same
tasks on recently active remote and local branches; newer copies win
according to task_resolution_strategy.

Examples:
  backlog-cli list
  backlog-cli list --all-branches`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := GetProject()

		if !listAllBranches {
			tasks, err := commands.NewListTasksCommand(p.Repo).Execute(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), views.RenderTaskList(tasks))
			return nil
		}

		var tasks []domain.Task
		err := withProgress(cmd, "Loading tasks from all branches", func(ctx context.Context, onProgress reconcile.ProgressFunc) error {
			load := commands.NewLoadBranchTasksCommand(p.Repo, p.Loader, p.Config, commands.ScopeAll)
			load.Merge = true
			load.OnProgress = onProgress
			var err error
			tasks, err = load.Execute(ctx)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), views.RenderTaskList(tasks))
		return nil
	},
}

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "List newer task copies on remote branches",
	Long: `Fetch from the configured remotes and list copies of tasks on recently
active remote branches that are newer than the local backlog.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBranchLoad(cmd, commands.ScopeRemote, "Loading remote tasks")
	},
}

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List newer task copies on other local branches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBranchLoad(cmd, commands.ScopeLocalBranches, "Loading tasks from local branches")
	},
}

func runBranchLoad(cmd *cobra.Command, scope commands.BranchScope, status string) error {
	p := GetProject()

	var tasks []domain.Task
	err := withProgress(cmd, status, func(ctx context.Context, onProgress reconcile.ProgressFunc) error {
		load := commands.NewLoadBranchTasksCommand(p.Repo, p.Loader, p.Config, scope)
		load.OnProgress = onProgress
		var err error
		tasks, err = load.Execute(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No newer task copies found.")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), views.RenderTaskList(tasks))
	return nil
}

func init() {
	listCmd.Flags().BoolVarP(&listAllBranches, "all-branches", "a", false, "merge in newer copies from other branches")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(branchesCmd)
}
