package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"backlog/internal/adapters/tui/views"
	"backlog/internal/application/commands"
	"backlog/internal/application/reconcile"
)

var adoptCmd = &cobra.Command{
	Use:   "adopt <task-id>",
	Short: "Copy the newest branch version of a task into the local backlog",
	Long: `Load the copies of a task on remote and local branches, pick the winner
with task_resolution_strategy and write it to backlog/tasks.

Examples:
  backlog-cli adopt task-12`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := GetProject()

		var result *commands.AdoptTaskResult
		err := withProgress(cmd, "Loading task copies", func(ctx context.Context, onProgress reconcile.ProgressFunc) error {
			adopt := commands.NewAdoptTaskCommand(p.Workspace, p.Loader, p.Config, args[0])
			adopt.OnProgress = onProgress
			var err error
			result, err = adopt.Execute(ctx)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), views.RenderResult(result.Message))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adoptCmd)
}
