package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"backlog/internal/adapters/tui/views"
	"backlog/internal/application"
	"backlog/internal/application/commands"
)

var rebalanceForce bool

var moveCmd = &cobra.Command{
	Use:   "move <task-id> <sequence>",
	Short: "Move a task into another sequence",
	Long: `Move a task into a sequence by rewriting its dependencies. The task then
depends on every task of the previous sequence. Use one past the last
sequence to start a new final sequence.

Examples:
  backlog-cli move task-7 1
  backlog-cli move 7 3`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sequence, err := intArg("sequence", args[1])
		if err != nil {
			return err
		}
		result, err := commands.NewMoveTaskCommand(GetProject().Workspace, args[0], sequence).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), views.RenderResult(result.Message))
		return nil
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert <task-id> <after-sequence>",
	Short: "Insert a task as a new sequence",
	Long: `Insert a task as a new sequence right after the given one. Tasks of the
following sequence gain a dependency on it. Use 0 to insert before the
first sequence.

Examples:
  backlog-cli insert task-9 2
  backlog-cli insert task-9 0`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		after, err := intArg("after sequence", args[1])
		if err != nil {
			return err
		}
		result, err := commands.NewInsertTaskCommand(GetProject().Workspace, args[0], after).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), views.RenderResult(result.Message))
		return nil
	},
}

var reorderCmd = &cobra.Command{
	Use:   "reorder <task-id> <position>",
	Short: "Change the position of a task within its sequence",
	Long: `Change the position of a task within its sequence. Positions are 0-based
and follow the display order of the sequence.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := intArg("position", args[1])
		if err != nil {
			return err
		}
		result, err := commands.NewReorderTaskCommand(GetProject().Workspace, args[0], position).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), views.RenderResult(result.Message))
		return nil
	},
}

var demoteCmd = &cobra.Command{
	Use:   "demote <task-id>",
	Short: "Take a task out of the sequences",
	Long: `Take a task out of the sequences by clearing its ordinal. Refused while
other tasks depend on it or it has dependencies of its own.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewDemoteTaskCommand(GetProject().Workspace, args[0]).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), views.RenderResult(result.Message))
		return nil
	},
}

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance <sequence>",
	Short: "Repair the ordinals of a sequence",
	Long: `Reassign missing or out-of-order ordinals of a sequence in display order.
With --force every task of the sequence is renumbered.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sequence, err := intArg("sequence", args[0])
		if err != nil {
			return err
		}
		result, err := commands.NewRebalanceCommand(GetProject().Workspace, sequence, rebalanceForce).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), views.RenderResult(result.Message))
		return nil
	},
}

func intArg(field, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &application.ValidationError{Field: field, Message: fmt.Sprintf("expected a number, got: %s", value)}
	}
	return n, nil
}

func init() {
	rebalanceCmd.Flags().BoolVarP(&rebalanceForce, "force", "f", false, "renumber every task of the sequence")
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(reorderCmd)
	rootCmd.AddCommand(demoteCmd)
	rootCmd.AddCommand(rebalanceCmd)
}
