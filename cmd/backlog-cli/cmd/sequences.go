package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"backlog/internal/adapters/tui/views"
	"backlog/internal/application/commands"
)

var sequencesCopy bool

var sequencesCmd = &cobra.Command{
	Use:   "sequences",
	Short: "Show the dependency sequences of the backlog",
	Long: `Show the tasks of the local backlog grouped into sequences. Every task of
a sequence depends only on tasks of earlier sequences, so the tasks of one
sequence can be worked on in parallel.

Examples:
  backlog-cli sequences
  backlog-cli sequences --copy     # also copy a markdown checklist`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewListSequencesCommand(GetProject().Workspace).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), views.RenderSequences(result))

		if sequencesCopy {
			if err := clipboard.WriteAll(views.SequencesMarkdown(result, GetProject().Config.DoneStatus())); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), views.RenderMessage("Copied sequences to clipboard", false))
		}
		return nil
	},
}

func init() {
	sequencesCmd.Flags().BoolVarP(&sequencesCopy, "copy", "c", false, "copy the sequences as markdown to the clipboard")
	rootCmd.AddCommand(sequencesCmd)
}
