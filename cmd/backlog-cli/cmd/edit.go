package cmd

import (
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Open a task file in your editor",
	Long: `Open the markdown file of a task in the configured editor, then $VISUAL,
then $EDITOR.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := GetProject()
		path, err := p.Repo.TaskPath(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return p.Editor.Open(cmd.Context(), path)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
