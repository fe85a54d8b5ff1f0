package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"backlog/internal/adapters/tui"
	"backlog/internal/application/reconcile"
	"backlog/internal/config"
	"backlog/internal/project"
)

var (
	rootPath string
	verbose  bool
	proj     *project.Project
)

var rootCmd = &cobra.Command{
	Use:   "backlog-cli",
	Short: "CLI for git-versioned markdown backlogs",
	Long: `backlog-cli manages project tasks stored as markdown files under
backlog/tasks and versioned in git.

It lists tasks across local and remote branches, shows the dependency
sequences of the backlog and moves tasks between sequences.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		logger := newLogger(verbose)
		slog.SetDefault(logger)

		p, err := project.Open(cmd.Context(), rootPath, logger)
		if err != nil {
			return err
		}
		proj = p
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if proj == nil {
			return nil
		}
		return proj.Close()
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	root, err := config.ProjectRoot()
	if err != nil {
		root = "."
	}
	rootCmd.PersistentFlags().StringVarP(&rootPath, "root", "r", root, "project root containing the backlog directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// GetProject returns the initialized project
func GetProject() *project.Project {
	return proj
}

// newLogger logs to stderr at debug with --verbose, otherwise at the level
// named by BACKLOG_LOG_LEVEL (warn by default)
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if v := strings.TrimSpace(os.Getenv(config.EnvPrefix + "_LOG_LEVEL")); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			level = slog.LevelWarn
		}
	}
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// withProgress runs work behind a spinner on an interactive terminal and
// prints progress lines to stderr otherwise
func withProgress(cmd *cobra.Command, status string, work func(ctx context.Context, onProgress reconcile.ProgressFunc) error) error {
	if isatty.IsTerminal(os.Stderr.Fd()) && !verbose {
		return tui.RunWithProgress(cmd.Context(), os.Stderr, status, work)
	}
	errOut := cmd.ErrOrStderr()
	return work(cmd.Context(), func(msg string) {
		fmt.Fprintln(errOut, msg)
	})
}
