package ports

import (
	"context"
	"os/exec"
)

// EditorOpener opens task files in an external editor
type EditorOpener interface {
	// Open runs the editor on path and waits for it to exit
	Open(ctx context.Context, path string) error

	// Command builds the editor invocation without running it
	Command(ctx context.Context, path string) (*exec.Cmd, error)
}
