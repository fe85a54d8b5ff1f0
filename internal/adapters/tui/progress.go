package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"backlog/internal/adapters/tui/styles"
	"backlog/internal/adapters/tui/views"
	"backlog/internal/application/reconcile"
)

// ErrInterrupted is returned when the user stops a running load
var ErrInterrupted = errors.New("interrupted")

var cancelKey = key.NewBinding(
	key.WithKeys("ctrl+c", "esc", "q"),
	key.WithHelp("q", "cancel"),
)

// ProgressMsg carries one loader progress message
type ProgressMsg string

// DoneMsg reports that the background work finished
type DoneMsg struct{ Err error }

// ProgressModel shows a spinner next to the latest progress message
type ProgressModel struct {
	spinner     spinner.Model
	status      string
	err         error
	done        bool
	interrupted bool
}

// NewProgressModel creates a progress model showing status until the first
// progress message arrives
func NewProgressModel(status string) *ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return &ProgressModel{spinner: s, status: status}
}

// Init starts the spinner
func (m *ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the progress model
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProgressMsg:
		m.status = string(msg)
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, cancelKey) {
			m.done = true
			m.interrupted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the spinner line, or nothing once finished
func (m *ProgressModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.status + "  " + views.RenderMuted(cancelKey.Help().Key+" "+cancelKey.Help().Desc) + "\n"
}

// Err returns the outcome of the background work
func (m *ProgressModel) Err() error {
	if m.interrupted {
		return ErrInterrupted
	}
	return m.err
}

// RunWithProgress runs work in the background while a spinner shows its
// progress messages on out. Interrupting cancels the work's context. It
// returns only after work has returned.
func RunWithProgress(ctx context.Context, out io.Writer, status string, work func(ctx context.Context, onProgress reconcile.ProgressFunc) error) error {
	return runWithProgress(ctx, status, work, tea.WithOutput(out))
}

func runWithProgress(ctx context.Context, status string, work func(ctx context.Context, onProgress reconcile.ProgressFunc) error, opts ...tea.ProgramOption) error {
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewProgressModel(status)
	p := tea.NewProgram(model, append(opts, tea.WithContext(workCtx))...)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		err := work(workCtx, func(msg string) { p.Send(ProgressMsg(msg)) })
		p.Send(DoneMsg{Err: err})
	}()

	_, runErr := p.Run()
	cancel()
	<-finished

	return model.outcome(ctx, runErr)
}

// outcome folds the program's exit error and the parent context into the
// result of the run. A killed program never reads as success.
func (m *ProgressModel) outcome(ctx context.Context, runErr error) error {
	if ctx.Err() != nil || errors.Is(runErr, tea.ErrProgramKilled) {
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		return fmt.Errorf("%w: %w", reconcile.ErrCancelled, cause)
	}
	if runErr != nil {
		return runErr
	}
	return m.Err()
}
