package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"backlog/internal/application"
	"backlog/internal/domain"
	"backlog/internal/ports"
)

// Workspace is what every mutating command needs: local storage and the
// lock that serializes read-compute-write cycles over it
type Workspace struct {
	Repo   ports.TaskRepository
	Locker ports.Locker
	Key    string  // lock key, the project root
	Step   float64 // ordinal step, domain.DefaultOrdinalStep when zero
	Now    func() time.Time
}

// NewWorkspace creates a workspace locked under key
func NewWorkspace(repo ports.TaskRepository, locker ports.Locker, key string) *Workspace {
	return &Workspace{
		Repo:   repo,
		Locker: locker,
		Key:    key,
		Step:   domain.DefaultOrdinalStep,
		Now:    time.Now,
	}
}

func (w *Workspace) step() float64 {
	if w.Step <= 0 {
		return domain.DefaultOrdinalStep
	}
	return w.Step
}

func (w *Workspace) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

// withLock loads every task under the lock and hands them to fn
func (w *Workspace) withLock(ctx context.Context, fn func(tasks []domain.Task) error) error {
	unlock, err := w.Locker.Lock(ctx, w.Key)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", application.ErrLocked, err)
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer unlock()

	tasks, err := w.Repo.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	return fn(tasks)
}

// saveChanged writes every task whose dependencies or ordinal differ from
// before, stamping its updated date. It returns the IDs written.
func (w *Workspace) saveChanged(ctx context.Context, before, after []domain.Task) ([]string, error) {
	original := domain.IndexTasks(before)
	now := w.now()

	var written []string
	for _, t := range after {
		prev, ok := original[t.ID]
		if ok && samePlacement(prev, t) {
			continue
		}
		t.UpdatedDate = &now
		if _, err := w.Repo.SaveTask(ctx, t); err != nil {
			return written, fmt.Errorf("failed to save %s: %w", t.ID, err)
		}
		written = append(written, t.ID)
	}
	return written, nil
}

func samePlacement(a, b domain.Task) bool {
	if !slices.Equal(a.Dependencies, b.Dependencies) {
		return false
	}
	switch {
	case a.Ordinal == nil && b.Ordinal == nil:
		return true
	case a.Ordinal == nil || b.Ordinal == nil:
		return false
	}
	return *a.Ordinal == *b.Ordinal
}

func findTask(tasks []domain.Task, id string) (domain.Task, error) {
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, fmt.Errorf("task %s: %w", id, application.ErrNotFound)
}
