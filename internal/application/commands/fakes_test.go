package commands

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"backlog/internal/application"
	"backlog/internal/application/reconcile"
	"backlog/internal/config"
	"backlog/internal/domain"
)

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// memRepo is an in-memory TaskRepository that records saves
type memRepo struct {
	mu    sync.Mutex
	tasks map[string]domain.Task
	saved []string
}

func newMemRepo(tasks ...domain.Task) *memRepo {
	r := &memRepo{tasks: map[string]domain.Task{}}
	for _, t := range tasks {
		if t.FilePath == "" {
			t.FilePath = "backlog/tasks/" + domain.TaskFilename(t.ID, "t")
		}
		t.Source = domain.SourceLocal
		r.tasks[t.ID] = t
	}
	return r
}

func (r *memRepo) ListTasks(ctx context.Context) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t.Clone())
	}
	domain.SortTasksByID(out)
	return out, nil
}

func (r *memRepo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return domain.Task{}, fmt.Errorf("task %s: %w", id, application.ErrNotFound)
	}
	return t.Clone(), nil
}

func (r *memRepo) SaveTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.FilePath == "" {
		t.FilePath = "backlog/tasks/" + domain.TaskFilename(t.ID, "adopted")
	}
	r.tasks[t.ID] = t.Clone()
	r.saved = append(r.saved, t.ID)
	return t, nil
}

func (r *memRepo) TaskPath(ctx context.Context, id string) (string, error) {
	t, err := r.GetTask(ctx, id)
	return t.FilePath, err
}

func (r *memRepo) get(id string) domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[id]
}

func (r *memRepo) savedIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.saved)
	slices.Sort(out)
	return out
}

// countingLocker is a single mutex that counts acquisitions
type countingLocker struct {
	mu       sync.Mutex
	acquired int
	err      error
}

func (l *countingLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.acquired++
	return l.mu.Unlock, nil
}

// stubLoader returns canned branch copies
type stubLoader struct {
	remote []domain.Task
	branch []domain.Task
	err    error
}

func (s *stubLoader) LoadRemoteTasks(ctx context.Context, cfg *config.Config, onProgress reconcile.ProgressFunc, local []domain.Task) ([]domain.Task, error) {
	if onProgress != nil {
		onProgress("remote")
	}
	return domain.CloneTasks(s.remote), s.err
}

func (s *stubLoader) LoadLocalBranchTasks(ctx context.Context, cfg *config.Config, onProgress reconcile.ProgressFunc, local []domain.Task) ([]domain.Task, error) {
	return domain.CloneTasks(s.branch), s.err
}

func task(id string, deps ...string) domain.Task {
	return domain.Task{ID: id, Title: id, Status: "To Do", Dependencies: deps}
}

func withOrdinal(t domain.Task, o float64) domain.Task {
	t.Ordinal = domain.OrdinalPtr(o)
	return t
}

func newTestWorkspace(tasks ...domain.Task) (*Workspace, *memRepo, *countingLocker) {
	repo := newMemRepo(tasks...)
	locker := &countingLocker{}
	ws := NewWorkspace(repo, locker, "/project")
	ws.Now = func() time.Time { return fixedNow }
	return ws, repo, locker
}

func sequenceIDs(r domain.SequenceResult) [][]string {
	out := make([][]string, len(r.Sequences))
	for i, s := range r.Sequences {
		out[i] = s.TaskIDs()
	}
	return out
}
