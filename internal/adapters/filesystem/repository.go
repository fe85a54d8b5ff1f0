package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"backlog/internal/application"
	"backlog/internal/domain"
	"backlog/internal/ports"
)

// Repository implements ports.TaskRepository over <root>/<backlogDir>/tasks
type Repository struct {
	tasksDir string
	parser   ports.TaskParser
}

// NewRepository creates a new filesystem repository
func NewRepository(root, backlogDir string, parser ports.TaskParser) *Repository {
	if strings.HasPrefix(root, "~") {
		home, _ := os.UserHomeDir()
		root = filepath.Join(home, root[1:])
	}
	return &Repository{
		tasksDir: filepath.Join(root, backlogDir, "tasks"),
		parser:   parser,
	}
}

// TasksDir returns the absolute tasks directory
func (r *Repository) TasksDir() string {
	return r.tasksDir
}

// ListTasks reads every task file. A missing tasks directory is an empty
// backlog.
func (r *Repository) ListTasks(ctx context.Context) ([]domain.Task, error) {
	entries, err := os.ReadDir(r.tasksDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks directory: %w", err)
	}

	tasks := make([]domain.Task, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		id, ok := domain.TaskIDFromFilename(entry.Name())
		if !ok {
			continue
		}
		if other, dup := seen[id]; dup {
			return nil, fmt.Errorf("%s and %s share %s: %w", other, entry.Name(), id, application.ErrInvalidID)
		}
		seen[id] = entry.Name()

		task, err := r.load(filepath.Join(r.tasksDir, entry.Name()), id)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	domain.SortTasksByID(tasks)
	return tasks, nil
}

// GetTask returns a single task by ID
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	path, err := r.TaskPath(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	return r.load(path, domain.NormalizeTaskID(id))
}

// TaskPath resolves the file holding a task
func (r *Repository) TaskPath(ctx context.Context, id string) (string, error) {
	id = domain.NormalizeTaskID(id)
	entries, err := os.ReadDir(r.tasksDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read tasks directory: %w", err)
	}
	for _, entry := range entries {
		if got, ok := domain.TaskIDFromFilename(entry.Name()); ok && got == id {
			return filepath.Join(r.tasksDir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("task %s: %w", id, application.ErrNotFound)
}

// SaveTask writes the task to its file, creating task-<n> - <slug>.md when
// the task has no file yet
func (r *Repository) SaveTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	if err := domain.ValidateTaskID(task.ID); err != nil {
		return domain.Task{}, fmt.Errorf("%w: %s", application.ErrInvalidID, task.ID)
	}

	path := task.FilePath
	if path == "" {
		if existing, err := r.TaskPath(ctx, task.ID); err == nil {
			path = existing
		} else {
			path = filepath.Join(r.tasksDir, domain.TaskFilename(task.ID, Slugify(task.Title)))
		}
	}

	content, err := r.parser.Serialize(task)
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to serialize %s: %w", task.ID, err)
	}
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return domain.Task{}, fmt.Errorf("failed to write %s: %w", task.ID, err)
	}

	task.FilePath = path
	task.Source = domain.SourceLocal
	task.Branch = ""
	return task, nil
}

func (r *Repository) load(path, id string) (domain.Task, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	task, err := r.parser.Parse(string(raw))
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	// the filename is authoritative
	task.ID = id
	task.Source = domain.SourceLocal
	task.FilePath = path
	if info, err := os.Stat(path); err == nil {
		task.LastModified = info.ModTime()
	}
	return task, nil
}

// writeFileAtomic writes through a temp file in the same directory
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".task-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
