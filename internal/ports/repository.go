package ports

import (
	"context"

	"backlog/internal/domain"
)

// TaskRepository defines the interface for local task storage
type TaskRepository interface {
	// ListTasks returns every task in the local backlog
	ListTasks(ctx context.Context) ([]domain.Task, error)

	// GetTask returns a single task by ID
	GetTask(ctx context.Context, id string) (domain.Task, error)

	// SaveTask writes the task, creating its file when it has no FilePath
	SaveTask(ctx context.Context, task domain.Task) (domain.Task, error)

	// TaskPath resolves the file path of a task by ID
	TaskPath(ctx context.Context, id string) (string, error)
}
