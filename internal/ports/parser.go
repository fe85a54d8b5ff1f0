package ports

import "backlog/internal/domain"

// TaskParser converts between raw task files and domain tasks
type TaskParser interface {
	Parse(raw string) (domain.Task, error)
	Serialize(task domain.Task) (string, error)
}
