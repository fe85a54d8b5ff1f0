package application

import "backlog/internal/domain"

// NormalizeTaskID accepts "7", "TASK-7" or "task-7" and returns "task-7"
func NormalizeTaskID(id string) string {
	return domain.NormalizeTaskID(id)
}
