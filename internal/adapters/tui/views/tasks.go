package views

import (
	"fmt"
	"strings"

	"backlog/internal/adapters/tui/styles"
	"backlog/internal/domain"
)

// RenderTask renders one task line: id, status, title, then where it came
// from and what it waits on
func RenderTask(t domain.Task) string {
	line := fmt.Sprintf("%s [%s] %s", styles.TaskID.Render(t.ID), styles.Status(t.Status), t.Title)
	if t.Branch != "" {
		line += " " + styles.BranchTag.Render(fmt.Sprintf("(%s: %s)", t.Source, t.Branch))
	}
	if len(t.Dependencies) > 0 {
		line += " " + styles.Dependencies.Render("<- "+strings.Join(t.Dependencies, ", "))
	}
	return line
}

// RenderTaskList renders tasks one per line
func RenderTaskList(tasks []domain.Task) string {
	vb := NewViewBuilder()
	if len(tasks) == 0 {
		return vb.Muted("No tasks.").String()
	}
	for _, t := range tasks {
		vb.Line(RenderTask(t))
	}
	return vb.String()
}
