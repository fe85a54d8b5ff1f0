package views

import (
	"fmt"
	"strings"

	"backlog/internal/adapters/tui/styles"
	"backlog/internal/domain"
)

// RenderSequences renders every sequence in display order followed by the
// unsequenced tasks
func RenderSequences(r domain.SequenceResult) string {
	vb := NewViewBuilder()
	if len(r.Sequences) == 0 && len(r.Unsequenced) == 0 {
		return vb.Muted("No tasks.").String()
	}

	for i, s := range r.Sequences {
		if i > 0 {
			vb.BlankLine()
		}
		vb.Line(styles.SequenceHeader.Render(fmt.Sprintf("Sequence %d", s.Index)) +
			" " + RenderMuted(fmt.Sprintf("(%d)", len(s.Tasks))))
		for _, t := range domain.SortForDisplay(s.Tasks) {
			vb.Line("  " + RenderTask(t))
		}
	}

	if len(r.Unsequenced) > 0 {
		if len(r.Sequences) > 0 {
			vb.BlankLine()
		}
		vb.Line(styles.SequenceHeader.Render("Unsequenced") +
			" " + RenderMuted(fmt.Sprintf("(%d)", len(r.Unsequenced))))
		for _, t := range r.Unsequenced {
			vb.Line("  " + RenderTask(t))
		}
	}
	return vb.String()
}

// SequencesMarkdown formats the sequences as a markdown checklist for
// pasting into issues and chats. Tasks in doneStatus are checked.
func SequencesMarkdown(r domain.SequenceResult, doneStatus string) string {
	var sb strings.Builder
	for _, s := range r.Sequences {
		fmt.Fprintf(&sb, "## Sequence %d\n\n", s.Index)
		for _, t := range domain.SortForDisplay(s.Tasks) {
			sb.WriteString(markdownItem(t, doneStatus))
		}
		sb.WriteString("\n")
	}
	if len(r.Unsequenced) > 0 {
		sb.WriteString("## Unsequenced\n\n")
		for _, t := range r.Unsequenced {
			sb.WriteString(markdownItem(t, doneStatus))
		}
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func markdownItem(t domain.Task, doneStatus string) string {
	box := " "
	if doneStatus != "" && t.Status == doneStatus {
		box = "x"
	}
	return fmt.Sprintf("- [%s] %s %s\n", box, t.ID, t.Title)
}
