package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	Info      = lipgloss.Color("#60A5FA") // Blue
	White     = lipgloss.Color("#FFFFFF")

	// Sequence listing
	SequenceHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	TaskID = lipgloss.NewStyle().
		Bold(true)

	Dependencies = lipgloss.NewStyle().
			Foreground(Muted)

	BranchTag = lipgloss.NewStyle().
			Foreground(Info).
			Italic(true)

	// Progress
	Spinner = lipgloss.NewStyle().
		Foreground(Primary)

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	// Muted text style (for using Muted color as a style)
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// StatusColor returns the color for a task status
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "Done":
		return Secondary
	case "In Progress":
		return Warning
	case "To Do":
		return Info
	default:
		return Muted
	}
}

// Status renders a status label in its color
func Status(status string) string {
	return lipgloss.NewStyle().Foreground(StatusColor(status)).Render(status)
}
