package theme

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notekeeper/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
)

// HeaderStyle is used for list headings.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// IDStyle renders record IDs.
var IDStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Width(5).
	Align(lipgloss.Right)

// DateStyle renders registration and due dates.
var DateStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// HelpStyle is used for hints and empty-list messages.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorStyle renders failures reported to the user.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// TaskStyle returns the style for a task title: struck through once
// completed, red when overdue.
func TaskStyle(n model.Note, now time.Time) lipgloss.Style {
	base := lipgloss.NewStyle()

	switch {
	case n.IsCompleted:
		return base.Foreground(ColorGreen).Strikethrough(true)
	case n.IsOverdue(now):
		return base.Foreground(ColorRed).Bold(true)
	case n.TaskDueDate != nil:
		return base.Foreground(ColorYellow)
	default:
		return base
	}
}

// MediaTypeStyle returns a color-coded style for an attachment type label.
func MediaTypeStyle(t model.MediaType) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch t {
	case model.MediaImage:
		return base.Foreground(ColorBlue)
	case model.MediaVideo:
		return base.Foreground(ColorMagenta)
	case model.MediaAudio:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}
