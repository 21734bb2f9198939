package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	neutralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ConfigureColors disables styling when w is not a terminal, so logs and pipes stay plain
func ConfigureColors(w io.Writer) {
	if !IsTerminal(w) || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// ColorStatus colors a run status name
func ColorStatus(status string) string {
	switch status {
	case "committed":
		return successStyle.Render(status)
	case "unchanged":
		return neutralStyle.Render(status)
	case "skipped":
		return skippedStyle.Render(status)
	case "failed":
		return failureStyle.Render(status)
	default:
		return status
	}
}

// Dim renders secondary text
func Dim(text string) string {
	return dimStyle.Render(text)
}
