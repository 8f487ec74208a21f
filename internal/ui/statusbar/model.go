package statusbar

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/fragmede/threadgrab/internal/resolve"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF"))

	countStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#FF4500")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)
)

// Model is the one-line bar under the progress bar.
type Model struct {
	width    int
	progress resolve.Progress
	status   string
	isError  bool
}

// New creates a new status bar.
func New() Model {
	return Model{}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetProgress records the latest resolver snapshot.
func (m *Model) SetProgress(p resolve.Progress) {
	m.progress = p
}

// SetStatus sets the status text shown on the right.
func (m *Model) SetStatus(text string, isError bool) {
	m.status = text
	m.isError = isError
}

// View renders the status bar.
func (m Model) View() string {
	p := m.progress
	left := countStyle.Render(fmt.Sprintf("%s / %s stubs", humanize.Comma(int64(p.Resolved)), humanize.Comma(int64(p.Total))))
	left += statusTextStyle.Render(humanize.Comma(p.Nodes) + " nodes")
	if p.Elapsed > 0 {
		left += statusTextStyle.Render("runtime " + resolve.FormatDuration(p.Elapsed))
	}
	if eta := p.ETA(); eta > 0 {
		left += statusTextStyle.Render("ETA " + resolve.FormatDuration(eta))
	}

	var right string
	if m.status != "" {
		if m.isError {
			right = errorStyle.Render(m.status)
		} else {
			right = statusTextStyle.Render(m.status)
		}
	}

	// Fill middle with background.
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	mid := barStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, mid, right)
}
