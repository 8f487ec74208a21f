package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/threadgrab/internal/resolve"
	"github.com/fragmede/threadgrab/internal/ui/messages"
	"github.com/fragmede/threadgrab/internal/ui/statusbar"
)

const maxBarWidth = 60

// Model shows stub resolution progress until a DoneMsg arrives or the
// user quits.
type Model struct {
	title     string
	spinner   spinner.Model
	bar       progress.Model
	statusBar statusbar.Model
	latest    resolve.Progress

	width    int
	done     bool
	canceled bool
	err      error
}

// NewProgress creates the progress model for the thread at title.
func NewProgress(title string) Model {
	return Model{
		title: title,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(SpinnerStyle),
		),
		bar: progress.New(
			progress.WithGradient("#FF8717", "#FF4500"),
			progress.WithWidth(40),
		),
		statusBar: statusbar.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(msg.Width-4, maxBarWidth)
		m.statusBar.SetSize(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, Keys.Quit) {
			m.canceled = true
			return m, tea.Quit
		}
		return m, nil

	case messages.ProgressMsg:
		m.latest = msg.Progress
		m.statusBar.SetProgress(msg.Progress)
		return m, nil

	case messages.StatusMsg:
		m.statusBar.SetStatus(msg.Text, msg.IsError)
		return m, nil

	case messages.DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.done || m.canceled {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(TitleStyle.Render("Fetching"))
	b.WriteString(" ")
	b.WriteString(URLStyle.Render(m.title))
	b.WriteString("\n\n  ")
	b.WriteString(m.bar.ViewAs(m.latest.Percent() / 100))
	b.WriteString("\n\n")
	b.WriteString(m.statusBar.View())
	b.WriteString("\n")
	if n := m.latest.Failed; n > 0 {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("  %d %s failed, continuing", n, plural(n, "stub", "stubs"))))
		b.WriteString("\n")
	}
	b.WriteString(DimStyle.Render("  " + Keys.Quit.Help().Key + " " + Keys.Quit.Help().Desc))
	b.WriteString("\n")
	return b.String()
}

// Canceled reports whether the user quit before the work finished.
func (m Model) Canceled() bool { return m.canceled }

// Err returns the error the work finished with.
func (m Model) Err() error { return m.err }

// Latest returns the last progress snapshot received.
func (m Model) Latest() resolve.Progress { return m.latest }

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
