package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/threadgrab/internal/resolve"
	"github.com/fragmede/threadgrab/internal/ui/messages"
)

// ErrCanceled is returned by Run when the user quits the display.
var ErrCanceled = errors.New("canceled by user")

// Reporter forwards a job's progress and status to the display.
type Reporter struct {
	Progress func(resolve.Progress)
	Status   func(text string, isError bool)
}

// Job is work reported through the display.
type Job func(ctx context.Context, r Reporter) error

// Run executes job while showing its progress on out. Quitting the
// display cancels the job's context; Run waits for the job to return
// either way. opts are passed on to the bubbletea program.
func Run(ctx context.Context, out io.Writer, title string, job Job, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithOutput(out), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewProgress(title), opts...)

	jobErr := make(chan error, 1)
	go func() {
		err := job(ctx, Reporter{
			Progress: func(pr resolve.Progress) {
				p.Send(messages.ProgressMsg{Progress: pr})
			},
			Status: func(text string, isError bool) {
				p.Send(messages.StatusMsg{Text: text, IsError: isError})
			},
		})
		jobErr <- err
		p.Send(messages.DoneMsg{Err: err})
	}()

	final, runErr := p.Run()
	canceled := false
	if m, ok := final.(Model); ok && m.Canceled() {
		canceled = true
	}
	if canceled || runErr != nil {
		cancel()
	}
	err := <-jobErr

	switch {
	case canceled:
		return ErrCanceled
	case runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) && !errors.Is(runErr, context.Canceled):
		return fmt.Errorf("progress display: %w", runErr)
	}
	return err
}
