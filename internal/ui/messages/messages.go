package messages

import "github.com/fragmede/threadgrab/internal/resolve"

type (
	// ProgressMsg carries a resolver snapshot.
	ProgressMsg struct{ Progress resolve.Progress }

	// StatusMsg replaces the status text, e.g. with the current phase.
	StatusMsg struct {
		Text    string
		IsError bool
	}

	// DoneMsg ends the progress display.
	DoneMsg struct{ Err error }
)
