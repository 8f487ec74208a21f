package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadgrab/internal/thread"
)

var accent = lipgloss.Color("#FF4500")

// Plain writes one line per node, indented by tree level:
//
//	{indent}{level} {ups} {author}: {content}
//
// Continuation lines of a multi-line body are indented to start under the
// content. Styling is applied only when w is a color terminal; deleted or
// removed comments are dimmed.
type Plain struct {
	// Width word-wraps content when positive.
	Width int
}

func (p Plain) Format(w io.Writer, doc Document) error {
	r := lipgloss.NewRenderer(w)
	authorStyle := r.NewStyle().Foreground(accent).Bold(true)
	scoreStyle := r.NewStyle().Foreground(accent)
	dimStyle := r.NewStyle().Foreground(lipgloss.Color("#828282"))

	var sb strings.Builder
	fmt.Fprintf(&sb, "# {indent} {ups} {author}: {content}\n\nSource: %s\n", doc.Source)

	for _, fn := range thread.Flatten(doc.Forest) {
		n := fn.Node
		indent := strings.Repeat(" ", fn.Level)
		ups := fmt.Sprint(n.Upvotes)
		// Visible width of the prefix ahead of the content.
		hang := indent + strings.Repeat(" ", len(fmt.Sprint(fn.Level))+1+len(ups)+1+len(n.Author)+2)

		content := Text(n.Text, p.Width)
		content = strings.ReplaceAll(content, "\n", "\n"+hang)
		if n.IsTombstone() {
			content = dimStyle.Render(content)
		}

		fmt.Fprintf(&sb, "%s%s %s %s: %s\n",
			indent, dimStyle.Render(fmt.Sprint(fn.Level)), scoreStyle.Render(ups), authorStyle.Render(n.Author), content)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
