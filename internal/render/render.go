// Package render writes a finished thread in one of the output formats.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/fragmede/threadgrab/internal/config"
	"github.com/fragmede/threadgrab/internal/thread"
)

// Document is everything a formatter needs about one thread.
type Document struct {
	// Source is the thread's base URL.
	Source           string
	RunID            string
	Forest           []*thread.Node
	DeclaredComments int64
	FetchedAt        time.Time
}

// Formatter writes a document. One is chosen per run with New.
type Formatter interface {
	Format(w io.Writer, doc Document) error
}

// New returns the formatter for f.
func New(f config.Format) (Formatter, error) {
	switch f {
	case config.FormatPlain:
		return Plain{}, nil
	case config.FormatHTML:
		return HTML{}, nil
	case config.FormatJSON:
		return JSON{}, nil
	case config.FormatSQLite:
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("no formatter for %q", f)
	}
}

// contentOf returns a node's text without its leading link, which the
// structured formats carry separately.
func contentOf(n *thread.Node) string {
	text := n.Text
	if n.URL != "" && len(text) >= len(n.URL) && text[:len(n.URL)] == n.URL {
		text = text[len(n.URL):]
	}
	return text
}
