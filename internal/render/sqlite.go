package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fragmede/threadgrab/internal/store"
)

// SQLite exports the forest to a database file and streams the file to
// w. The database is built in a temporary directory first.
type SQLite struct{}

func (SQLite) Format(w io.Writer, doc Document) error {
	dir, err := os.MkdirTemp("", "threadgrab-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "thread.db")
	if err := Export(path, doc); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copying export: %w", err)
	}
	return nil
}

// Export writes doc into the database at path, creating it if needed.
func Export(path string, doc Document) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	meta := store.Thread{
		Source:           doc.Source,
		RunID:            doc.RunID,
		DeclaredComments: doc.DeclaredComments,
		FetchedAt:        doc.FetchedAt,
	}
	if err := db.PutThread(meta, doc.Forest); err != nil {
		db.Close()
		return fmt.Errorf("exporting thread: %w", err)
	}
	return db.Close()
}

// ErrNotExported means the database holds no export for the source.
var ErrNotExported = errors.New("thread not found in export")

// Load reads back the document Export wrote for source.
func Load(path, source string) (Document, error) {
	if _, err := os.Stat(path); err != nil {
		return Document{}, fmt.Errorf("opening export: %w", err)
	}
	db, err := store.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer db.Close()

	meta, err := db.GetThread(source)
	if err != nil {
		return Document{}, fmt.Errorf("reading thread: %w", err)
	}
	if meta == nil {
		return Document{}, fmt.Errorf("%s: %w", source, ErrNotExported)
	}
	forest, err := db.Forest(source)
	if err != nil {
		return Document{}, fmt.Errorf("reading nodes: %w", err)
	}
	return Document{
		Source:           meta.Source,
		RunID:            meta.RunID,
		Forest:           forest,
		DeclaredComments: meta.DeclaredComments,
		FetchedAt:        meta.FetchedAt,
	}, nil
}
