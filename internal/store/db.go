// Package store exports a thread forest to a SQLite database.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database holding exported threads.
type DB struct {
	db *sql.DB
}

// Open creates or opens the database and runs migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close checkpoints the WAL into the main file and closes the connection.
func (d *DB) Close() error {
	if _, err := d.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		d.db.Close()
		return fmt.Errorf("checkpointing database: %w", err)
	}
	return d.db.Close()
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS threads (
			source TEXT PRIMARY KEY,
			run_id TEXT,
			declared_comments INTEGER DEFAULT 0,
			node_count INTEGER DEFAULT 0,
			fetched_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT NOT NULL,
			source TEXT NOT NULL REFERENCES threads(source) ON DELETE CASCADE,
			parent_id TEXT,
			tree_parent TEXT,
			position INTEGER NOT NULL,
			level INTEGER NOT NULL,
			kind TEXT,
			author TEXT,
			text TEXT,
			url TEXT,
			permalink TEXT,
			ups INTEGER DEFAULT 0,
			depth INTEGER DEFAULT 0,
			over_18 INTEGER DEFAULT 0,
			created INTEGER,
			edited INTEGER,
			PRIMARY KEY (source, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_tree_parent ON nodes(source, tree_parent, position)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_author ON nodes(author)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
