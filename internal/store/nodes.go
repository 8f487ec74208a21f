package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fragmede/threadgrab/internal/thread"
)

// Thread describes one exported run.
type Thread struct {
	Source           string
	RunID            string
	DeclaredComments int64
	NodeCount        int
	FetchedAt        time.Time
}

// PutThread replaces any earlier export of t.Source with forest, in one
// transaction. tree_parent and position record the shape of the forest as
// rendered, which can differ from the provider's parent_id after a flat
// batch merge.
func (d *DB) PutThread(t Thread, forest []*thread.Node) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM threads WHERE source = ?`, t.Source); err != nil {
		return fmt.Errorf("clearing thread: %w", err)
	}
	fetched := t.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	if _, err := tx.Exec(`INSERT INTO threads (source, run_id, declared_comments, node_count, fetched_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.Source, nullStr(t.RunID), t.DeclaredComments, thread.Count(forest), fetched.Unix()); err != nil {
		return fmt.Errorf("inserting thread: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO nodes
		(id, source, parent_id, tree_parent, position, level, kind, author, text, url, permalink,
		 ups, depth, over_18, created, edited)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var insert func(level []*thread.Node, parent string, depth int) error
	insert = func(level []*thread.Node, parent string, depth int) error {
		for i, n := range level {
			var adult int
			if n.IsAdult {
				adult = 1
			}
			if _, err := stmt.Exec(n.ID, t.Source, nullStr(n.ParentID), nullStr(parent), i, depth,
				nullStr(n.Kind), nullStr(n.Author), nullStr(n.Text), nullStr(n.URL), nullStr(n.Permalink),
				int64(n.Upvotes), n.Depth, adult, nullTime(n.Created), nullTime(n.Edited)); err != nil {
				return fmt.Errorf("inserting node %s: %w", n.ID, err)
			}
			if err := insert(n.Children, n.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(forest, "", 0); err != nil {
		return err
	}
	return tx.Commit()
}

// GetThread reads the metadata of an export. Returns nil on a miss.
func (d *DB) GetThread(source string) (*Thread, error) {
	var t Thread
	var runID sql.NullString
	var fetchedAt int64
	err := d.db.QueryRow(`SELECT source, run_id, declared_comments, node_count, fetched_at
		FROM threads WHERE source = ?`, source).
		Scan(&t.Source, &runID, &t.DeclaredComments, &t.NodeCount, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.RunID = runID.String
	t.FetchedAt = time.Unix(fetchedAt, 0)
	return &t, nil
}

// Forest rebuilds the exported forest of source in its stored order.
func (d *DB) Forest(source string) ([]*thread.Node, error) {
	rows, err := d.db.Query(`SELECT id, parent_id, tree_parent, kind, author, text, url, permalink,
		ups, depth, over_18, created, edited
		FROM nodes WHERE source = ? ORDER BY level, tree_parent, position`, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*thread.Node)
	var roots []*thread.Node
	for rows.Next() {
		var n thread.Node
		var parentID, treeParent, kind, author, text, url, permalink sql.NullString
		var created, edited sql.NullInt64
		var ups int64
		var adult int
		if err := rows.Scan(&n.ID, &parentID, &treeParent, &kind, &author, &text, &url, &permalink,
			&ups, &n.Depth, &adult, &created, &edited); err != nil {
			return nil, err
		}
		n.ParentID = parentID.String
		n.Kind = kind.String
		n.Author = author.String
		n.Text = text.String
		n.URL = url.String
		n.Permalink = permalink.String
		n.Upvotes = uint64(ups)
		n.IsAdult = adult != 0
		n.Created = fromNullTime(created)
		n.Edited = fromNullTime(edited)

		node := &n
		byID[n.ID] = node
		if !treeParent.Valid {
			roots = append(roots, node)
			continue
		}
		parent, ok := byID[treeParent.String]
		if !ok {
			return nil, fmt.Errorf("node %s stored before its parent %s", n.ID, treeParent.String)
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, rows.Err()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullTime stores the unknown-time sentinel as NULL.
func nullTime(t int64) sql.NullInt64 {
	if t == thread.Unknown {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t, Valid: true}
}

func fromNullTime(v sql.NullInt64) int64 {
	if !v.Valid {
		return thread.Unknown
	}
	return v.Int64
}
