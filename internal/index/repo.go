package index

import (
	"fmt"
	"time"
)

// Kind is the type of an indexed item.
type Kind string

const (
	KindTask Kind = "task"
	KindNote Kind = "note"
	KindDoc  Kind = "doc"
)

// Source is one indexed workspace file.
type Source struct {
	Path      string
	Project   string
	Checksum  string
	UpdatedAt time.Time
}

// Item is one searchable entry extracted from a source: a task, a canvas
// note or a markdown document.
type Item struct {
	Kind  Kind
	Ref   string // task id, note id or document path
	Title string
	Body  string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Project string `json:"project"`
	Kind    Kind   `json:"kind"`
	Ref     string `json:"ref"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// ReplaceSource replaces every item of a source within a transaction.
func (db *DB) ReplaceSource(src Source, items []Item) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if src.UpdatedAt.IsZero() {
		src.UpdatedAt = time.Now()
	}
	_, err = tx.Exec(`
		INSERT INTO sources (path, project, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			project    = excluded.project,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, src.Path, src.Project, src.Checksum, src.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert source: %w", err)
	}

	ftsDelete(tx, src.Path)
	if _, err := tx.Exec(`DELETE FROM items WHERE source = ?`, src.Path); err != nil {
		return fmt.Errorf("index: clear items: %w", err)
	}

	if len(items) > 0 {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO items (source, project, kind, ref, title, body) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare item insert: %w", err)
		}
		defer stmt.Close()
		for _, it := range items {
			if _, err := stmt.Exec(src.Path, src.Project, it.Kind, it.Ref, it.Title, it.Body); err != nil {
				return fmt.Errorf("index: insert item: %w", err)
			}
			// FTS insert (no-op when FTS5 tag is absent).
			if err := ftsInsert(tx, src, it); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteSource removes a source and its items.
func (db *DB) DeleteSource(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM items WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM sources WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a source, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM sources WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed source.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM sources`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// CountItems returns the number of indexed items of a project ("" for all).
func (db *DB) CountItems(project string) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT count(*) FROM items WHERE ? = '' OR project = ?`, project, project).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("index: count items: %w", err)
	}
	return n, nil
}
