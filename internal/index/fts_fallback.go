//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE fallback on the items table.
	return nil
}

func ftsInsert(_ *sql.Tx, _ Source, _ Item) error {
	// Title and body are already stored in the items table.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled
// in). An empty project searches every project.
func (db *DB) Search(project, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT project, kind, ref, title, substr(body, 1, 200), source
		FROM items
		WHERE (title LIKE ? OR body LIKE ?) AND (? = '' OR project = ?)
		ORDER BY project, source, ref
		LIMIT ?
	`, like, like, project, project, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Project, &r.Kind, &r.Ref, &r.Title, &r.Snippet, &r.Source); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
