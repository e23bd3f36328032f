// Package index keeps a SQLite search index of the tasks, canvas notes
// and markdown documents of a workspace, and a watcher that keeps it in
// step with the files on disk.
package index

// Index is the part of the search index the project service writes to and
// searches. Rows are grouped by source file: replacing a source swaps all
// of its items at once.
type Index interface {
	ReplaceSource(src Source, items []Item) error
	DeleteSource(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(project, query string, limit int) ([]SearchResult, error)
	Close() error
}

var _ Index = (*DB)(nil)
