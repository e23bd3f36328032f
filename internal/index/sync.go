package index

import (
	"log/slog"

	"github.com/starford/flowboard/internal/checksum"
	"github.com/starford/flowboard/internal/storage"
)

// Sync walks the projects directory and brings the index up to date:
//   - new/changed files are extracted and replaced
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := listIndexable(store)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for p, cs := range metas {
		disk[p] = struct{}{}

		if checksums[p] == cs {
			continue
		}

		data, err := store.Read(p)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, p, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", p))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteSource(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile extracts the items of data and replaces the source in the index.
func IndexFile(idx Index, path string, data []byte) error {
	project, items, err := Extract(path, data)
	if err != nil {
		return err
	}
	return idx.ReplaceSource(Source{Path: path, Project: project, Checksum: checksum.Sum(data)}, items)
}

// listIndexable returns path → checksum for every indexable file on disk.
func listIndexable(store storage.Provider) (map[string]string, error) {
	metas, err := store.List("projects", ".md", ".json")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(metas))
	for _, m := range metas {
		if Indexable(m.Path) {
			out[m.Path] = m.Checksum
		}
	}
	return out, nil
}
