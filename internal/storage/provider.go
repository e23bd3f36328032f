// Package storage defines the workspace file-system abstraction.
package storage

import "github.com/starford/flowboard/internal/models"

// Provider is the interface for workspace file operations. Paths are
// relative to the workspace root and use forward slashes.
type Provider interface {
	// List returns metadata for every regular file under dir whose name ends
	// in one of exts (all files when exts is empty).
	List(dir string, exts ...string) ([]models.FileMetadata, error)
	// Tree returns the directory tree rooted at dir.
	Tree(dir string) (*models.FileNode, error)
	// Stat returns metadata for one file.
	Stat(path string) (models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// IsDir reports whether dir exists and is a directory.
	IsDir(dir string) bool
	// Root returns the absolute workspace directory.
	Root() string
}
