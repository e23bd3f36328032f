// Package testutil provides shared test helpers for setting up workspaces and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/flowboard/internal/index"
	"github.com/starford/flowboard/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "flowboard-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestWorkspace creates a temporary workspace directory with a storage.Provider.
// files maps workspace-relative paths to their content.
func TestWorkspace(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// Workspace is a small two-project workspace used across packages.
var Workspace = map[string]string{
	"ACTIVE-PROJECT.md": "project: alpha\nsince: 2026-01-05\n",
	"projects/_index.md": "| Project | Status | Description |\n" +
		"|---------|--------|-------------|\n" +
		"| alpha | active | Canvas editor |\n" +
		"| beta | paused | Docs site |\n",
	"projects/PROJECT-RULES.md": "Keep tasks small.",
	"projects/alpha/PROJECT.md": "# Alpha\n\nThe canvas project.",
	"projects/alpha/tasks.json": `{"project":"alpha","tasks":[` +
		`{"id":"T-001","title":"Sketch board","status":"done","priority":"high","specFile":null,"created":"2026-01-05","completed":"2026-01-06"},` +
		`{"id":"T-002","title":"Wire sync","status":"in-progress","priority":"medium","specFile":null,"created":"2026-01-06","completed":null}` +
		`]}`,
	"projects/alpha/canvas.json": `{"notes":[` +
		`{"id":"n1","x":0,"y":0,"text":"Drag","color":"blue"},` +
		`{"id":"n2","x":200,"y":0,"text":"Drop","color":"yellow"},` +
		`{"id":"n3","x":0,"y":200,"text":"Zoom","color":"yellow"}` +
		`],"connections":[{"from":"n1","to":"n2"}]}`,
	"projects/beta/tasks.json": `{"tasks":[]}`,
}
