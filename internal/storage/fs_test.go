package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func tempWorkspace(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempWorkspace(t)
	content := []byte(`{"tasks":[]}`)
	if err := s.Write("projects/alpha/tasks.json", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("projects/alpha/tasks.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestReadMissingIsNotExist(t *testing.T) {
	s := tempWorkspace(t)
	_, err := s.Read("ACTIVE-PROJECT.md")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.md"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestListFiltersByExtensionAndSkipsHidden(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.md", []byte("b"))
	_ = s.Write("sub/canvas.json", []byte("{}"))
	_ = s.Write(".git/config.md", []byte("x"))
	_ = s.Write(".hidden.md", []byte("x"))

	items, err := s.List("", ".md")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	if items[1].Path != "sub/b.md" || items[1].Size != 1 || items[1].Checksum == "" {
		t.Errorf("item = %+v", items[1])
	}

	all, err := s.List("sub")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len = %d, want 2", len(all))
	}
}

func TestTreeListsDirectoriesFirst(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("projects/alpha/PROJECT.md", []byte("# Alpha"))
	_ = s.Write("projects/alpha/specs/one.md", []byte("spec"))
	_ = s.Write("projects/alpha/canvas.json", []byte("{}"))

	root, err := s.Tree("projects/alpha")
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if root.Name != "alpha" || root.Type != "dir" || root.Path != "projects/alpha" {
		t.Fatalf("root = %+v", root)
	}
	if len(root.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(root.Children))
	}
	names := []string{root.Children[0].Name, root.Children[1].Name, root.Children[2].Name}
	want := []string{"specs", "PROJECT.md", "canvas.json"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}
	if root.Children[0].Children[0].Path != "projects/alpha/specs/one.md" {
		t.Errorf("nested path = %q", root.Children[0].Children[0].Path)
	}

	if _, err := s.Tree("projects/alpha/PROJECT.md"); err == nil {
		t.Error("expected error for a file")
	}
}

func TestStat(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("x.md", []byte("hello"))
	meta, err := s.Stat("x.md")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if meta.Size != 5 || meta.Path != "x.md" {
		t.Errorf("meta = %+v", meta)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempWorkspace(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
		"projects/../../x",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("canvas.json", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("canvas.json", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("canvas.json")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, tmpPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "flowboard-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestIsDir(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("projects/alpha/tasks.json", []byte("{}"))

	if !s.IsDir("projects/alpha") {
		t.Error("projects/alpha should be a directory")
	}
	if s.IsDir("projects/alpha/tasks.json") {
		t.Error("a file is not a directory")
	}
	if s.IsDir("projects/missing") || s.IsDir("../") {
		t.Error("missing or escaping paths are not directories")
	}
}
