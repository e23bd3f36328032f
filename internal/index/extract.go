package index

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/internal/parser"
)

const maxTitle = 80

// ProjectOf returns the project a workspace path belongs to:
// projects/<name>/... yields name.
func ProjectOf(p string) (string, bool) {
	parts := strings.Split(p, "/")
	if len(parts) < 3 || parts[0] != "projects" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Indexable reports whether p is a file the index extracts items from.
func Indexable(p string) bool {
	if _, ok := ProjectOf(p); !ok {
		return false
	}
	switch path.Base(p) {
	case "tasks.json", "canvas.json":
		return strings.Count(p, "/") == 2
	}
	return strings.HasSuffix(p, ".md")
}

// Extract returns the searchable items of one workspace file.
func Extract(p string, data []byte) (string, []Item, error) {
	project, ok := ProjectOf(p)
	if !ok || !Indexable(p) {
		return "", nil, fmt.Errorf("index: %s is not indexable", p)
	}

	switch path.Base(p) {
	case "tasks.json":
		var tf models.TaskFile
		if err := json.Unmarshal(data, &tf); err != nil {
			return "", nil, fmt.Errorf("index: decode %s: %w", p, err)
		}
		items := make([]Item, 0, len(tf.Tasks))
		for _, t := range tf.Tasks {
			items = append(items, Item{Kind: KindTask, Ref: t.ID, Title: t.Title, Body: t.Description})
		}
		return project, items, nil

	case "canvas.json":
		var cv models.Canvas
		if err := json.Unmarshal(data, &cv); err != nil {
			return "", nil, fmt.Errorf("index: decode %s: %w", p, err)
		}
		items := make([]Item, 0, len(cv.Notes))
		for _, n := range cv.Notes {
			items = append(items, Item{Kind: KindNote, Ref: n.ID, Title: noteTitle(n.Text), Body: n.Text})
		}
		return project, items, nil
	}

	doc := parser.ParseDocument(data)
	title := doc.Title
	if title == "" {
		title = strings.TrimSuffix(path.Base(p), ".md")
	}
	return project, []Item{{Kind: KindDoc, Ref: p, Title: title, Body: doc.Body}}, nil
}

// noteTitle is the first non-empty line of a note, cut to maxTitle runes.
func noteTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "#-* "))
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > maxTitle {
			return string(r[:maxTitle]) + "…"
		}
		return line
	}
	return ""
}
