// Package parser reads the markdown files of a workspace: frontmatter and
// titles of project documents, the project index table and the active
// project marker.
package parser

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// Document is a markdown file split into its YAML frontmatter and body.
type Document struct {
	Frontmatter map[string]any
	Body        string
	// Title is the frontmatter title, else the first H1 heading.
	Title string
}

// ParseDocument splits data into frontmatter and body. A missing closing
// fence or invalid YAML leaves the whole file as body.
func ParseDocument(data []byte) Document {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	doc := Document{Body: text}

	head := strings.TrimLeft(text, "\n")
	if fm, body, ok := frontmatter(head); ok {
		doc.Frontmatter = fm
		doc.Body = body
	}
	doc.Title = title(doc.Frontmatter, doc.Body)
	return doc
}

func frontmatter(text string) (map[string]any, string, bool) {
	first, rest, ok := strings.Cut(text, "\n")
	if !ok || strings.TrimSpace(first) != fence {
		return nil, "", false
	}
	block, body, ok := strings.Cut(rest, "\n"+fence)
	if !ok {
		if !strings.HasPrefix(rest, fence) {
			return nil, "", false
		}
		// Empty frontmatter.
		block, body = "", rest[len(fence):]
	}
	// Drop the remainder of the closing fence line.
	if _, after, found := strings.Cut(body, "\n"); found {
		body = after
	} else {
		body = ""
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, "", false
	}
	return fm, strings.TrimLeft(body, "\n"), true
}

func title(fm map[string]any, body string) string {
	if t, ok := fm["title"].(string); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	for line := range strings.SplitSeq(body, "\n") {
		if h, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(h)
		}
	}
	return ""
}
