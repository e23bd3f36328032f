package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	indexRowRe      = regexp.MustCompile(`^\|\s*(\w[\w-]*)\s*\|\s*(\w+)\s*\|\s*(.+?)\s*\|$`)
	activeProjectRe = regexp.MustCompile(`(?m)^project:\s*(.+)$`)
)

// IndexRow is one project line of projects/_index.md.
type IndexRow struct {
	Name        string
	Status      string
	Description string
}

// ParseProjectIndex reads the project table of an index file. The header
// row is skipped, as are separator rows and anything that is not a
// three-column table line.
func ParseProjectIndex(data []byte) []IndexRow {
	var rows []IndexRow
	for _, line := range strings.Split(string(data), "\n") {
		m := indexRowRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil || m[1] == "Project" {
			continue
		}
		rows = append(rows, IndexRow{Name: m[1], Status: m[2], Description: m[3]})
	}
	return rows
}

// ParseActiveProject returns the project named in ACTIVE-PROJECT.md, or ""
// when none is set.
func ParseActiveProject(data []byte) string {
	m := activeProjectRe.FindSubmatch(data)
	if m == nil {
		return ""
	}
	name := strings.TrimSpace(string(m[1]))
	if name == "none" {
		return ""
	}
	return name
}

// FormatActiveProject renders ACTIVE-PROJECT.md for name. An empty name
// clears the active project.
func FormatActiveProject(name string, since time.Time) []byte {
	if name == "" {
		return []byte("project: none\n")
	}
	return []byte(fmt.Sprintf("project: %s\nsince: %s\n", name, since.Format(time.DateOnly)))
}
