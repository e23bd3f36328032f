package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/flowboard/internal/canvas"
	"github.com/starford/flowboard/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(10)
	boxStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

const maxSummaryText = 48

// Summary describes a canvas for the terminal: counts, one line per note
// and the promotable clusters.
func Summary(project string, cv models.Canvas) string {
	scene := canvas.NewScene()
	scene.Load(cv)
	clusters := canvas.Clusters(scene)

	var b strings.Builder
	b.WriteString(titleStyle.Render(project))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s · %s · %s",
		plural(scene.Len(), "note"),
		plural(len(scene.Connections()), "connection"),
		plural(len(clusters), "cluster"))))

	if scene.Len() == 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("empty canvas"))
		return boxStyle.Render(b.String())
	}

	b.WriteString("\n")
	for _, n := range scene.Notes() {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(Hex(n.Color))).Render("■")
		b.WriteString("\n")
		b.WriteString(swatch + " " + idStyle.Render(n.ID) + firstLine(n.Text))
	}

	if len(clusters) > 0 {
		b.WriteString("\n")
		for _, c := range clusters {
			b.WriteString("\n")
			b.WriteString(mutedStyle.Render("cluster ") + strings.Join(c, ", "))
		}
	}
	return boxStyle.Render(b.String())
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	if line == "" {
		return mutedStyle.Render("(empty)")
	}
	if r := []rune(line); len(r) > maxSummaryText {
		return string(r[:maxSummaryText-1]) + "…"
	}
	return line
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
