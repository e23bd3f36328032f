package canvas

import (
	"strings"

	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/pkg/geometry"
)

// Note box metrics in canvas units.
const (
	NoteWidth    = 160.0
	HeaderHeight = 28.0
	LineHeight   = 18.0
	BodyPadding  = 16.0
	PortRadius   = 7.0

	charsPerLine = 20
)

// Part identifies the region of a note under a point.
type Part int

const (
	PartNone Part = iota
	PartHeader
	PartBody
	PartPort
)

// Port is one of the four connection handles on a note's edges.
type Port int

const (
	PortTop Port = iota
	PortRight
	PortBottom
	PortLeft
)

// Ports lists every port.
var Ports = []Port{PortTop, PortRight, PortBottom, PortLeft}

func (p Port) String() string {
	switch p {
	case PortTop:
		return "top"
	case PortRight:
		return "right"
	case PortBottom:
		return "bottom"
	case PortLeft:
		return "left"
	}
	return "unknown"
}

// TextLines estimates the number of wrapped body lines of text. Empty text
// still occupies one line for the placeholder.
func TextLines(text string) int {
	return len(WrapText(text))
}

// WrapText splits text into the display lines of a note body. Every
// source line yields at least one display line.
func WrapText(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		if len(runes) == 0 {
			out = append(out, "")
			continue
		}
		for len(runes) > 0 {
			n := min(charsPerLine, len(runes))
			out = append(out, string(runes[:n]))
			runes = runes[n:]
		}
	}
	return out
}

// NoteBounds returns the canvas-space box of n.
func NoteBounds(n models.Note) geometry.Rect {
	h := HeaderHeight + BodyPadding + float64(TextLines(n.Text))*LineHeight
	return geometry.Rect{X: n.X, Y: n.Y, Width: NoteWidth, Height: h}
}

// HeaderBounds returns the drag handle of n.
func HeaderBounds(n models.Note) geometry.Rect {
	return geometry.Rect{X: n.X, Y: n.Y, Width: NoteWidth, Height: HeaderHeight}
}

// PortPosition returns the canvas-space center of a port.
func PortPosition(n models.Note, p Port) geometry.Point {
	b := NoteBounds(n)
	switch p {
	case PortTop:
		return geometry.Pt(b.X+b.Width/2, b.Y)
	case PortRight:
		return geometry.Pt(b.X+b.Width, b.Y+b.Height/2)
	case PortBottom:
		return geometry.Pt(b.X+b.Width/2, b.Y+b.Height)
	default:
		return geometry.Pt(b.X, b.Y+b.Height/2)
	}
}

// Hit is the result of hit-testing a canvas point.
type Hit struct {
	NoteID string
	Part   Part
	Port   Port
}

// Empty reports whether the point hit no note.
func (h Hit) Empty() bool { return h.Part == PartNone }

// hitNote classifies p against a single note.
func hitNote(n models.Note, p geometry.Point) (Hit, bool) {
	for _, port := range Ports {
		if PortPosition(n, port).Distance(p) <= PortRadius {
			return Hit{NoteID: n.ID, Part: PartPort, Port: port}, true
		}
	}
	if HeaderBounds(n).Contains(p) {
		return Hit{NoteID: n.ID, Part: PartHeader}, true
	}
	if NoteBounds(n).Contains(p) {
		return Hit{NoteID: n.ID, Part: PartBody}, true
	}
	return Hit{}, false
}
