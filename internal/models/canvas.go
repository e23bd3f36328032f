// Package models defines the domain types shared by the canvas editor and the dashboard store.
package models

// Color is a sticky-note color.
type Color string

// Note colors. ColorYellow is the default.
const (
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorTeal   Color = "teal"
)

// DefaultColor is assigned to notes created without an explicit color.
const DefaultColor = ColorYellow

// Colors lists every palette entry in display order.
var Colors = []Color{ColorYellow, ColorBlue, ColorGreen, ColorRed, ColorTeal}

// Valid reports whether c is a palette color.
func (c Color) Valid() bool {
	for _, p := range Colors {
		if c == p {
			return true
		}
	}
	return false
}

// IsDefault reports whether c is the default color.
func (c Color) IsDefault() bool {
	return c == DefaultColor
}

// Note is a sticky note on a project canvas. X and Y are canvas-space
// coordinates of the top-left corner.
type Note struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Text    string  `json:"text"`
	Color   Color   `json:"color"`
	Created string  `json:"created,omitempty"`
}

// Connection is an undirected link between two notes.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Touches reports whether id is one of the endpoints.
func (c Connection) Touches(id string) bool {
	return c.From == id || c.To == id
}

// SamePair reports whether c and o link the same two notes in either direction.
func (c Connection) SamePair(o Connection) bool {
	return (c.From == o.From && c.To == o.To) || (c.From == o.To && c.To == o.From)
}

// Other returns the endpoint opposite id.
func (c Connection) Other(id string) string {
	if c.From == id {
		return c.To
	}
	return c.From
}

// Canvas is the persisted content of one project canvas.
type Canvas struct {
	Notes       []Note       `json:"notes"`
	Connections []Connection `json:"connections"`
}

// NoteInput is the body of a note creation request.
type NoteInput struct {
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color Color   `json:"color"`
}

// NotePatch is a partial note update. Nil fields are left unchanged.
type NotePatch struct {
	Text  *string  `json:"text,omitempty"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Color *Color   `json:"color,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Text == nil && p.X == nil && p.Y == nil && p.Color == nil
}

// Apply returns n with the patch applied.
func (p NotePatch) Apply(n Note) Note {
	if p.Text != nil {
		n.Text = *p.Text
	}
	if p.X != nil {
		n.X = *p.X
	}
	if p.Y != nil {
		n.Y = *p.Y
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	return n
}

// PromoteRequest turns a set of notes into one task.
type PromoteRequest struct {
	NoteIDs  []string `json:"noteIds"`
	Title    string   `json:"title"`
	Priority Priority `json:"priority"`
}

// PromoteResult is the outcome of a promotion. DeletedNotes may be empty
// when the store does not report which notes it removed.
type PromoteResult struct {
	Task         Task     `json:"task"`
	DeletedNotes []string `json:"deletedNotes,omitempty"`
}
