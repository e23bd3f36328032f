package canvas

import (
	"slices"

	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/pkg/geometry"
)

// Snapshot is an immutable copy of everything a renderer needs.
type Snapshot struct {
	Notes       []models.Note
	Connections []models.Connection
	Selected    []string
	Pending     []string
	View        ViewState
	Interaction Interaction
	EditingID   string
	Draft       string
	Candidates  []PromoteCandidate
}

// Snapshot copies the scene.
func (s *Scene) Snapshot() Snapshot {
	var pending []string
	for _, id := range s.order {
		if s.IsPending(id) {
			pending = append(pending, id)
		}
	}
	return Snapshot{
		Notes:       s.Notes(),
		Connections: s.Connections(),
		Selected:    s.Selected(),
		Pending:     pending,
		View:        s.view,
		Interaction: s.interaction,
		EditingID:   s.editing,
		Draft:       s.draft,
		Candidates:  PromoteCandidates(s),
	}
}

// Offset of the promote button from a candidate's anchor.
var promoteButtonOffset = geometry.Pt(-56, 8)

// NoteView is a note ready to draw, in canvas space.
type NoteView struct {
	ID       string
	Text     string
	Color    models.Color
	Bounds   geometry.Rect
	Header   geometry.Rect
	Ports    [4]geometry.Point
	Selected bool
	Editing  bool
	Disabled bool
}

// EdgeView is a connection drawn between note centers.
type EdgeView struct {
	From string
	To   string
	A    geometry.Point
	B    geometry.Point
}

// Midpoint is where the delete affordance of an edge sits.
func (e EdgeView) Midpoint() geometry.Point { return e.A.Midpoint(e.B) }

// PromoteButton is the promote affordance of a candidate.
type PromoteButton struct {
	Kind    ClusterKind
	NoteIDs []string
	Pos     geometry.Point
}

// Frame is the visual tree of a canvas. Notes, edges, the connection
// preview and promote buttons are in canvas space; Lasso is in viewport
// space.
type Frame struct {
	View    ViewState
	Mode    Mode
	Notes   []NoteView
	Edges   []EdgeView
	Preview *EdgeView
	Lasso   *geometry.Rect
	Promote []PromoteButton
	Empty   bool
}

// Project derives the frame of a snapshot. It is a pure function of its
// input.
func Project(snap Snapshot) Frame {
	f := Frame{
		View:  snap.View,
		Mode:  ModeIdle,
		Empty: len(snap.Notes) == 0,
	}
	if snap.Interaction != nil {
		f.Mode = snap.Interaction.Mode()
	}

	byID := make(map[string]models.Note, len(snap.Notes))
	for _, n := range snap.Notes {
		byID[n.ID] = n
		text := n.Text
		if n.ID == snap.EditingID {
			text = snap.Draft
		}
		shown := n
		shown.Text = text
		nv := NoteView{
			ID:       n.ID,
			Text:     text,
			Color:    n.Color,
			Bounds:   NoteBounds(shown),
			Header:   HeaderBounds(shown),
			Selected: slices.Contains(snap.Selected, n.ID),
			Editing:  n.ID == snap.EditingID,
			Disabled: slices.Contains(snap.Pending, n.ID),
		}
		for i, p := range Ports {
			nv.Ports[i] = PortPosition(shown, p)
		}
		f.Notes = append(f.Notes, nv)
	}

	for _, c := range snap.Connections {
		a, okA := byID[c.From]
		b, okB := byID[c.To]
		if !okA || !okB {
			continue
		}
		f.Edges = append(f.Edges, EdgeView{
			From: c.From,
			To:   c.To,
			A:    NoteBounds(a).Center(),
			B:    NoteBounds(b).Center(),
		})
	}

	switch it := snap.Interaction.(type) {
	case Connecting:
		if n, ok := byID[it.FromID]; ok {
			f.Preview = &EdgeView{From: it.FromID, A: PortPosition(n, it.Port), B: it.Cursor}
		}
	case Lassoing:
		r := it.Rect
		f.Lasso = &r
	}

	for _, c := range snap.Candidates {
		f.Promote = append(f.Promote, PromoteButton{
			Kind:    c.Kind,
			NoteIDs: c.NoteIDs,
			Pos:     c.Anchor.Add(promoteButtonOffset),
		})
	}
	return f
}

// Bounds returns the canvas-space extent of all notes in the frame.
func (f Frame) Bounds() (geometry.Rect, bool) {
	if len(f.Notes) == 0 {
		return geometry.Rect{}, false
	}
	r := f.Notes[0].Bounds
	for _, n := range f.Notes[1:] {
		r = r.Union(n.Bounds)
	}
	return r, true
}
