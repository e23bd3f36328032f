package canvas

import (
	"slices"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/pkg/geometry"
)

var (
	ErrSelfConnection = apperr.Validation("cannot connect a note to itself")
	ErrDuplicateLink  = apperr.Wrap(apperr.ErrAlreadyExists, "connection already exists")
	ErrUnknownNote    = apperr.Wrap(apperr.ErrNotFound, "note not found")
	ErrInvalidNote    = apperr.Validation("note id is required")
)

// Scene holds the notes, connections, selection, view and interaction of
// one canvas. Notes keep their insertion order, which is also the paint
// order: later notes are on top.
//
// Invariants: every connection references two existing, distinct notes and
// no two connections link the same pair; the selection only holds existing
// note ids.
type Scene struct {
	notes   map[string]*models.Note
	order   []string
	conns   []models.Connection
	sel     map[string]struct{}
	pending map[string]struct{}

	view        ViewState
	interaction Interaction

	editing string
	draft   string
}

// NewScene returns an empty scene with the default view.
func NewScene() *Scene {
	s := &Scene{view: DefaultView()}
	s.reset()
	return s
}

func (s *Scene) reset() {
	s.notes = make(map[string]*models.Note)
	s.order = nil
	s.conns = nil
	s.sel = make(map[string]struct{})
	s.pending = make(map[string]struct{})
	s.interaction = Idle{}
	s.editing, s.draft = "", ""
}

// Load replaces the content with c. Connections that reference unknown
// notes, link a note to itself or repeat a pair are dropped. The view is
// kept.
func (s *Scene) Load(c models.Canvas) {
	s.reset()
	for _, n := range c.Notes {
		_ = s.Insert(n)
	}
	for _, conn := range c.Connections {
		_ = s.Connect(conn.From, conn.To)
	}
}

// Reset clears the scene and restores the default view.
func (s *Scene) Reset() {
	s.reset()
	s.view = DefaultView()
}

// Len returns the number of notes.
func (s *Scene) Len() int { return len(s.order) }

// Has reports whether a note exists.
func (s *Scene) Has(id string) bool {
	_, ok := s.notes[id]
	return ok
}

// Note returns a copy of a note.
func (s *Scene) Note(id string) (models.Note, bool) {
	n, ok := s.notes[id]
	if !ok {
		return models.Note{}, false
	}
	return *n, true
}

// Notes returns copies of all notes in paint order.
func (s *Scene) Notes() []models.Note {
	out := make([]models.Note, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.notes[id])
	}
	return out
}

// Connections returns a copy of all connections.
func (s *Scene) Connections() []models.Connection {
	return slices.Clone(s.conns)
}

// Insert adds a note. An empty color becomes the default.
func (s *Scene) Insert(n models.Note) error {
	if n.ID == "" {
		return ErrInvalidNote
	}
	if s.Has(n.ID) {
		return apperr.Wrap(apperr.ErrAlreadyExists, "note "+n.ID)
	}
	if n.Color == "" {
		n.Color = models.DefaultColor
	}
	s.notes[n.ID] = &n
	s.order = append(s.order, n.ID)
	return nil
}

// Remove deletes a note and every connection touching it. It returns the
// removed connections and false when the note did not exist.
func (s *Scene) Remove(id string) ([]models.Connection, bool) {
	if !s.Has(id) {
		return nil, false
	}
	delete(s.notes, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	delete(s.sel, id)
	delete(s.pending, id)

	var removed []models.Connection
	s.conns = slices.DeleteFunc(s.conns, func(c models.Connection) bool {
		if c.Touches(id) {
			removed = append(removed, c)
			return true
		}
		return false
	})

	if s.editing == id {
		s.editing, s.draft = "", ""
	}
	switch it := s.interaction.(type) {
	case Dragging:
		if it.NoteID == id {
			s.interaction = Idle{}
		}
	case Connecting:
		if it.FromID == id {
			s.interaction = Idle{}
		}
	}
	return removed, true
}

// RemoveAll removes every listed note that exists.
func (s *Scene) RemoveAll(ids []string) {
	for _, id := range ids {
		s.Remove(id)
	}
}

// Connect links two notes.
func (s *Scene) Connect(from, to string) error {
	if from == to {
		return ErrSelfConnection
	}
	if !s.Has(from) || !s.Has(to) {
		return ErrUnknownNote
	}
	if s.Connected(from, to) {
		return ErrDuplicateLink
	}
	s.conns = append(s.conns, models.Connection{From: from, To: to})
	return nil
}

// Connected reports whether a and b are directly linked, in either direction.
func (s *Scene) Connected(a, b string) bool {
	want := models.Connection{From: a, To: b}
	return slices.ContainsFunc(s.conns, want.SamePair)
}

// Disconnect removes the link between a and b in either direction.
func (s *Scene) Disconnect(a, b string) bool {
	want := models.Connection{From: a, To: b}
	n := len(s.conns)
	s.conns = slices.DeleteFunc(s.conns, want.SamePair)
	return len(s.conns) != n
}

// Move sets a note's position.
func (s *Scene) Move(id string, p geometry.Point) bool {
	n, ok := s.notes[id]
	if !ok {
		return false
	}
	n.X, n.Y = p.X, p.Y
	return true
}

// SetText replaces a note's text.
func (s *Scene) SetText(id, text string) bool {
	n, ok := s.notes[id]
	if !ok {
		return false
	}
	n.Text = text
	return true
}

// SetColor recolors a note. Unknown colors are rejected.
func (s *Scene) SetColor(id string, c models.Color) error {
	if !c.Valid() {
		return apperr.Validation("unknown color " + string(c))
	}
	n, ok := s.notes[id]
	if !ok {
		return ErrUnknownNote
	}
	n.Color = c
	return nil
}

// Selected returns the selected ids in paint order.
func (s *Scene) Selected() []string {
	out := make([]string, 0, len(s.sel))
	for _, id := range s.order {
		if _, ok := s.sel[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// IsSelected reports whether id is selected.
func (s *Scene) IsSelected(id string) bool {
	_, ok := s.sel[id]
	return ok
}

// Select adds id to the selection. Without additive the selection is
// replaced.
func (s *Scene) Select(id string, additive bool) {
	if !s.Has(id) {
		return
	}
	if !additive {
		clear(s.sel)
	}
	s.sel[id] = struct{}{}
}

// SetSelection replaces the selection. Unknown ids are ignored.
func (s *Scene) SetSelection(ids []string) {
	clear(s.sel)
	for _, id := range ids {
		if s.Has(id) {
			s.sel[id] = struct{}{}
		}
	}
}

// ClearSelection empties the selection.
func (s *Scene) ClearSelection() { clear(s.sel) }

// View returns the current view.
func (s *Scene) View() ViewState { return s.view }

// SetView replaces the view; the scale is clamped.
func (s *Scene) SetView(v ViewState) {
	v.Scale = ClampScale(v.Scale)
	s.view = v
}

// Interaction returns the active gesture state.
func (s *Scene) Interaction() Interaction { return s.interaction }

func (s *Scene) setInteraction(it Interaction) { s.interaction = it }

// Editing returns the note being edited inline and its uncommitted text.
func (s *Scene) Editing() (id, draft string, ok bool) {
	return s.editing, s.draft, s.editing != ""
}

// MarkPending flags a note whose deletion is in flight.
func (s *Scene) MarkPending(id string) {
	if s.Has(id) {
		s.pending[id] = struct{}{}
	}
}

// ClearPending removes the in-flight deletion flag.
func (s *Scene) ClearPending(id string) { delete(s.pending, id) }

// IsPending reports whether a deletion of id is in flight.
func (s *Scene) IsPending(id string) bool {
	_, ok := s.pending[id]
	return ok
}

// HitTest returns the topmost note part under a canvas point.
func (s *Scene) HitTest(p geometry.Point) Hit {
	for i := len(s.order) - 1; i >= 0; i-- {
		if h, ok := hitNote(*s.notes[s.order[i]], p); ok {
			return h
		}
	}
	return Hit{}
}

// NotesIn returns the ids of notes whose box overlaps r (canvas space),
// touching edges included, in paint order.
func (s *Scene) NotesIn(r geometry.Rect) []string {
	var out []string
	for _, id := range s.order {
		if NoteBounds(*s.notes[id]).Overlaps(r) {
			out = append(out, id)
		}
	}
	return out
}

// Extent returns the bounding box of the listed notes.
func (s *Scene) Extent(ids []string) (geometry.Rect, bool) {
	var (
		r     geometry.Rect
		found bool
	)
	for _, id := range ids {
		n, ok := s.notes[id]
		if !ok {
			continue
		}
		b := NoteBounds(*n)
		if !found {
			r, found = b, true
			continue
		}
		r = r.Union(b)
	}
	return r, found
}
