package canvas

import (
	"github.com/starford/flowboard/internal/models"
	"github.com/starford/flowboard/pkg/geometry"
)

// Modifiers is a bit set of held keyboard modifiers.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModMeta
	ModAlt
)

// Has reports whether m contains all of o.
func (m Modifiers) Has(o Modifiers) bool { return m&o == o }

// PointerEvent is a mouse or touch contact in screen coordinates. A mouse is
// a single pointer; every finger of a touch is its own pointer.
type PointerEvent struct {
	ID   int
	Pos  geometry.Point
	Mods Modifiers
}

// WheelEvent is a scroll or trackpad gesture at Pos.
type WheelEvent struct {
	Pos   geometry.Point
	Delta geometry.Point
	Mods  Modifiers
}

// Intent is a side effect requested by a gesture. The controller has
// already applied the local change; intents describe what must reach the
// store.
type Intent interface {
	intent()
}

// CreateNote asks for a new note with its top-left corner at At.
type CreateNote struct {
	At    geometry.Point
	Color models.Color
}

// SaveText persists a committed inline edit.
type SaveText struct {
	NoteID string
	Text   string
}

// SchedulePosition requests a debounced position write for a note.
type SchedulePosition struct {
	NoteID string
}

// ConnectNotes asks to link two distinct notes.
type ConnectNotes struct {
	From string
	To   string
}

func (CreateNote) intent()       {}
func (SaveText) intent()         {}
func (SchedulePosition) intent() {}
func (ConnectNotes) intent()     {}

// Offsets of a new note relative to the point that created it.
var (
	dblClickOffset = geometry.Pt(NoteWidth/2, 20)
	toolbarOffset  = geometry.Pt(NoteWidth/2, 40)
)

// Controller turns pointer events into scene changes and intents. It tracks
// the active pointers so mouse and touch share one state machine.
type Controller struct {
	viewport Viewport
	pointers map[int]geometry.Point
	primary  int
}

// NewController returns a controller for a viewport.
func NewController(vp Viewport) *Controller {
	return &Controller{viewport: vp, pointers: make(map[int]geometry.Point)}
}

// Viewport returns the current viewport.
func (c *Controller) Viewport() Viewport { return c.viewport }

// SetViewport updates the viewport after a resize.
func (c *Controller) SetViewport(vp Viewport) { c.viewport = vp }

// ActivePointers returns the number of pointers currently down.
func (c *Controller) ActivePointers() int { return len(c.pointers) }

func (c *Controller) toCanvas(s *Scene, screen geometry.Point) geometry.Point {
	return ScreenToCanvas(screen, c.viewport, s.View())
}

// PointerDown starts a gesture. A second simultaneous pointer cancels the
// gesture in progress and starts a pinch.
func (c *Controller) PointerDown(s *Scene, ev PointerEvent) []Intent {
	c.pointers[ev.ID] = ev.Pos
	switch len(c.pointers) {
	case 1:
		c.primary = ev.ID
	case 2:
		s.setInteraction(PinchZooming{LastDistance: c.pinchDistance()})
		return nil
	default:
		return nil
	}

	p := c.toCanvas(s, ev.Pos)
	hit := s.HitTest(p)
	additive := ev.Mods.Has(ModShift)

	switch hit.Part {
	case PartPort:
		intents := c.commitOther(s, hit.NoteID)
		s.setInteraction(Connecting{FromID: hit.NoteID, Port: hit.Port, Cursor: p})
		return intents

	case PartHeader:
		intents := c.commitOther(s, hit.NoteID)
		n, _ := s.Note(hit.NoteID)
		s.Select(hit.NoteID, additive)
		s.setInteraction(Dragging{
			NoteID:        hit.NoteID,
			OriginPointer: ev.Pos,
			OriginNote:    geometry.Pt(n.X, n.Y),
		})
		return intents

	case PartBody:
		s.Select(hit.NoteID, additive)
		return c.BeginEdit(s, hit.NoteID)
	}

	intents := c.CommitEdit(s)
	s.ClearSelection()
	if additive {
		local := c.viewport.Local(ev.Pos)
		s.setInteraction(Lassoing{Origin: local, Rect: geometry.Rect{X: local.X, Y: local.Y}})
	} else {
		s.setInteraction(Panning{OriginPointer: ev.Pos, OriginPan: s.View().Pan})
	}
	return intents
}

// PointerMove advances the active gesture.
func (c *Controller) PointerMove(s *Scene, ev PointerEvent) []Intent {
	if _, ok := c.pointers[ev.ID]; !ok {
		return nil
	}
	c.pointers[ev.ID] = ev.Pos

	if pz, ok := s.Interaction().(PinchZooming); ok {
		if len(c.pointers) != 2 {
			return nil
		}
		d := c.pinchDistance()
		if pz.LastDistance > 0 {
			s.SetView(s.View().ZoomAt(c.pinchCenter(), d/pz.LastDistance))
		}
		s.setInteraction(PinchZooming{LastDistance: d})
		return nil
	}
	if ev.ID != c.primary {
		return nil
	}

	switch it := s.Interaction().(type) {
	case Dragging:
		delta := ev.Pos.Sub(it.OriginPointer).Scale(1 / s.View().Scale)
		if !s.Move(it.NoteID, it.OriginNote.Add(delta)) {
			s.setInteraction(Idle{})
			return nil
		}
		return []Intent{SchedulePosition{NoteID: it.NoteID}}

	case Connecting:
		it.Cursor = c.toCanvas(s, ev.Pos)
		s.setInteraction(it)

	case Panning:
		v := s.View()
		v.Pan = it.OriginPan.Add(ev.Pos.Sub(it.OriginPointer))
		s.SetView(v)

	case Lassoing:
		local := c.viewport.Local(ev.Pos)
		it.Rect = geometry.RectFromPoints(it.Origin, local)
		it.Moved = true
		s.setInteraction(it)
	}
	return nil
}

// PointerUp ends the active gesture. Pointer leave and cancel are treated
// the same way.
func (c *Controller) PointerUp(s *Scene, ev PointerEvent) []Intent {
	if _, ok := c.pointers[ev.ID]; !ok {
		return nil
	}
	delete(c.pointers, ev.ID)

	if _, ok := s.Interaction().(PinchZooming); ok {
		// The remaining finger does not start a new gesture.
		switch {
		case len(c.pointers) < 2:
			s.setInteraction(Idle{})
		case len(c.pointers) == 2:
			s.setInteraction(PinchZooming{LastDistance: c.pinchDistance()})
		}
		return nil
	}
	if ev.ID != c.primary {
		return nil
	}

	var intents []Intent
	switch it := s.Interaction().(type) {
	case Connecting:
		target := s.HitTest(c.toCanvas(s, ev.Pos))
		if !target.Empty() && target.NoteID != it.FromID {
			intents = append(intents, ConnectNotes{From: it.FromID, To: target.NoteID})
		}

	case Lassoing:
		if it.Moved {
			s.SetSelection(s.NotesIn(s.View().RectToCanvas(it.Rect)))
		}
	}
	s.setInteraction(Idle{})
	return intents
}

// Wheel zooms around the cursor when Ctrl or Meta is held and pans
// otherwise.
func (c *Controller) Wheel(s *Scene, ev WheelEvent) {
	v := s.View()
	if ev.Mods.Has(ModCtrl) || ev.Mods.Has(ModMeta) {
		factor := wheelZoomIn
		if ev.Delta.Y > 0 {
			factor = wheelZoomOut
		}
		s.SetView(v.ZoomAt(c.viewport.Local(ev.Pos), factor))
		return
	}
	s.SetView(v.PanBy(ev.Delta.Scale(-1)))
}

// DoubleClick on empty canvas requests a note centred under the cursor.
func (c *Controller) DoubleClick(s *Scene, pos geometry.Point) []Intent {
	p := c.toCanvas(s, pos)
	if !s.HitTest(p).Empty() {
		return nil
	}
	return []Intent{CreateNote{At: p.Sub(dblClickOffset), Color: models.DefaultColor}}
}

// AddNoteAtCenter requests a note in the middle of the visible area.
func (c *Controller) AddNoteAtCenter(s *Scene) []Intent {
	p := s.View().ToCanvas(c.viewport.Center())
	return []Intent{CreateNote{At: p.Sub(toolbarOffset), Color: models.DefaultColor}}
}

// BeginEdit opens a note for inline editing, committing any other note's
// pending edit first.
func (c *Controller) BeginEdit(s *Scene, id string) []Intent {
	if s.editing == id {
		return nil
	}
	n, ok := s.Note(id)
	if !ok {
		return nil
	}
	intents := c.CommitEdit(s)
	s.editing, s.draft = id, n.Text
	return intents
}

// EditText replaces the uncommitted text of the note being edited.
func (c *Controller) EditText(s *Scene, text string) {
	if s.editing != "" {
		s.draft = text
	}
}

// CommitEdit writes the pending edit into the scene and asks to persist it.
func (c *Controller) CommitEdit(s *Scene) []Intent {
	id, text, ok := s.Editing()
	if !ok {
		return nil
	}
	s.editing, s.draft = "", ""
	if !s.SetText(id, text) {
		return nil
	}
	return []Intent{SaveText{NoteID: id, Text: text}}
}

// Cancel aborts the active gesture. With no gesture running it commits the
// inline edit, as Escape does in the editor.
func (c *Controller) Cancel(s *Scene) []Intent {
	if s.Interaction().Mode() != ModeIdle {
		s.setInteraction(Idle{})
		clear(c.pointers)
		return nil
	}
	return c.CommitEdit(s)
}

func (c *Controller) commitOther(s *Scene, id string) []Intent {
	if s.editing != "" && s.editing != id {
		return c.CommitEdit(s)
	}
	return nil
}

func (c *Controller) twoPointers() (geometry.Point, geometry.Point) {
	var pts []geometry.Point
	for _, p := range c.pointers {
		pts = append(pts, p)
		if len(pts) == 2 {
			break
		}
	}
	return pts[0], pts[1]
}

func (c *Controller) pinchDistance() float64 {
	a, b := c.twoPointers()
	return a.Distance(b)
}

func (c *Controller) pinchCenter() geometry.Point {
	a, b := c.twoPointers()
	return c.viewport.Local(a.Midpoint(b))
}
