package session

import (
	"github.com/starford/flowboard/internal/canvas"
	"github.com/starford/flowboard/pkg/geometry"
)

func (s *Session) input(fn func() []canvas.Intent) {
	s.do(func() { s.execute(fn()) })
}

// PointerDown forwards a pointer or touch start.
func (s *Session) PointerDown(ev canvas.PointerEvent) {
	s.input(func() []canvas.Intent { return s.ctrl.PointerDown(s.scene, ev) })
}

// PointerMove forwards pointer motion.
func (s *Session) PointerMove(ev canvas.PointerEvent) {
	s.input(func() []canvas.Intent { return s.ctrl.PointerMove(s.scene, ev) })
}

// PointerUp forwards a pointer release. Pointer-leave is reported the same way.
func (s *Session) PointerUp(ev canvas.PointerEvent) {
	s.input(func() []canvas.Intent { return s.ctrl.PointerUp(s.scene, ev) })
}

// Wheel forwards a scroll event.
func (s *Session) Wheel(ev canvas.WheelEvent) {
	s.do(func() { s.ctrl.Wheel(s.scene, ev) })
}

// DoubleClick creates a note when pos is on empty canvas.
func (s *Session) DoubleClick(pos geometry.Point) {
	s.input(func() []canvas.Intent { return s.ctrl.DoubleClick(s.scene, pos) })
}

// AddNote creates a note at the centre of the viewport.
func (s *Session) AddNote() {
	s.input(func() []canvas.Intent { return s.ctrl.AddNoteAtCenter(s.scene) })
}

// BeginEdit opens a note for inline editing.
func (s *Session) BeginEdit(id string) {
	s.input(func() []canvas.Intent { return s.ctrl.BeginEdit(s.scene, id) })
}

// EditText replaces the draft of the note being edited.
func (s *Session) EditText(text string) {
	s.do(func() { s.ctrl.EditText(s.scene, text) })
}

// CommitEdit stores the draft of the note being edited.
func (s *Session) CommitEdit() {
	s.input(func() []canvas.Intent { return s.ctrl.CommitEdit(s.scene) })
}

// Cancel aborts the active gesture, or commits the edit when idle.
func (s *Session) Cancel() {
	s.input(func() []canvas.Intent { return s.ctrl.Cancel(s.scene) })
}

// SetViewport updates the viewport after a resize.
func (s *Session) SetViewport(vp canvas.Viewport) {
	s.do(func() { s.ctrl.SetViewport(vp) })
}

// Select changes the selection as a click on the note would.
func (s *Session) Select(id string, additive bool) {
	s.do(func() { s.scene.Select(id, additive) })
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	s.do(func() { s.scene.ClearSelection() })
}
