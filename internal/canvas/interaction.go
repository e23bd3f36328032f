package canvas

import "github.com/starford/flowboard/pkg/geometry"

// Mode names the active gesture.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeConnecting
	ModePanning
	ModeLassoing
	ModePinchZooming
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDragging:
		return "dragging"
	case ModeConnecting:
		return "connecting"
	case ModePanning:
		return "panning"
	case ModeLassoing:
		return "lassoing"
	case ModePinchZooming:
		return "pinch-zooming"
	}
	return "unknown"
}

// Interaction is the state of the gesture in progress. Exactly one is
// active per scene.
type Interaction interface {
	Mode() Mode
}

// Idle means no gesture is in progress.
type Idle struct{}

// Dragging moves a note by its header.
type Dragging struct {
	NoteID        string
	OriginPointer geometry.Point // screen
	OriginNote    geometry.Point // canvas
}

// Connecting draws a preview line from a note's port.
type Connecting struct {
	FromID string
	Port   Port
	Cursor geometry.Point // canvas
}

// Panning moves the view by the raw pointer delta.
type Panning struct {
	OriginPointer geometry.Point // screen
	OriginPan     geometry.Point
}

// Lassoing draws a selection rectangle in viewport space.
type Lassoing struct {
	Origin geometry.Point
	Rect   geometry.Rect
	Moved  bool
}

// PinchZooming scales the view with two pointers.
type PinchZooming struct {
	LastDistance float64
}

func (Idle) Mode() Mode         { return ModeIdle }
func (Dragging) Mode() Mode     { return ModeDragging }
func (Connecting) Mode() Mode   { return ModeConnecting }
func (Panning) Mode() Mode      { return ModePanning }
func (Lassoing) Mode() Mode     { return ModeLassoing }
func (PinchZooming) Mode() Mode { return ModePinchZooming }
