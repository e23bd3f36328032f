// Package canvas implements the infinite canvas editor: the pan/zoom transform,
// the scene of notes and connections, the pointer gesture state machine,
// connected-component analysis and the render projection.
//
// Nothing in this package performs I/O. A Scene is not safe for concurrent
// use; the owning session serialises access.
package canvas

import (
	"math"

	"github.com/starford/flowboard/pkg/geometry"
)

// Zoom limits.
const (
	ScaleMin = 0.3
	ScaleMax = 2.5
)

// Wheel zoom factors.
const (
	wheelZoomIn  = 1.1
	wheelZoomOut = 0.9
)

// ViewState is the pan offset (viewport pixels) and zoom scale of a canvas view.
type ViewState struct {
	Pan   geometry.Point `json:"pan"`
	Scale float64        `json:"scale"`
}

// DefaultView returns the view a canvas opens with.
func DefaultView() ViewState {
	return ViewState{Pan: geometry.Pt(60, 60), Scale: 1}
}

// ClampScale limits s to [ScaleMin, ScaleMax].
func ClampScale(s float64) float64 {
	return math.Min(ScaleMax, math.Max(ScaleMin, s))
}

// ToCanvas maps a viewport-relative point to canvas space.
func (v ViewState) ToCanvas(p geometry.Point) geometry.Point {
	return p.Sub(v.Pan).Scale(1 / v.Scale)
}

// ToViewport maps a canvas-space point to viewport-relative pixels.
func (v ViewState) ToViewport(p geometry.Point) geometry.Point {
	return p.Scale(v.Scale).Add(v.Pan)
}

// RectToCanvas maps a viewport-relative rectangle to canvas space.
func (v ViewState) RectToCanvas(r geometry.Rect) geometry.Rect {
	return geometry.RectFromPoints(v.ToCanvas(r.Min()), v.ToCanvas(r.Max()))
}

// ZoomAt multiplies the scale by factor, clamped, keeping the canvas point
// under anchor (viewport-relative) fixed on screen.
func (v ViewState) ZoomAt(anchor geometry.Point, factor float64) ViewState {
	ns := ClampScale(v.Scale * factor)
	if ns == v.Scale {
		return v
	}
	ratio := ns / v.Scale
	return ViewState{
		Pan:   anchor.Sub(anchor.Sub(v.Pan).Scale(ratio)),
		Scale: ns,
	}
}

// PanBy shifts the view by d viewport pixels.
func (v ViewState) PanBy(d geometry.Point) ViewState {
	v.Pan = v.Pan.Add(d)
	return v
}

// Viewport is the on-screen rectangle hosting the canvas. Pointer events
// arrive in screen coordinates and are made relative to Origin.
type Viewport struct {
	Origin geometry.Point
	Width  float64
	Height float64
}

// Local converts a screen point to viewport-relative coordinates.
func (vp Viewport) Local(screen geometry.Point) geometry.Point {
	return screen.Sub(vp.Origin)
}

// Center returns the viewport-relative center.
func (vp Viewport) Center() geometry.Point {
	return geometry.Pt(vp.Width/2, vp.Height/2)
}

// ScreenToCanvas maps a screen point through vp and v. The result is
// derived from the current view on every call.
func ScreenToCanvas(screen geometry.Point, vp Viewport, v ViewState) geometry.Point {
	return v.ToCanvas(vp.Local(screen))
}
