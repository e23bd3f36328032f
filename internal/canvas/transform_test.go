package canvas

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/flowboard/pkg/geometry"
)

func TestDefaultViewMapsPanToOrigin(t *testing.T) {
	v := DefaultView()
	require.Equal(t, geometry.Pt(0, 0), v.ToCanvas(geometry.Pt(60, 60)))
	require.Equal(t, geometry.Pt(60, 60), v.ToViewport(geometry.Pt(0, 0)))
}

func TestScreenToCanvasSubtractsViewportOrigin(t *testing.T) {
	vp := Viewport{Origin: geometry.Pt(100, 50), Width: 800, Height: 600}
	v := ViewState{Pan: geometry.Pt(20, 10), Scale: 2}
	got := ScreenToCanvas(geometry.Pt(220, 160), vp, v)
	require.Equal(t, geometry.Pt(50, 50), got)
}

func TestZoomAtKeepsAnchorFixed(t *testing.T) {
	v := DefaultView()
	anchor := geometry.Pt(200, 100)
	before := v.ToCanvas(anchor)

	z := v.ZoomAt(anchor, 2)
	require.Equal(t, 2.0, z.Scale)
	require.Equal(t, geometry.Pt(-80, 20), z.Pan)

	after := z.ToCanvas(anchor)
	require.InDelta(t, before.X, after.X, 1e-9)
	require.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestZoomAtClampsScale(t *testing.T) {
	v := ViewState{Pan: geometry.Pt(0, 0), Scale: 2.4}
	require.Equal(t, ScaleMax, v.ZoomAt(geometry.Pt(10, 10), 1.1).Scale)

	v = ViewState{Pan: geometry.Pt(0, 0), Scale: 0.31}
	require.Equal(t, ScaleMin, v.ZoomAt(geometry.Pt(10, 10), 0.9).Scale)

	// Already at the limit: nothing moves.
	atMax := ViewState{Pan: geometry.Pt(5, 5), Scale: ScaleMax}
	require.Equal(t, atMax, atMax.ZoomAt(geometry.Pt(300, 300), 1.1))
}

func TestRectToCanvasNormalises(t *testing.T) {
	v := ViewState{Pan: geometry.Pt(10, 10), Scale: 2}
	r := v.RectToCanvas(geometry.Rect{X: 10, Y: 10, Width: 40, Height: 20})
	require.Equal(t, geometry.Rect{X: 0, Y: 0, Width: 20, Height: 10}, r)
}
