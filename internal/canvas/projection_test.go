package canvas

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/flowboard/pkg/geometry"
)

func TestProjectIsIdempotent(t *testing.T) {
	s := clusterScene(t)
	s.SetSelection([]string{"d"})
	snap := s.Snapshot()
	require.Equal(t, Project(snap), Project(snap))
}

func TestProjectMarksSelectionEditingAndPending(t *testing.T) {
	s := sceneWith(t, note("a", 0, 0), note("b", 300, 0))
	s.Select("a", false)
	s.MarkPending("b")
	c := newTestController()
	c.BeginEdit(s, "a")
	c.EditText(s, "one\ntwo")

	f := Project(s.Snapshot())
	require.Len(t, f.Notes, 2)
	a, b := f.Notes[0], f.Notes[1]
	require.True(t, a.Selected)
	require.True(t, a.Editing)
	require.Equal(t, "one\ntwo", a.Text)
	require.Equal(t, HeaderHeight+BodyPadding+2*LineHeight, a.Bounds.Height)
	require.True(t, b.Disabled)
	require.False(t, f.Empty)
}

func TestProjectEdgesJoinCenters(t *testing.T) {
	s := sceneWith(t, note("a", 0, 0), note("b", 300, 0))
	require.NoError(t, s.Connect("a", "b"))

	f := Project(s.Snapshot())
	require.Len(t, f.Edges, 1)
	require.Equal(t, geometry.Pt(80, 31), f.Edges[0].A)
	require.Equal(t, geometry.Pt(380, 31), f.Edges[0].B)
	require.Equal(t, geometry.Pt(230, 31), f.Edges[0].Midpoint())

	require.Len(t, f.Promote, 1)
	require.Equal(t, geometry.Pt(460-56, 62+8), f.Promote[0].Pos)
}

func TestProjectPreviewAndLasso(t *testing.T) {
	s := sceneWith(t, note("a", 0, 0))
	c := newTestController()

	c.PointerDown(s, down(1, 220, 91))
	c.PointerMove(s, down(1, 400, 400))
	f := Project(s.Snapshot())
	require.Equal(t, ModeConnecting, f.Mode)
	require.NotNil(t, f.Preview)
	require.Equal(t, geometry.Pt(160, 31), f.Preview.A)
	require.Equal(t, geometry.Pt(340, 340), f.Preview.B)
	c.PointerUp(s, down(1, 400, 400))

	c.PointerDown(s, down(1, 500, 500, ModShift))
	c.PointerMove(s, down(1, 520, 540, ModShift))
	f = Project(s.Snapshot())
	require.NotNil(t, f.Lasso)
	require.Equal(t, geometry.Rect{X: 500, Y: 500, Width: 20, Height: 40}, *f.Lasso)
	require.Nil(t, f.Preview)
}

func TestProjectEmptyScene(t *testing.T) {
	f := Project(NewScene().Snapshot())
	require.True(t, f.Empty)
	_, ok := f.Bounds()
	require.False(t, ok)
}

func TestWrapText(t *testing.T) {
	require.Equal(t, []string{""}, WrapText(""))
	require.Equal(t, []string{"Drag", "", "Drop"}, WrapText("Drag\n\nDrop"))
	require.Equal(t, []string{"abcdefghijklmnopqrst", "uv"}, WrapText("abcdefghijklmnopqrstuv"))
	require.Equal(t, 1, TextLines(""))
	require.Equal(t, 2, TextLines("ééééééééééééééééééééé"))
}
