package render

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/flowboard/internal/canvas"
	"github.com/starford/flowboard/internal/models"
)

func testCanvas() models.Canvas {
	return models.Canvas{
		Notes: []models.Note{
			{ID: "n1", X: 0, Y: 0, Text: "Drag", Color: models.ColorBlue},
			{ID: "n2", X: 200, Y: 0, Text: "Drop", Color: models.ColorYellow},
			{ID: "n3", X: 0, Y: 200, Text: "Zoom", Color: models.ColorYellow},
		},
		Connections: []models.Connection{{From: "n1", To: "n2"}},
	}
}

func frameOf(cv models.Canvas) canvas.Frame {
	s := canvas.NewScene()
	s.Load(cv)
	return canvas.Project(s.Snapshot())
}

func TestImageSizeFollowsNoteExtent(t *testing.T) {
	f := frameOf(testCanvas())
	bounds, ok := f.Bounds()
	require.True(t, ok)

	opts := Options{Scale: 1, Padding: 10, FontSize: 12}
	img, err := Image(f, opts)
	require.NoError(t, err)

	size := img.Bounds().Size()
	require.Equal(t, int(math.Ceil(bounds.Width+20)), size.X)
	require.Equal(t, int(math.Ceil(bounds.Height+20)), size.Y)
}

func TestImagePaintsNoteColors(t *testing.T) {
	f := frameOf(testCanvas())
	opts := Options{Scale: 1, Padding: 10, FontSize: 12}
	img, err := Image(f, opts)
	require.NoError(t, err)

	// Right end of n1's header band, away from text and border.
	hx := 10 + int(canvas.NoteWidth) - 20
	hy := 10 + int(canvas.HeaderHeight/2)
	require.Equal(t, colorOf(headerFill(models.ColorBlue)), colorOf(img.At(hx, hy)))

	// Background between the notes.
	require.Equal(t, colorOf(parseHex(backgroundHex)), colorOf(img.At(10+int(canvas.NoteWidth)+20, 10+150)))
}

func TestPNGEncodes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, frameOf(testCanvas()), DefaultOptions()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Greater(t, img.Bounds().Dx(), 0)
}

func TestEmptyFrame(t *testing.T) {
	_, err := Image(frameOf(models.Canvas{}), DefaultOptions())
	require.True(t, errors.Is(err, ErrEmpty))
}

func TestHex(t *testing.T) {
	require.Equal(t, "#b8dcff", Hex(models.ColorBlue))
	require.Equal(t, Hex(models.DefaultColor), Hex("purple"))
	require.Equal(t, color.RGBA{R: 0xb8, G: 0xdc, B: 0xff, A: 0xff}, parseHex("#B8DCFF"))
}

func TestSummary(t *testing.T) {
	out := Summary("alpha", testCanvas())
	require.Contains(t, out, "alpha")
	require.Contains(t, out, "3 notes · 1 connection · 1 cluster")
	require.Contains(t, out, "Drag")
	require.Contains(t, out, "n1, n2")

	empty := Summary("beta", models.Canvas{})
	require.Contains(t, empty, "0 notes")
	require.Contains(t, empty, "empty canvas")
}

func TestFirstLine(t *testing.T) {
	require.Equal(t, "Drag", firstLine("  Drag\nmore"))
	long := strings.Repeat("x", 60)
	require.Equal(t, maxSummaryText, len([]rune(firstLine(long))))
}

func colorOf(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
