package render

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/starford/flowboard/internal/canvas"
	"github.com/starford/flowboard/pkg/geometry"
)

// ErrEmpty is returned when a frame has no notes to draw.
var ErrEmpty = errors.New("render: nothing to draw")

// Options control the raster size of a rendered frame.
type Options struct {
	// Scale is the number of pixels per canvas unit.
	Scale float64
	// Padding is the margin around the notes, in pixels.
	Padding float64
	// FontSize is the note text size in points at scale 1.
	FontSize float64
}

// DefaultOptions renders at 2x with a 32px margin.
func DefaultOptions() Options {
	return Options{Scale: 2, Padding: 32, FontSize: 12}
}

var parseFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// PNG draws f and writes it to w as a PNG image.
func PNG(w io.Writer, f canvas.Frame, opts Options) error {
	dc, err := draw(f, opts)
	if err != nil {
		return err
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

// Image draws f into a new image sized to the extent of its notes.
func Image(f canvas.Frame, opts Options) (image.Image, error) {
	dc, err := draw(f, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// painter maps canvas space onto the raster.
type painter struct {
	dc     *gg.Context
	origin geometry.Point
	scale  float64
	pad    float64
}

func (p painter) pt(q geometry.Point) (float64, float64) {
	return (q.X-p.origin.X)*p.scale + p.pad, (q.Y-p.origin.Y)*p.scale + p.pad
}

func (p painter) rect(r geometry.Rect) (x, y, w, h float64) {
	x, y = p.pt(r.Min())
	return x, y, r.Width * p.scale, r.Height * p.scale
}

func draw(f canvas.Frame, opts Options) (*gg.Context, error) {
	bounds, ok := f.Bounds()
	if !ok {
		return nil, ErrEmpty
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}

	width := int(math.Ceil(bounds.Width*opts.Scale + 2*opts.Padding))
	height := int(math.Ceil(bounds.Height*opts.Scale + 2*opts.Padding))
	dc := gg.NewContext(width, height)
	dc.SetColor(parseHex(backgroundHex))
	dc.Clear()

	ttf, err := parseFont()
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    opts.FontSize * opts.Scale,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	p := painter{dc: dc, origin: bounds.Min(), scale: opts.Scale, pad: opts.Padding}

	// Edges sit behind the notes.
	for _, e := range f.Edges {
		p.edge(e)
	}
	for _, n := range f.Notes {
		p.note(n)
	}
	for _, b := range f.Promote {
		p.promote(b)
	}
	return dc, nil
}

func (p painter) edge(e canvas.EdgeView) {
	x1, y1 := p.pt(e.A)
	x2, y2 := p.pt(e.B)
	p.dc.SetColor(parseHex(edgeHex))
	p.dc.SetLineWidth(2 * p.scale)
	p.dc.DrawLine(x1, y1, x2, y2)
	p.dc.Stroke()
}

func (p painter) note(n canvas.NoteView) {
	dc := p.dc
	radius := 6 * p.scale
	x, y, w, h := p.rect(n.Bounds)

	dc.SetColor(fill(n.Color))
	dc.DrawRoundedRectangle(x, y, w, h, radius)
	dc.Fill()

	// Header band, clipped to the rounded body.
	dc.DrawRoundedRectangle(x, y, w, h, radius)
	dc.Clip()
	hx, hy, hw, hh := p.rect(n.Header)
	dc.SetColor(headerFill(n.Color))
	dc.DrawRectangle(hx, hy, hw, hh)
	dc.Fill()
	dc.ResetClip()

	border, lw := parseHex(borderHex), 1*p.scale
	if n.Selected {
		border, lw = parseHex(selectedHex), 2.5*p.scale
	}
	dc.SetColor(border)
	dc.SetLineWidth(lw)
	dc.DrawRoundedRectangle(x, y, w, h, radius)
	dc.Stroke()

	text := parseHex(textHex)
	if n.Disabled {
		text.A = 0x80
	}
	dc.SetColor(text)
	left := x + 8*p.scale
	top := hy + hh + canvas.BodyPadding/2*p.scale
	for i, line := range canvas.WrapText(n.Text) {
		dc.DrawStringAnchored(line, left, top+float64(i)*canvas.LineHeight*p.scale, 0, 1)
	}
}

func (p painter) promote(b canvas.PromoteButton) {
	x, y := p.pt(b.Pos)
	w, h := 48*p.scale, 20*p.scale
	p.dc.SetColor(parseHex(promoteHex))
	p.dc.DrawRoundedRectangle(x, y, w, h, h/2)
	p.dc.Fill()
	p.dc.SetRGB(1, 1, 1)
	p.dc.DrawStringAnchored("task", x+w/2, y+h/2, 0.5, 0.35)
}
