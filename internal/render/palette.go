// Package render draws canvas frames as PNG images and summarises
// canvases for the terminal.
package render

import (
	"image/color"

	"github.com/starford/flowboard/internal/models"
)

// Hex colors of the note palette.
var palette = map[models.Color]string{
	models.ColorYellow: "#fff3a3",
	models.ColorBlue:   "#b8dcff",
	models.ColorGreen:  "#c3f0c2",
	models.ColorRed:    "#ffc1c1",
	models.ColorTeal:   "#b2ece6",
}

const (
	backgroundHex = "#f7f6f2"
	edgeHex       = "#8a8a8a"
	borderHex     = "#5b5b5b"
	selectedHex   = "#2f6fdb"
	textHex       = "#222222"
	promoteHex    = "#2f6fdb"
)

// Hex returns the palette entry of c, falling back to the default color.
func Hex(c models.Color) string {
	if h, ok := palette[c]; ok {
		return h
	}
	return palette[models.DefaultColor]
}

// parseHex decodes "#rrggbb".
func parseHex(h string) color.RGBA {
	var c color.RGBA
	c.A = 0xff
	if len(h) != 7 || h[0] != '#' {
		return c
	}
	c.R = hexByte(h[1], h[2])
	c.G = hexByte(h[3], h[4])
	c.B = hexByte(h[5], h[6])
	return c
}

func hexByte(hi, lo byte) byte {
	return nibble(hi)<<4 | nibble(lo)
}

func nibble(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

// fill is the body color of a note.
func fill(c models.Color) color.RGBA {
	return parseHex(Hex(c))
}

// headerFill is the header band color: the body color darkened by 12%.
func headerFill(c models.Color) color.RGBA {
	f := fill(c)
	return color.RGBA{R: shade(f.R), G: shade(f.G), B: shade(f.B), A: 0xff}
}

func shade(v uint8) uint8 {
	return uint8(float64(v) * 0.88)
}
