package display

import (
	"image"
	"image/color"

	"github.com/kilnworks/ovenpanel/internal/types"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freesans"
)

type fontFace struct {
	font   tinyfont.Fonter
	ascent int16 // pos.Y to baseline
}

// Fonts are ASCII only, degree sign is written as plain C.
var fontFaces = [...]fontFace{
	types.FontSmall:  {&freesans.Regular9pt7b, 13},
	types.FontMedium: {&freesans.Regular12pt7b, 17},
	types.FontLarge:  {&freesans.Regular18pt7b, 25},
	types.FontHuge:   {&freesans.Bold24pt7b, 34},
}

func face(size types.FontSize) fontFace {
	if int(size) < len(fontFaces) {
		return fontFaces[size]
	}
	return fontFaces[types.FontMedium]
}

// TextWidth in pixels.
func TextWidth(s string, size types.FontSize) int {
	_, w := tinyfont.LineWidth(face(size).font, s)
	return int(w)
}

func writeText(d drivers.Displayer, pos image.Point, s string, size types.FontSize, c color.RGBA) {
	f := face(size)
	tinyfont.WriteLine(d, f.font, int16(pos.X), int16(pos.Y)+f.ascent, s, c)
}

// pixelSink adapts Display to tinygo drivers, clipping to display size.
type pixelSink struct{ d *Display }

var _ drivers.Displayer = pixelSink{}

func (p pixelSink) Size() (x, y int16) { return int16(p.d.size.X), int16(p.d.size.Y) }

func (p pixelSink) SetPixel(x, y int16, c color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < 0 || iy < 0 || ix >= p.d.size.X || iy >= p.d.size.Y {
		return
	}
	p.d.set(ix, iy, c)
}

func (p pixelSink) Display() error { return nil }
