package types

import "image/color"

// FontSize is a class, actual glyph size is up to display.
type FontSize uint8

const (
	FontSmall FontSize = iota
	FontMedium
	FontLarge
	FontHuge
)

func (f FontSize) String() string {
	switch f {
	case FontSmall:
		return "small"
	case FontMedium:
		return "medium"
	case FontLarge:
		return "large"
	case FontHuge:
		return "huge"
	}
	return "font?"
}

var (
	ColorBlack   = color.RGBA{0, 0, 0, 0xff}
	ColorWhite   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ColorRed     = color.RGBA{0xff, 0, 0, 0xff}
	ColorGreen   = color.RGBA{0, 0xff, 0, 0xff}
	ColorBlue    = color.RGBA{0x40, 0x80, 0xff, 0xff}
	ColorMagenta = color.RGBA{0xff, 0, 0xff, 0xff}
	ColorGrey    = color.RGBA{0x60, 0x60, 0x60, 0xff}
	ColorYellow  = color.RGBA{0xff, 0xd0, 0, 0xff}
)
