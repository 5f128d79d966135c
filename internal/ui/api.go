package ui

import (
	"context"
	"image"
	"image/color"

	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/types"
)

// Oven is the temperature controller service.
type Oven interface {
	// State returns fresh snapshot, never cached by the panel.
	State(ctx context.Context) (types.Snapshot, error)
	// RunProfile starts firing, startOffset seconds into the curve.
	RunProfile(ctx context.Context, p profile.Profile, startOffset float64) error
	Abort(ctx context.Context) error
}

// Surface is the pixel display with backlight and status LED.
// Only the controller touches it, under render lock.
type Surface interface {
	Size() image.Point
	FillRect(r image.Rectangle, c color.RGBA)
	// Text draws single line, pos is top-left corner.
	Text(pos image.Point, s string, size types.FontSize, c color.RGBA)
	Present() error
	SetBacklight(level float64) error
	SetLED(r, g, b float64) error
}
