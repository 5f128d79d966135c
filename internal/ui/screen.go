package ui

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/types"
	"github.com/kilnworks/ovenpanel/log2"
)

type ScreenKind uint8

const (
	ScreenInvalid ScreenKind = iota
	ScreenRun
	ScreenEdit
)

func (k ScreenKind) String() string {
	switch k {
	case ScreenRun:
		return "Run"
	case ScreenEdit:
		return "Edit"
	}
	return fmt.Sprintf("ScreenKind(%d)", k)
}

// Screen receives X/A/B presses and draws itself. Y belongs to controller.
type Screen interface {
	Kind() ScreenKind
	XPressed(ctx context.Context) error
	APressed(ctx context.Context) error
	BPressed(ctx context.Context) error
	Render(f *Frame) error
}

// ProfileConsumer is implemented by screens interested in catalog updates.
type ProfileConsumer interface {
	UpdateProfiles(c profile.Catalog)
}

// host is the controller side of screens, called with render lock held.
type host interface {
	runProfile(ctx context.Context, p profile.Profile) error
	abortRun(ctx context.Context) error
	// dimmed as of render before current press
	wasDimmed() bool
	// last successfully read snapshot
	lastSnapshot() (types.Snapshot, bool)
	now() time.Time
	logger() *log2.Log
}

type LED struct{ R, G, B float64 }

var (
	LEDOff  = LED{}
	LEDHeat = LED{R: 1}
	LEDCool = LED{B: 1}
)

// LEDFromSnapshot: off when idle or unknown, red while heating, blue otherwise.
func LEDFromSnapshot(s *types.Snapshot) LED {
	switch {
	case s.State == types.StateUninitialized || s.State == types.StateIdle:
		return LEDOff
	case s.Heat > 0:
		return LEDHeat
	default:
		return LEDCool
	}
}

// Frame is one render pass. Screen may change Backlight and LED.
type Frame struct {
	Surface  Surface
	Snapshot types.Snapshot
	Now      time.Time
	Dimmed   bool

	Backlight float64
	LED       LED
}

func (self *Frame) Clear() {
	self.Surface.FillRect(image.Rectangle{Max: self.Surface.Size()}, types.ColorBlack)
}

// FormatRemaining formats seconds as HH:MM:SS, rounded to whole seconds.
func FormatRemaining(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	total := int64(math.Round(sec))
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func formatTemp(t *float64) string {
	if t == nil {
		return "---C"
	}
	return fmt.Sprintf("%.0fC", *t)
}

const promptYesNo = "A = Yes, B = No"
