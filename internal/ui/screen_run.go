package ui

import (
	"context"
	"fmt"
	"image"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/types"
)

// RunScreen shows oven status, browses catalog, starts and aborts firing.
type RunScreen struct {
	host     host
	gate     *Gate
	catalog  profile.Catalog
	selected profile.Profile // zero when none

	renders  int
	logEvery int
}

var _ Screen = new(RunScreen)
var _ ProfileConsumer = new(RunScreen)

func newRunScreen(h host, gate *Gate, logEvery int) *RunScreen {
	return &RunScreen{host: h, gate: gate, logEvery: logEvery}
}

func (self *RunScreen) Kind() ScreenKind { return ScreenRun }

func (self *RunScreen) Selected() (profile.Profile, bool) {
	return self.selected, !self.selected.IsZero()
}

func (self *RunScreen) UpdateProfiles(c profile.Catalog) {
	self.catalog = c
	if !self.selected.IsZero() {
		if i := c.Index(self.selected.Name()); i >= 0 {
			self.selected = c[i]
		}
	}
}

func (self *RunScreen) XPressed(ctx context.Context) error {
	log := self.host.logger()
	if self.host.wasDimmed() {
		return nil
	}
	snap, ok := self.host.lastSnapshot()
	switch {
	case !ok || snap.State == types.StateUninitialized:
		log.Infof("ui run: no oven state, ignore start/abort")
	case snap.State == types.StateIdle:
		if self.selected.IsZero() {
			log.Infof("ui run: no programme selected to start")
			return nil
		}
		p := self.selected
		self.gate.Open(fmt.Sprintf("Start %s?", p.Name()), func(ctx context.Context) error {
			log.Infof("ui run: starting %s", p.Name())
			return self.host.runProfile(ctx, p)
		})
	default:
		self.gate.Open("Abort run?", func(ctx context.Context) error {
			log.Infof("ui run: aborting")
			return self.host.abortRun(ctx)
		})
	}
	return nil
}

func (self *RunScreen) APressed(ctx context.Context) error {
	if self.host.wasDimmed() {
		return nil
	}
	if self.gate.IsOpen() {
		return errors.Annotate(self.gate.Confirm(ctx), "confirm")
	}
	self.move(-1)
	return nil
}

func (self *RunScreen) BPressed(ctx context.Context) error {
	if self.host.wasDimmed() {
		return nil
	}
	if self.gate.IsOpen() {
		self.gate.Cancel()
		return nil
	}
	self.move(+1)
	return nil
}

func (self *RunScreen) move(delta int) {
	n := len(self.catalog)
	if n == 0 {
		return
	}
	i := 0
	if !self.selected.IsZero() {
		if found := self.catalog.Index(self.selected.Name()); found >= 0 {
			i = found
		}
	}
	i = ((i+delta)%n + n) % n
	self.selected = self.catalog[i]
	self.host.logger().Debugf("ui run: select %d/%d %s", i+1, n, self.selected.Name())
}

func (self *RunScreen) Render(f *Frame) error {
	s := &f.Snapshot
	f.Clear()
	f.LED = LEDFromSnapshot(s)
	f.Backlight = 1
	if f.Dimmed {
		f.Backlight = 0
	}

	self.renders++
	if self.logEvery > 0 && self.renders%self.logEvery == 0 {
		self.host.logger().Debugf("ui run: snapshot %#v", *s)
	}

	surf := f.Surface
	if msg, ok := self.gate.Active(f.Now); ok {
		surf.Text(image.Pt(10, 60), msg, types.FontLarge, types.ColorRed)
		surf.Text(image.Pt(10, 130), promptYesNo, types.FontMedium, types.ColorWhite)
		return nil
	}

	surf.Text(image.Pt(10, 10), formatTemp(s.Temperature), types.FontHuge, types.ColorWhite)
	surf.Text(image.Pt(10, 90), "Target: "+formatTemp(s.Target), types.FontMedium, types.ColorWhite)

	name := s.ProfileName()
	if name == "" {
		name = self.selected.Name()
	}
	if name == "" {
		name = "No Programme"
	}
	surf.Text(image.Pt(10, 125), name, types.FontMedium, types.ColorMagenta)

	if s.State == types.StateUninitialized {
		surf.Text(image.Pt(10, 160), "Initialising", types.FontMedium, types.ColorWhite)
		return nil
	}
	stateText := s.StateText
	if stateText == "" {
		stateText = s.State.Wire()
	}
	surf.Text(image.Pt(10, 160), stateText, types.FontMedium, types.ColorWhite)
	if s.State == types.StateIdle {
		return nil
	}
	message, color := "", types.ColorBlue
	if left, ok := s.Remaining(); ok {
		message = "Remaining: " + FormatRemaining(left)
	}
	if s.Status != "" {
		message, color = s.Status, types.ColorRed
	}
	if message != "" {
		surf.Text(image.Pt(10, 195), message, types.FontMedium, color)
	}
	return nil
}
