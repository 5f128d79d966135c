package ui

import (
	"context"
	"fmt"
	"image"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/types"
	ui_config "github.com/kilnworks/ovenpanel/internal/ui/config"
)

type EditField uint8

const (
	FieldRamp EditField = iota
	FieldRampTarget
	FieldTarget
	FieldSoak
)

type editFieldInfo struct {
	title  string
	format string
}

var editFields = [...]editFieldInfo{
	FieldRamp:       {"Ramp", "%.0fC/h"},
	FieldRampTarget: {"Ramp Target", "%.0fC"},
	FieldTarget:     {"Target", "%.0fC"},
	FieldSoak:       {"Soak", "%.0fmin"},
}

func (f EditField) String() string {
	if int(f) < len(editFields) {
		return editFields[f].title
	}
	return fmt.Sprintf("EditField(%d)", f)
}

// EditScreen builds ramp-and-soak profile from operator input.
type EditScreen struct {
	host   host
	gate   *Gate
	config ui_config.EditConfig

	fields []EditField
	index  int
	values [len(editFields)]float64
}

var _ Screen = new(EditScreen)

func newEditScreen(h host, gate *Gate, config ui_config.EditConfig) *EditScreen {
	config = config.Defaults()
	self := &EditScreen{host: h, gate: gate, config: config}
	if config.Fields == 3 {
		self.fields = []EditField{FieldRamp, FieldTarget, FieldSoak}
	} else {
		self.fields = []EditField{FieldRamp, FieldRampTarget, FieldTarget, FieldSoak}
	}
	self.values[FieldRamp] = config.Ramp
	self.values[FieldRampTarget] = config.RampTarget
	self.values[FieldTarget] = config.Target
	self.values[FieldSoak] = config.Soak
	return self
}

func (self *EditScreen) Kind() ScreenKind { return ScreenEdit }

func (self *EditScreen) Fields() []EditField       { return append([]EditField(nil), self.fields...) }
func (self *EditScreen) Selected() EditField       { return self.fields[self.index] }
func (self *EditScreen) Value(f EditField) float64 { return self.values[f] }
func (self *EditScreen) Confirming() bool          { return self.gate.IsOpen() }

func (self *EditScreen) SetValue(f EditField, v float64) {
	if v < 0 {
		v = 0
	}
	self.values[f] = v
}

func (self *EditScreen) XPressed(ctx context.Context) error {
	if self.gate.IsOpen() {
		return nil
	}
	self.index++
	if self.index >= len(self.fields) {
		self.index = 0
		self.gate.Open("Confirm?", self.submit)
	}
	return nil
}

func (self *EditScreen) APressed(ctx context.Context) error {
	if self.gate.IsOpen() {
		self.index = 0
		return errors.Annotate(self.gate.Confirm(ctx), "edit confirm")
	}
	f := self.Selected()
	self.SetValue(f, self.values[f]+self.config.Step)
	return nil
}

func (self *EditScreen) BPressed(ctx context.Context) error {
	if self.gate.IsOpen() {
		self.index = 0
		self.gate.Cancel()
		return nil
	}
	f := self.Selected()
	self.SetValue(f, self.values[f]-self.config.Step)
	return nil
}

func (self *EditScreen) submit(ctx context.Context) error {
	p, err := self.Build()
	if err != nil {
		return errors.Annotate(err, "edit build")
	}
	self.host.logger().Infof("ui edit: submit %s points=%v", p.Name(), p.Points())
	return self.host.runProfile(ctx, p)
}

// Build ramp-and-soak profile from current values:
// start temperature, first ramp at configured rate, second ramp at max rate, soak.
func (self *EditScreen) Build() (profile.Profile, error) {
	t0 := self.config.FallbackTemp
	if snap, ok := self.host.lastSnapshot(); ok && snap.Temperature != nil {
		t0 = *snap.Temperature
	} else {
		self.host.logger().Infof("ui edit: no oven temperature, assume %.0fC", t0)
	}
	ramp := self.values[FieldRamp]
	rampTarget := self.values[FieldRampTarget]
	if len(self.fields) == 3 {
		rampTarget = self.config.RampTarget
	}
	target := self.values[FieldTarget]
	soak := self.values[FieldSoak]
	name := fmt.Sprintf("%.0fC-%.0fC/h-%.0fsoak", target, ramp, soak)

	if ramp <= 0 {
		return profile.Profile{}, errors.NotValidf("%s ramp=%v", name, ramp)
	}
	if self.config.MaxRamp <= 0 {
		return profile.Profile{}, errors.NotValidf("%s max_ramp=%v", name, self.config.MaxRamp)
	}
	if rampTarget < t0 {
		return profile.Profile{}, errors.NotValidf("%s ramp target=%v below current temperature=%v", name, rampTarget, t0)
	}
	if target < rampTarget {
		return profile.Profile{}, errors.NotValidf("%s target=%v below ramp target=%v", name, target, rampTarget)
	}
	t1 := (rampTarget - t0) * 3600 / ramp
	t2 := t1 + (target-rampTarget)*3600/self.config.MaxRamp
	t3 := t2 + soak*60
	return profile.New(name, []profile.Point{
		{Time: 0, Temp: t0},
		{Time: t1, Temp: rampTarget},
		{Time: t2, Temp: target},
		{Time: t3, Temp: target},
	})
}

func (self *EditScreen) Render(f *Frame) error {
	f.Clear()
	f.LED = LEDFromSnapshot(&f.Snapshot)
	f.Backlight = 1
	surf := f.Surface
	const offset = 7

	if msg, ok := self.gate.Active(f.Now); ok {
		y := offset
		for _, field := range self.fields {
			surf.Text(image.Pt(offset, y), self.summary(field), types.FontMedium, types.ColorWhite)
			y += 25
		}
		surf.Text(image.Pt(offset, offset+120), msg, types.FontLarge, types.ColorRed)
		surf.Text(image.Pt(offset, offset+160), promptYesNo, types.FontMedium, types.ColorGrey)
		return nil
	}

	size := surf.Size()
	half := image.Pt(size.X/2, size.Y/2)
	surf.FillRect(image.Rect(0, half.Y, size.X, half.Y+1), types.ColorWhite)
	surf.FillRect(image.Rect(half.X, 0, half.X+1, half.Y), types.ColorWhite)
	if len(self.fields) == 4 {
		surf.FillRect(image.Rect(half.X, half.Y, half.X+1, size.Y), types.ColorWhite)
	}
	for i, field := range self.fields {
		cell := self.cell(i, size)
		color := types.ColorWhite
		if i == self.index {
			surf.FillRect(cell, types.ColorGrey)
			color = types.ColorRed
		}
		surf.Text(cell.Min.Add(image.Pt(offset, offset)), field.String(), types.FontSmall, types.ColorWhite)
		surf.Text(cell.Min.Add(image.Pt(offset, offset+25)), fmt.Sprintf(editFields[field].format, self.values[field]), types.FontLarge, color)
	}
	return nil
}

// cell is 2x2 grid, or 2 top cells and one wide bottom cell in 3 field mode.
func (self *EditScreen) cell(i int, size image.Point) image.Rectangle {
	hx, hy := size.X/2, size.Y/2
	if len(self.fields) == 3 && i == 2 {
		return image.Rect(0, hy, size.X, size.Y)
	}
	x := (i % 2) * hx
	y := (i / 2) * hy
	return image.Rect(x, y, x+hx, y+hy)
}

func (self *EditScreen) summary(field EditField) string {
	return editFields[field].title + ": " + fmt.Sprintf(editFields[field].format, self.values[field])
}
