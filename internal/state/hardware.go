package state

import (
	"sync"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/hardware/display"
	"github.com/kilnworks/ovenpanel/hardware/input"
	"github.com/kilnworks/ovenpanel/internal/oven"
	oven_config "github.com/kilnworks/ovenpanel/internal/oven/config"
	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/ui"
	"github.com/kilnworks/ovenpanel/log2"
	gpio "github.com/temoto/gpio-cdev-go"
)

const gpioConsumer = "ovenpanel"

var _ ui.Surface = new(display.Display)

type hardware struct {
	Display struct {
		once
		d *display.Display
	}
	Indicator struct {
		once
		ind display.Indicator
	}
	Gpio struct {
		once
		src *input.GpioSource
	}
	Oven struct {
		once
		oven   ui.Oven
		remote *oven.Remote
		sim    *oven.Sim
	}
	UI struct {
		once
		c *ui.Controller
	}
}

// XXX_SetDisplay replaces display before Init, test only.
func (g *Global) XXX_SetDisplay(d *display.Display) { g.Hardware.Display.d = d }

// XXX_SetOven replaces oven driver before Init, test only.
func (g *Global) XXX_SetOven(o ui.Oven) { g.Hardware.Oven.oven = o }

// Indicator is PWM when any pin is configured, mock otherwise.
func (g *Global) Indicator() (display.Indicator, error) {
	x := &g.Hardware.Indicator
	_ = x.do(func() error {
		hw := &g.Config.Hardware
		pins := display.PwmPins{
			Backlight: hw.Backlight.Pin,
			Red:       hw.LED.Red,
			Green:     hw.LED.Green,
			Blue:      hw.LED.Blue,
		}
		if pins == (display.PwmPins{}) {
			g.Log.Infof("indicator pins not configured, using mock")
			x.ind = new(display.MockIndicator)
			return nil
		}
		ind, err := display.NewPwmIndicator(pins)
		if err != nil {
			return errors.Annotatef(err, "config: hardware.backlight/led pins=%#v", pins)
		}
		x.ind = ind
		return nil
	})
	return x.ind, x.err
}

func (g *Global) Display() (*display.Display, error) {
	x := &g.Hardware.Display
	_ = x.do(func() error {
		if x.d != nil { // state-new testing mode
			return nil
		}
		ind, err := g.Indicator()
		if err != nil {
			return err
		}
		cfg := &g.Config.Hardware.Display
		switch {
		case cfg.Framebuffer != "":
			x.d, err = display.NewFb(cfg.Framebuffer, cfg.ByteOrder, ind)
			return errors.Annotatef(err, "config: hardware.display.framebuffer=%s", cfg.Framebuffer)

		default:
			size := g.Config.DisplaySize()
			g.Log.Infof("display framebuffer not configured, using memory %dx%d", size.X, size.Y)
			x.d = display.NewMock(size, ind)
			return nil
		}
	})
	return x.d, x.err
}

// GpioSource returns nil,nil when buttons are not wired to gpio.
func (g *Global) GpioSource() (*input.GpioSource, error) {
	x := &g.Hardware.Gpio
	_ = x.do(func() error {
		cfg := &g.Config.Hardware.Buttons
		if cfg.PinChip == "" {
			g.Log.Infof("input=%s disabled", input.GpioTag)
			return nil
		}
		pins := g.Config.ButtonPins()
		if len(pins) == 0 {
			return errors.NotValidf("config: hardware.buttons.pin_chip=%s without button lines", cfg.PinChip)
		}
		chip, err := gpio.Open(cfg.PinChip, gpioConsumer)
		if err != nil {
			return errors.Annotatef(err, "config: hardware.buttons.pin_chip=%s", cfg.PinChip)
		}
		x.src, err = input.NewGpioSource(chip, pins, g.Alive.StopChan())
		if err != nil {
			_ = chip.Close()
		}
		return errors.Annotatef(err, "input=%s", input.GpioTag)
	})
	return x.src, x.err
}

// Oven connects configured driver. Catalog pushes are forwarded to UI.
func (g *Global) Oven() (ui.Oven, error) {
	x := &g.Hardware.Oven
	_ = x.do(func() error {
		if x.oven != nil { // state-new testing mode
			return nil
		}
		cfg := &g.Config.Oven
		switch cfg.DriverName() {
		case oven_config.DriverMqtt:
			// Remote gets g.Log clone before SetErrorFunc, so its own errors don't recurse
			remote, err := oven.NewRemote(g.Log.Clone(log2.LInfo), cfg.Mqtt, g.updateProfiles)
			if err != nil {
				return errors.Annotate(err, "oven init")
			}
			g.Log.SetErrorFunc(remote.PublishError)
			x.remote, x.oven = remote, remote

		case oven_config.DriverSim:
			sim := oven.NewSim(g.Log.Clone(log2.LInfo), cfg.Sim)
			x.sim, x.oven = sim, sim

		default:
			return errors.NotValidf("config: oven.driver=%s", cfg.Driver)
		}
		return nil
	})
	return x.oven, x.err
}

func (g *Global) UI() (*ui.Controller, error) {
	x := &g.Hardware.UI
	_ = x.do(func() error {
		d, err := g.Display()
		if err != nil {
			return errors.Annotate(err, "ui display")
		}
		o, err := g.Oven()
		if err != nil {
			return errors.Annotate(err, "ui oven")
		}
		var poller input.Poller
		src, err := g.GpioSource()
		if err != nil {
			return errors.Annotate(err, "ui buttons")
		}
		if src != nil {
			poller = src
		}
		x.c = ui.NewController(g.Log, &g.Config.UI, o, d, poller)
		return nil
	})
	return x.c, x.err
}

func (g *Global) MustUI() *ui.Controller {
	c, err := g.UI()
	if err != nil {
		g.Fatal(err)
	}
	return c
}

// updateProfiles may be called from MQTT goroutine before UI exists.
func (g *Global) updateProfiles(c profile.Catalog) {
	ctl, err := g.UI()
	if err != nil || ctl == nil {
		g.Log.Errorf("profiles dropped, ui not ready err=%v", err)
		return
	}
	ctl.UpdateProfiles(c)
}

func (g *Global) inputSources() ([]input.Source, error) {
	sources := make([]input.Source, 0, 4)

	src, err := g.GpioSource()
	if err != nil {
		return nil, err
	} else if src != nil {
		sources = append(sources, src)
	}

	dev := &g.Config.Hardware.Input.DevInputEvent
	if !dev.Enable {
		g.Log.Infof("input=%s disabled", input.DevInputEventTag)
	} else {
		src, err := input.NewDevInputEventSource(dev.Device)
		if err != nil {
			return nil, errors.Annotatef(err, "input=%s", input.DevInputEventTag)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

type once struct {
	sync.Mutex
	called uint32 // atomic bool
	err    error
}

func (o *once) done() bool {
	return atomic.LoadUint32(&o.called) == 1
}

func (o *once) do(f func() error) error {
	if o.done() { // fast path
		return o.err
	}
	o.Lock()
	defer o.Unlock()
	if o.done() {
		return o.err
	}
	o.err = f()
	atomic.StoreUint32(&o.called, 1)
	return o.err
}
