package state

import (
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/hardware/display/framebuffer"
	"github.com/kilnworks/ovenpanel/hardware/input"
	"github.com/kilnworks/ovenpanel/helpers"
	oven_config "github.com/kilnworks/ovenpanel/internal/oven/config"
	"github.com/kilnworks/ovenpanel/internal/types"
	ui_config "github.com/kilnworks/ovenpanel/internal/ui/config"
	"github.com/kilnworks/ovenpanel/log2"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Hardware struct {
		Display struct {
			Framebuffer string `hcl:"framebuffer"`
			ByteOrder   string `hcl:"byte_order"`
			Width       int    `hcl:"width"`
			Height      int    `hcl:"height"`
		} `hcl:"display"`
		Backlight struct {
			Pin string `hcl:"pin"`
		} `hcl:"backlight"`
		LED struct {
			Red   string `hcl:"red"`
			Green string `hcl:"green"`
			Blue  string `hcl:"blue"`
		} `hcl:"led"`
		Buttons struct { //nolint:maligned
			PinChip    string `hcl:"pin_chip"`
			DebounceMs int    `hcl:"debounce_ms"`
			// line offsets on pin_chip, 0 = not connected
			A int `hcl:"a"`
			B int `hcl:"b"`
			X int `hcl:"x"`
			Y int `hcl:"y"`
		} `hcl:"buttons"`
		Input struct {
			DevInputEvent struct {
				Enable bool   `hcl:"enable"`
				Device string `hcl:"device"`
			} `hcl:"dev_input_event"`
		} `hcl:"input"`
	} `hcl:"hardware"`

	Oven oven_config.Config `hcl:"oven"`
	UI   ui_config.Config   `hcl:"ui"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) DisplaySize() image.Point {
	d := &c.Hardware.Display
	size := image.Pt(d.Width, d.Height)
	if size.X <= 0 {
		size.X = 320
	}
	if size.Y <= 0 {
		size.Y = 240
	}
	return size
}

func (c *Config) ButtonPins() map[types.Button]uint32 {
	b := &c.Hardware.Buttons
	pins := make(map[types.Button]uint32, 4)
	for button, line := range map[types.Button]int{types.ButtonA: b.A, types.ButtonB: b.B, types.ButtonX: b.X, types.ButtonY: b.Y} {
		if line > 0 {
			pins[button] = uint32(line)
		}
	}
	return pins
}

func (c *Config) Validate() error {
	errs := []error{
		errors.Annotate(c.UI.Validate(), "config"),
		errors.Annotate(c.Oven.Validate(), "config"),
	}
	if _, err := framebuffer.ParseByteOrder(c.Hardware.Display.ByteOrder); err != nil {
		errs = append(errs, errors.Annotate(err, "config: hardware.display.byte_order"))
	}
	if ms := c.Hardware.Buttons.DebounceMs; ms < 0 {
		errs = append(errs, errors.NotValidf("config: hardware.buttons.debounce_ms=%d", ms))
	}
	return helpers.FoldErrors(errs)
}

// Debounce is passed to input router as is, router clamps it.
func (c *Config) Debounce() time.Duration {
	return helpers.IntMillisecondDefault(c.Hardware.Buttons.DebounceMs, input.DebounceDefault)
}

// Desktop removes device hardware, empty oven driver becomes sim.
func (c *Config) Desktop() {
	hw := &c.Hardware
	hw.Display.Framebuffer = ""
	hw.Backlight.Pin = ""
	hw.LED.Red, hw.LED.Green, hw.LED.Blue = "", "", ""
	hw.Buttons.PinChip = ""
	hw.Input.DevInputEvent.Enable = false
	if c.Oven.Driver == "" {
		c.Oven.Driver = oven_config.DriverSim
	}
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// ReadConfig reads names in order, later values overwrite earlier.
// First name is relative to working directory, includes are relative to its directory.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("code error ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
