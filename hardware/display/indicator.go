package display

import (
	"fmt"
	"sync"

	"github.com/juju/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

const pwmFrequency = 1 * physic.KiloHertz

type PwmPins struct {
	Backlight string
	Red       string
	Green     string
	Blue      string
}

// PwmIndicator drives backlight and RGB LED pins with periph PWM.
// Pins without PWM support fall back to on/off at 0.5 threshold. Empty pin name is skipped.
type PwmIndicator struct {
	backlight gpio.PinIO
	rgb       [3]gpio.PinIO
}

var _ Indicator = new(PwmIndicator)

func NewPwmIndicator(pins PwmPins) (*PwmIndicator, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph/init")
	}
	self := &PwmIndicator{}
	var err error
	if self.backlight, err = pinByName(pins.Backlight); err != nil {
		return nil, errors.Annotate(err, "backlight")
	}
	for i, name := range [3]string{pins.Red, pins.Green, pins.Blue} {
		if self.rgb[i], err = pinByName(name); err != nil {
			return nil, errors.Annotatef(err, "led[%d]", i)
		}
	}
	return self, nil
}

func pinByName(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.NotFoundf("gpio pin=%s", name)
	}
	return p, nil
}

func (self *PwmIndicator) SetBacklight(level float64) error {
	return errors.Annotate(setLevel(self.backlight, level), "backlight")
}

func (self *PwmIndicator) SetLED(r, g, b float64) error {
	for i, v := range [3]float64{r, g, b} {
		if err := setLevel(self.rgb[i], v); err != nil {
			return errors.Annotatef(err, "led[%d]", i)
		}
	}
	return nil
}

func (self *PwmIndicator) Close() error {
	for _, p := range append([]gpio.PinIO{self.backlight}, self.rgb[:]...) {
		if p != nil {
			_ = p.Halt()
		}
	}
	return nil
}

func setLevel(p gpio.PinIO, level float64) error {
	if p == nil {
		return nil
	}
	switch {
	case level <= 0:
		return p.Out(gpio.Low)
	case level >= 1:
		return p.Out(gpio.High)
	}
	duty := gpio.Duty(level * float64(gpio.DutyMax))
	if err := p.PWM(duty, pwmFrequency); err != nil {
		return p.Out(level >= 0.5)
	}
	return nil
}

// MockIndicator remembers last values.
type MockIndicator struct {
	mu        sync.Mutex
	backlight float64
	led       [3]float64
	Err       error
}

var _ Indicator = new(MockIndicator)

func (self *MockIndicator) SetBacklight(level float64) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.backlight = level
	return self.Err
}

func (self *MockIndicator) SetLED(r, g, b float64) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.led = [3]float64{r, g, b}
	return self.Err
}

func (self *MockIndicator) String() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return fmt.Sprintf("backlight=%.2f led=%.1f,%.1f,%.1f", self.backlight, self.led[0], self.led[1], self.led[2])
}
