package input

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/helpers"
	"github.com/kilnworks/ovenpanel/internal/types"
	gpio "github.com/temoto/gpio-cdev-go"
)

const GpioTag = "gpio"

// gpio line event wait, also stop check period
const gpioWaitTimeout = 200 * time.Millisecond

// GpioSource reads falling edges of button lines, pulled up, pressed is low.
type GpioSource struct {
	chip  gpio.Chiper
	lines map[types.Button]gpio.Eventer

	events chan types.ButtonEvent
	errch  chan error
	stop   <-chan struct{}
	wg     sync.WaitGroup
}

var _ Source = new(GpioSource)
var _ Poller = new(GpioSource)

func (self *GpioSource) String() string { return GpioTag }

// NewGpioSource requests falling edge events on pins, one reader goroutine per line.
func NewGpioSource(chip gpio.Chiper, pins map[types.Button]uint32, stop <-chan struct{}) (*GpioSource, error) {
	self := &GpioSource{
		chip:   chip,
		lines:  make(map[types.Button]gpio.Eventer, len(pins)),
		events: make(chan types.ButtonEvent, len(pins)),
		errch:  make(chan error, len(pins)),
		stop:   stop,
	}
	for _, b := range types.Buttons {
		line, ok := pins[b]
		if !ok {
			continue
		}
		label := fmt.Sprintf("ovenpanel-%s", b.String())
		ev, err := chip.GetLineEvent(line, 0, gpio.GPIOEVENT_REQUEST_FALLING_EDGE, label)
		if err != nil {
			err = errors.Annotatef(err, "gpio button=%s line=%d", b.String(), line)
			return nil, helpers.FoldErrors([]error{err, self.closeLines()})
		}
		self.lines[b] = ev
	}
	for b, ev := range self.lines {
		self.wg.Add(1)
		go self.waitLoop(b, ev)
	}
	return self, nil
}

func (self *GpioSource) waitLoop(b types.Button, ev gpio.Eventer) {
	defer self.wg.Done()
	for {
		select {
		case <-self.stop:
			return
		default:
		}
		_, err := ev.Wait(gpioWaitTimeout)
		if gpio.IsTimeout(err) {
			continue
		}
		if err != nil {
			select {
			case self.errch <- errors.Annotatef(err, "gpio button=%s wait", b.String()):
			default:
			}
			return
		}
		select {
		case self.events <- types.ButtonEvent{Source: GpioTag, Button: b, At: time.Now()}:
		case <-self.stop:
			return
		}
	}
}

func (self *GpioSource) Read() (types.ButtonEvent, error) {
	select {
	case e := <-self.events:
		return e, nil
	case err := <-self.errch:
		return types.ButtonEvent{}, err
	case <-self.stop:
		return types.ButtonEvent{}, io.EOF
	}
}

// Held reads line level, read error counts as not held.
func (self *GpioSource) Held(b types.Button) bool {
	ev, ok := self.lines[b]
	if !ok {
		return false
	}
	v, err := ev.Read()
	return err == nil && v == 0
}

// Close waits reader goroutines, stop must be closed before.
func (self *GpioSource) Close() error {
	self.wg.Wait()
	return helpers.FoldErrors([]error{self.closeLines(), errors.Annotate(self.chip.Close(), "gpio chip close")})
}

func (self *GpioSource) closeLines() error {
	errs := make([]error, 0, len(self.lines))
	for b, ev := range self.lines {
		if err := ev.Close(); err != nil {
			errs = append(errs, errors.Annotatef(err, "gpio button=%s close", b.String()))
		}
	}
	return helpers.FoldErrors(errs)
}
