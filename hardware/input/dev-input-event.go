package input

import (
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/internal/types"
	"github.com/temoto/inputevent-go"
)

const DevInputEventTag = "dev-input-event"

// linux/input-event-codes.h
const (
	evKey = 0x01

	keyTab   = 15
	keyY     = 21
	keyEnter = 28
	keyA     = 30
	keyX     = 45
	keyB     = 48
	keyUp    = 103
	keyRight = 106
	keyDown  = 108
)

var devInputKeymap = map[uint16]types.Button{
	keyA: types.ButtonA, keyUp: types.ButtonA,
	keyB: types.ButtonB, keyDown: types.ButtonB,
	keyX: types.ButtonX, keyEnter: types.ButtonX,
	keyY: types.ButtonY, keyTab: types.ButtonY, keyRight: types.ButtonY,
}

// DevInputEventSource reads USB keypad, key down is press, other keys ignored.
type DevInputEventSource struct {
	f io.ReadCloser
}

// compile-time interface compliance test
var _ Source = new(DevInputEventSource)

func (self *DevInputEventSource) String() string { return DevInputEventTag }

func NewDevInputEventSource(device string) (*DevInputEventSource, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Annotatef(err, "%s open", DevInputEventTag)
	}
	return &DevInputEventSource{f: f}, nil
}

func newDevInputEventReader(r io.ReadCloser) *DevInputEventSource {
	return &DevInputEventSource{f: r}
}

func (self *DevInputEventSource) Close() error { return self.f.Close() }

func (self *DevInputEventSource) Read() (types.ButtonEvent, error) {
	for {
		ie, err := inputevent.ReadOne(self.f)
		if err != nil {
			return types.ButtonEvent{}, err
		}
		if ie.Type != evKey || ie.Value != int32(inputevent.KeyStateDown) {
			continue
		}
		if b, ok := devInputKeymap[ie.Code]; ok {
			return types.ButtonEvent{Source: DevInputEventTag, Button: b}, nil
		}
	}
}
