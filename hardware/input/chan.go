package input

import (
	"io"

	"github.com/kilnworks/ovenpanel/internal/types"
)

// ChanSource turns calls from window or console into presses.
type ChanSource struct {
	tag  string
	ch   chan types.ButtonEvent
	stop <-chan struct{}
}

var _ Source = new(ChanSource)

func NewChanSource(tag string, stop <-chan struct{}) *ChanSource {
	return &ChanSource{tag: tag, ch: make(chan types.ButtonEvent, 4), stop: stop}
}

func (self *ChanSource) String() string { return self.tag }

// Press is non-blocking, returns false when buffer is full.
func (self *ChanSource) Press(b types.Button) bool {
	select {
	case self.ch <- types.ButtonEvent{Source: self.tag, Button: b}:
		return true
	default:
		return false
	}
}

func (self *ChanSource) Read() (types.ButtonEvent, error) {
	select {
	case e := <-self.ch:
		return e, nil
	case <-self.stop:
		return types.ButtonEvent{}, io.EOF
	}
}
