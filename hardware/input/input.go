// Buttons from hardware sources to panel controller.
package input

import (
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/helpers"
	"github.com/kilnworks/ovenpanel/internal/types"
	"github.com/kilnworks/ovenpanel/log2"
)

const (
	DebounceMin     = 100 * time.Millisecond
	DebounceMax     = 500 * time.Millisecond
	DebounceDefault = DebounceMax
)

func Drain(ch <-chan types.ButtonEvent) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// Source produces raw press events, may bounce.
type Source interface {
	Read() (types.ButtonEvent, error)
	String() string
}

// Poller reads current button level, true while physically held.
type Poller interface {
	Held(types.Button) bool
}

// Router debounces presses from all sources and forwards them to one consumer.
// Router never blocks on consumer: when out is full the press is dropped.
type Router struct {
	Log *log2.Log

	debounce time.Duration
	clock    func() time.Time
	bus      chan types.ButtonEvent
	out      chan<- types.ButtonEvent
	stop     <-chan struct{}

	mu   sync.Mutex
	last map[types.Button]time.Time
}

func NewRouter(log *log2.Log, out chan<- types.ButtonEvent, debounce time.Duration, stop <-chan struct{}) *Router {
	if debounce == 0 {
		debounce = DebounceDefault
	}
	return &Router{
		Log:      log,
		debounce: helpers.ClampDuration(debounce, DebounceMin, DebounceMax),
		clock:    time.Now,
		bus:      make(chan types.ButtonEvent, 8),
		out:      out,
		stop:     stop,
		last:     make(map[types.Button]time.Time, len(types.Buttons)),
	}
}

func (self *Router) Debounce() time.Duration { return self.debounce }

// Run reads all sources until stop.
func (self *Router) Run(sources []Source) {
	for _, source := range sources {
		go self.readSource(source)
	}

	for {
		select {
		case event := <-self.bus:
			self.forward(event)

		case <-self.stop:
			Drain(self.bus)
			return
		}
	}
}

// Emit delivers raw press, blocks until router accepts it or stops.
func (self *Router) Emit(event types.ButtonEvent) {
	select {
	case self.bus <- event:
	case <-self.stop:
	}
}

func (self *Router) forward(event types.ButtonEvent) {
	if event.IsZero() {
		return
	}
	if !self.accept(event.Button, self.clock()) {
		self.Log.Debugf("input bounce %s", event.String())
		return
	}
	if event.At.IsZero() {
		event.At = self.clock()
	}
	select {
	case self.out <- event:
		self.Log.Debugf("input %s", event.String())
	default:
		self.Log.Errorf("input consumer busy, dropped %s", event.String())
	}
}

// accept reports whether press at now starts a new debounce window for b.
func (self *Router) accept(b types.Button, now time.Time) bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	if last, ok := self.last[b]; ok && now.Sub(last) < self.debounce {
		return false
	}
	self.last[b] = now
	return true
}

func (self *Router) readSource(source Source) {
	tag := source.String()
	for {
		event, err := source.Read()
		if err != nil {
			select {
			case <-self.stop:
				return
			default:
			}
			err = errors.Annotatef(err, "input source=%s stopped", tag)
			self.Log.Error(err)
			return
		}
		if event.Source == "" {
			event.Source = tag
		}
		self.Emit(event)
	}
}
