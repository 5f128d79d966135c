package ui

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/hardware/input"
	"github.com/kilnworks/ovenpanel/helpers"
	"github.com/kilnworks/ovenpanel/helpers/atomic_clock"
	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/types"
	ui_config "github.com/kilnworks/ovenpanel/internal/ui/config"
	"github.com/kilnworks/ovenpanel/log2"
	"github.com/temoto/alive/v2"
)

const inboxSize = 16

type Cycle uint8

const (
	CycleInvalid Cycle = iota
	CycleButton
	CycleProfiles
	CycleTick
	CycleStop
)

func (c Cycle) String() string {
	switch c {
	case CycleButton:
		return "button"
	case CycleProfiles:
		return "profiles"
	case CycleTick:
		return "tick"
	case CycleStop:
		return "stop"
	}
	return "invalid"
}

// Controller owns screens and display surface.
// All screen mutation and drawing happens under mu, in production only from Run goroutine.
type Controller struct {
	Log *log2.Log

	config  *ui_config.Config
	oven    Oven
	surface Surface
	poller  input.Poller
	clock   func() time.Time

	inbox     chan types.ButtonEvent
	profilech chan profile.Catalog

	mu          sync.Mutex
	screens     []Screen
	index       int
	last        types.Snapshot
	haveLast    bool
	dimmed      bool // as of last render
	pressDimmed bool

	lastInteraction atomic_clock.Clock

	XXX_testHook func(Cycle)
}

var _ host = new(Controller)

// NewController creates run and edit screens. poller may be nil.
func NewController(log *log2.Log, config *ui_config.Config, oven Oven, surface Surface, poller input.Poller) *Controller {
	self := &Controller{
		Log:       log,
		config:    config,
		oven:      oven,
		surface:   surface,
		poller:    poller,
		clock:     time.Now,
		inbox:     make(chan types.ButtonEvent, inboxSize),
		profilech: make(chan profile.Catalog, 1),
	}
	self.lastInteraction.SetTime(self.clock())
	self.screens = []Screen{
		newRunScreen(self, self.newGate(), config.SnapshotLogPeriod()),
		newEditScreen(self, self.newGate(), config.Edit),
	}
	return self
}

func (self *Controller) newGate() *Gate {
	return NewGate(self.config.ConfirmTimeout(), func() time.Time { return self.clock() })
}

// XXX_setClock replaces time source, call before Run.
func (self *Controller) XXX_setClock(f func() time.Time) {
	self.mu.Lock()
	self.clock = f
	self.lastInteraction.SetTime(f())
	self.mu.Unlock()
}

// Inbox is where button router delivers presses.
func (self *Controller) Inbox() chan<- types.ButtonEvent { return self.inbox }

// Press enqueues button from any goroutine. Returns false if inbox is full.
func (self *Controller) Press(source string, b types.Button) bool {
	e := types.ButtonEvent{Source: source, Button: b, At: self.clock()}
	select {
	case self.inbox <- e:
		return true
	default:
		self.Log.Errorf("ui inbox full, dropped %s", e.String())
		return false
	}
}

// UpdateProfiles enqueues catalog replacement, newest wins.
func (self *Controller) UpdateProfiles(c profile.Catalog) {
	for {
		select {
		case self.profilech <- c:
			return
		default:
		}
		select {
		case <-self.profilech:
		default:
		}
	}
}

func (self *Controller) LastInteraction() time.Time { return self.lastInteraction.Time() }

func (self *Controller) Index() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.index
}

func (self *Controller) Active() Screen {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.screens[self.index]
}

func (self *Controller) Screens() []Screen { return append([]Screen(nil), self.screens...) }

func (self *Controller) Dimmed() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.dimmed
}

// Dispatch handles one logical press and renders.
func (self *Controller) Dispatch(ctx context.Context, b types.Button) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	err := self.press(ctx, b)
	if rerr := self.render(ctx); rerr != nil {
		return helpers.FoldErrors([]error{err, rerr})
	}
	return err
}

// Render draws active screen with fresh oven snapshot.
func (self *Controller) Render(ctx context.Context) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.render(ctx)
}

// Splash is drawn once before first oven snapshot.
func (self *Controller) Splash() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.surface.FillRect(image.Rectangle{Max: self.surface.Size()}, types.ColorBlack)
	self.surface.Text(image.Pt(25, 25), "Initialising...", types.FontMedium, types.ColorWhite)
	errs := []error{
		errors.Annotate(self.surface.Present(), "present"),
		errors.Annotate(self.surface.SetBacklight(1), "backlight"),
		errors.Annotate(self.surface.SetLED(0, 0, 0), "led"),
	}
	return errors.Annotate(helpers.FoldErrors(errs), "ui splash")
}

// Run is the single consumer loop of presses, catalog updates and ticks.
func (self *Controller) Run(ctx context.Context, a *alive.Alive) {
	if !a.Add(1) {
		return
	}
	defer a.Done()
	tmr := time.NewTicker(self.config.Tick())
	defer tmr.Stop()
	stopch := a.StopChan()

	for a.IsRunning() {
		var cycle Cycle
		var err error
		select {
		case e := <-self.inbox:
			cycle = CycleButton
			self.Log.Debugf("ui %s", e.String())
			err = self.Dispatch(ctx, e.Button)

		case c := <-self.profilech:
			cycle = CycleProfiles
			self.applyProfiles(c)

		case <-tmr.C:
			cycle = CycleTick
			err = self.tick(ctx)

		case <-stopch:
			cycle = CycleStop

		case <-ctx.Done():
			cycle = CycleStop
			a.Stop()
		}
		if err != nil {
			self.Log.Error(errors.Annotatef(err, "ui cycle=%s", cycle.String()))
		}
		if self.XXX_testHook != nil {
			self.XXX_testHook(cycle)
		}
	}
	self.Log.Debugf("ui loop end")
}

// tick polls held buttons when no press arrived recently, then renders.
func (self *Controller) tick(ctx context.Context) error {
	held := make([]types.Button, 0, len(types.Buttons))
	if self.poller != nil && self.clock().Sub(self.LastInteraction()) > self.config.PollQuiet() {
		for _, b := range types.Buttons {
			if self.poller.Held(b) {
				held = append(held, b)
			}
		}
	}

	self.mu.Lock()
	defer self.mu.Unlock()
	errs := make([]error, 0, len(held)+1)
	for _, b := range held {
		self.Log.Debugf("ui poll held=%s", b.String())
		errs = append(errs, self.press(ctx, b))
	}
	errs = append(errs, self.render(ctx))
	return helpers.FoldErrors(errs)
}

func (self *Controller) applyProfiles(c profile.Catalog) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.Log.Infof("ui profiles=%v", c.Names())
	for _, s := range self.screens {
		if pc, ok := s.(ProfileConsumer); ok {
			pc.UpdateProfiles(c)
		}
	}
}

// press requires mu.
func (self *Controller) press(ctx context.Context, b types.Button) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = helpers.RecoverError(r, "ui press "+b.String())
		}
	}()
	self.pressDimmed = self.dimmed
	self.lastInteraction.SetTime(self.clock())

	screen := self.screens[self.index]
	switch b {
	case types.ButtonY:
		self.advanceScreen()
		return nil
	case types.ButtonX:
		err = screen.XPressed(ctx)
	case types.ButtonA:
		err = screen.APressed(ctx)
	case types.ButtonB:
		err = screen.BPressed(ctx)
	default:
		return errors.NotValidf("button=%s", b.String())
	}
	return errors.Annotatef(err, "screen=%s button=%s", screen.Kind().String(), b.String())
}

func (self *Controller) advanceScreen() {
	self.index = (self.index + 1) % len(self.screens)
}

// render requires mu.
func (self *Controller) render(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = helpers.RecoverError(r, "ui render")
		}
	}()
	errs := make([]error, 0, 4)
	snap, serr := self.oven.State(ctx)
	if serr != nil {
		errs = append(errs, errors.Annotate(serr, "oven state"))
		snap = types.Snapshot{}
	} else {
		self.last, self.haveLast = snap, true
	}

	now := self.clock()
	self.dimmed = self.dimmedAt(now, snap.State)
	f := Frame{
		Surface:   self.surface,
		Snapshot:  snap,
		Now:       now,
		Dimmed:    self.dimmed,
		Backlight: 1,
	}
	screen := self.screens[self.index]
	if rerr := screen.Render(&f); rerr != nil {
		errs = append(errs, errors.Annotatef(rerr, "screen=%s render", screen.Kind().String()))
	}
	errs = append(errs,
		errors.Annotate(self.surface.Present(), "present"),
		errors.Annotate(self.surface.SetBacklight(f.Backlight), "backlight"),
		errors.Annotate(self.surface.SetLED(f.LED.R, f.LED.G, f.LED.B), "led"),
	)
	return helpers.FoldErrors(errs)
}

func (self *Controller) dimmedAt(now time.Time, state types.OvenState) bool {
	if now.Sub(self.LastInteraction()) <= self.config.DisplayTimeout() {
		return false
	}
	switch self.config.Dim() {
	case ui_config.DimPolicyRunning:
		return state != types.StateIdle
	default:
		return state == types.StateIdle
	}
}

// runProfile requires mu.
func (self *Controller) runProfile(ctx context.Context, p profile.Profile) error {
	if err := p.Validate(); err != nil {
		return errors.Annotate(err, "run profile")
	}
	offset := 0.0
	if self.haveLast && self.last.Temperature != nil {
		offset = p.StartOffset(*self.last.Temperature)
		if offset > 0 {
			self.Log.Infof("ui run profile=%s shifted start to %.0fs", p.Name(), offset)
		}
	}
	if err := self.oven.RunProfile(ctx, p, offset); err != nil {
		return errors.Annotatef(err, "run profile=%s", p.Name())
	}
	self.index = 0
	return nil
}

func (self *Controller) abortRun(ctx context.Context) error {
	return errors.Annotate(self.oven.Abort(ctx), "abort run")
}

func (self *Controller) wasDimmed() bool                      { return self.pressDimmed }
func (self *Controller) lastSnapshot() (types.Snapshot, bool) { return self.last, self.haveLast }
func (self *Controller) now() time.Time                       { return self.clock() }
func (self *Controller) logger() *log2.Log                    { return self.Log }
