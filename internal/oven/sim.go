package oven

import (
	"context"
	"sync"
	"time"

	"github.com/juju/errors"
	oven_config "github.com/kilnworks/ovenpanel/internal/oven/config"
	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/types"
	"github.com/kilnworks/ovenpanel/log2"
	"github.com/temoto/alive/v2"
)

// band around target where element is off
const simTolerance = 2.0

// Sim follows profile target with limited heating and cooling rates.
// Time advances lazily on every State call and on Run ticks, scaled by Speed.
type Sim struct {
	Log    *log2.Log
	config oven_config.SimConfig
	clock  func() time.Time

	mu      sync.Mutex
	state   types.OvenState
	temp    float64
	heat    float64
	profile profile.Profile
	runtime float64
	last    time.Time
}

func NewSim(log *log2.Log, config oven_config.SimConfig) *Sim {
	config = config.Defaults()
	self := &Sim{
		Log:    log,
		config: config,
		clock:  time.Now,
		state:  types.StateIdle,
		temp:   config.Ambient,
	}
	self.last = self.clock()
	return self
}

func (self *Sim) XXX_setClock(f func() time.Time) {
	self.mu.Lock()
	self.clock = f
	self.last = f()
	self.mu.Unlock()
}

// Run advances simulation periodically until alive stops.
func (self *Sim) Run(a *alive.Alive) {
	if !a.Add(1) {
		return
	}
	defer a.Done()
	tmr := time.NewTicker(self.config.Step())
	defer tmr.Stop()
	stopch := a.StopChan()
	for {
		select {
		case <-tmr.C:
			self.mu.Lock()
			self.step()
			self.mu.Unlock()
		case <-stopch:
			return
		}
	}
}

func (self *Sim) State(ctx context.Context) (types.Snapshot, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.step()

	s := types.Snapshot{
		Temperature: types.Float(self.temp),
		Target:      types.Float(0),
		Heat:        self.heat,
		Runtime:     types.Float(0),
		TotalTime:   types.Float(0),
	}
	s.SetState(self.state)
	if self.state != types.StateIdle {
		name := self.profile.Name()
		s.Profile = &name
		s.Target = types.Float(self.profile.TargetAt(self.runtime))
		s.Runtime = types.Float(self.runtime)
		s.TotalTime = types.Float(self.profile.Duration())
	}
	return s, nil
}

func (self *Sim) RunProfile(ctx context.Context, p profile.Profile, startOffset float64) error {
	if err := p.Validate(); err != nil {
		return errors.Annotate(err, "sim run")
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	self.step()
	if self.state != types.StateIdle {
		return errors.Errorf("sim run profile=%s oven busy state=%s running=%s", p.Name(), self.state.String(), self.profile.Name())
	}
	if startOffset < 0 || startOffset > p.Duration() {
		startOffset = 0
	}
	self.Log.Infof("sim start profile=%s offset=%.0fs duration=%.0fs", p.Name(), startOffset, p.Duration())
	self.profile = p
	self.runtime = startOffset
	self.state = types.StateRunning
	return nil
}

func (self *Sim) Abort(ctx context.Context) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.step()
	if self.state != types.StateIdle {
		self.Log.Infof("sim abort profile=%s runtime=%.0fs", self.profile.Name(), self.runtime)
	}
	self.finish()
	return nil
}

// step requires mu.
func (self *Sim) step() {
	now := self.clock()
	elapsed := now.Sub(self.last).Seconds() * self.config.Speed
	self.last = now
	if elapsed <= 0 {
		return
	}

	if self.state == types.StateIdle {
		self.heat = 0
		self.approach(self.config.Ambient, elapsed)
		return
	}

	self.runtime += elapsed
	if self.runtime >= self.profile.Duration() {
		self.Log.Infof("sim finished profile=%s", self.profile.Name())
		self.finish()
		self.approach(self.config.Ambient, elapsed)
		return
	}
	target := self.profile.TargetAt(self.runtime)
	switch {
	case self.temp < target-simTolerance:
		self.heat = 1
	case self.temp > target+simTolerance:
		self.heat = 0
	}
	self.approach(target, elapsed)
}

// approach moves temperature toward t, heating only while element is on.
func (self *Sim) approach(t, elapsed float64) {
	switch {
	case self.temp < t && self.heat > 0:
		self.temp += self.config.HeatRate * elapsed
		if self.temp > t {
			self.temp = t
		}
	case self.temp > t:
		self.temp -= self.config.CoolRate * elapsed
		if self.temp < t {
			self.temp = t
		}
	}
}

func (self *Sim) finish() {
	self.state = types.StateIdle
	self.heat = 0
	self.profile = profile.Profile{}
	self.runtime = 0
}
