package ui

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/kilnworks/ovenpanel/hardware/display"
	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/types"
	ui_config "github.com/kilnworks/ovenpanel/internal/ui/config"
	"github.com/kilnworks/ovenpanel/log2"
	"github.com/stretchr/testify/require"
)

type runCall struct {
	profile profile.Profile
	offset  float64
}

type fakeOven struct {
	mu       sync.Mutex
	snap     types.Snapshot
	stateErr error
	runErr   error
	runs     []runCall
	aborts   int
}

var _ Oven = new(fakeOven)

func (self *fakeOven) State(ctx context.Context) (types.Snapshot, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.snap, self.stateErr
}

func (self *fakeOven) RunProfile(ctx context.Context, p profile.Profile, startOffset float64) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.runErr != nil {
		return self.runErr
	}
	self.runs = append(self.runs, runCall{p, startOffset})
	return nil
}

func (self *fakeOven) Abort(ctx context.Context) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.aborts++
	return nil
}

func (self *fakeOven) set(f func(s *types.Snapshot)) {
	self.mu.Lock()
	f(&self.snap)
	self.mu.Unlock()
}

func (self *fakeOven) Runs() []runCall {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]runCall(nil), self.runs...)
}

func (self *fakeOven) Aborts() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.aborts
}

func idleSnapshot(temp float64) types.Snapshot {
	s := types.Snapshot{Temperature: types.Float(temp), Target: types.Float(0)}
	s.SetState(types.StateIdle)
	return s
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (self *fakeClock) Now() time.Time {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.t
}

func (self *fakeClock) Advance(d time.Duration) {
	self.mu.Lock()
	self.t = self.t.Add(d)
	self.mu.Unlock()
}

type mapPoller struct {
	mu   sync.Mutex
	held map[types.Button]bool
}

func (self *mapPoller) Held(b types.Button) bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.held[b]
}

type testEnv struct {
	c       *Controller
	oven    *fakeOven
	display *display.Display
	clock   *fakeClock
}

func newTestEnv(t testing.TB, config ui_config.Config, poller *mapPoller) *testEnv {
	env := &testEnv{
		oven:    &fakeOven{snap: idleSnapshot(20)},
		display: display.NewMock(image.Pt(320, 240), nil),
		clock:   &fakeClock{t: time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)},
	}
	log := log2.NewTest(t, log2.LDebug)
	if poller == nil {
		env.c = NewController(log, &config, env.oven, env.display, nil)
	} else {
		env.c = NewController(log, &config, env.oven, env.display, poller)
	}
	env.c.XXX_setClock(env.clock.Now)
	return env
}

func (self *testEnv) press(t testing.TB, bs ...types.Button) {
	for _, b := range bs {
		require.NoError(t, self.c.Dispatch(context.Background(), b), b.String())
	}
}

func (self *testEnv) run() *RunScreen   { return self.c.Screens()[0].(*RunScreen) }
func (self *testEnv) edit() *EditScreen { return self.c.Screens()[1].(*EditScreen) }

func mustProfile(t testing.TB, name string, points ...profile.Point) profile.Profile {
	if len(points) == 0 {
		points = []profile.Point{{Time: 0, Temp: 20}, {Time: 3600, Temp: 1000}}
	}
	p, err := profile.New(name, points)
	require.NoError(t, err)
	return p
}

func catalogABC(t testing.TB) profile.Catalog {
	return profile.Catalog{mustProfile(t, "A"), mustProfile(t, "B"), mustProfile(t, "C")}
}
