package ui

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/types"
	ui_config "github.com/kilnworks/ovenpanel/internal/ui/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
)

func TestScreenIndexWrap(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	require.Len(t, env.c.Screens(), 2)
	assert.Equal(t, ScreenRun, env.c.Active().Kind())
	env.press(t, types.ButtonY)
	assert.Equal(t, ScreenEdit, env.c.Active().Kind())
	env.press(t, types.ButtonY)
	assert.Equal(t, 0, env.c.Index())
}

func TestDispatchUpdatesInteraction(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	env.clock.Advance(5 * time.Second)
	env.press(t, types.ButtonB)
	assert.WithinDuration(t, env.clock.Now(), env.c.LastInteraction(), 0)
}

func TestDispatchInvalidButton(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	err := env.c.Dispatch(context.Background(), types.ButtonInvalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid")
}

func TestDimming(t *testing.T) {
	t.Parallel()

	type Case struct {
		name   string
		policy string
		state  types.OvenState
		idle   time.Duration
		expect bool
	}
	cases := []Case{
		{"idle-recent", "", types.StateIdle, 60 * time.Second, false},
		{"idle-timeout", "", types.StateIdle, 121 * time.Second, true},
		{"running-timeout", "", types.StateRunning, 121 * time.Second, false},
		{"uninitialized-timeout", "", types.StateUninitialized, 121 * time.Second, false},
		{"policy-running/idle", ui_config.DimPolicyRunning, types.StateIdle, 121 * time.Second, false},
		{"policy-running/running", ui_config.DimPolicyRunning, types.StateRunning, 121 * time.Second, true},
		{"policy-running/recent", ui_config.DimPolicyRunning, types.StateRunning, 119 * time.Second, false},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, ui_config.Config{DimPolicy: c.policy}, nil)
			env.oven.set(func(s *types.Snapshot) { s.SetState(c.state) })
			env.clock.Advance(c.idle)
			require.NoError(t, env.c.Render(context.Background()))
			assert.Equal(t, c.expect, env.c.Dimmed())
			if c.expect {
				assert.Equal(t, 0.0, env.display.Backlight())
			} else {
				assert.Equal(t, 1.0, env.display.Backlight())
			}
		})
	}
}

func TestDimmedPressOnlyWakes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	env.c.UpdateProfiles(catalogABC(t))
	env.c.applyProfiles(<-env.c.profilech)
	env.clock.Advance(121 * time.Second)
	require.NoError(t, env.c.Render(context.Background()))
	require.True(t, env.c.Dimmed())

	env.press(t, types.ButtonB)
	_, ok := env.run().Selected()
	assert.False(t, ok, "press while dimmed must not navigate")
	assert.False(t, env.c.Dimmed())
	assert.Equal(t, 1.0, env.display.Backlight())

	env.press(t, types.ButtonB)
	p, ok := env.run().Selected()
	require.True(t, ok)
	assert.Equal(t, "B", p.Name(), "next from none starts at position 0")
}

func TestRunProfileOffset(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	env.oven.set(func(s *types.Snapshot) { *s = idleSnapshot(270) })
	require.NoError(t, env.c.Render(context.Background()))
	env.press(t, types.ButtonY)
	require.Equal(t, 1, env.c.Index())

	p := mustProfile(t, "offset",
		profile.Point{Time: 0, Temp: 20}, profile.Point{Time: 1000, Temp: 520}, profile.Point{Time: 2000, Temp: 520})
	env.c.mu.Lock()
	err := env.c.runProfile(context.Background(), p)
	env.c.mu.Unlock()
	require.NoError(t, err)
	runs := env.oven.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "offset", runs[0].profile.Name())
	assert.Equal(t, 500.0, runs[0].offset)
	assert.Equal(t, 0, env.c.Index(), "run forces run screen")
}

func TestRunProfileError(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	env.oven.runErr = errors.New("oven busy")
	env.press(t, types.ButtonY)
	env.c.mu.Lock()
	err := env.c.runProfile(context.Background(), mustProfile(t, "p"))
	env.c.mu.Unlock()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oven busy")
	assert.Equal(t, 1, env.c.Index())

	env.c.mu.Lock()
	err = env.c.runProfile(context.Background(), profile.Profile{})
	env.c.mu.Unlock()
	assert.True(t, errors.IsNotValid(errors.Cause(err)), errors.ErrorStack(err))
}

func TestRenderOvenError(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	env.oven.stateErr = errors.New("connection refused")
	err := env.c.Render(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, []string{"---C", "Target: ---C", "No Programme", "Initialising"}, env.display.Lines())
}

func TestSplash(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	require.NoError(t, env.c.Splash())
	assert.Equal(t, []string{"Initialising..."}, env.display.Lines())
	r, g, b := env.display.LED()
	assert.Equal(t, [3]float64{0, 0, 0}, [3]float64{r, g, b})
}

func TestUpdateProfilesNewestWins(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	env.c.UpdateProfiles(profile.Catalog{mustProfile(t, "old")})
	env.c.UpdateProfiles(catalogABC(t))
	c := <-env.c.profilech
	assert.Equal(t, []string{"A", "B", "C"}, c.Names())
	select {
	case <-env.c.profilech:
		t.Fatal("expected single pending catalog")
	default:
	}
}

func TestPollOrder(t *testing.T) {
	t.Parallel()
	poller := &mapPoller{held: map[types.Button]bool{types.ButtonY: true, types.ButtonB: true}}
	env := newTestEnv(t, ui_config.Config{}, poller)
	env.c.UpdateProfiles(catalogABC(t))
	env.c.applyProfiles(<-env.c.profilech)

	// recent interaction, no poll
	require.NoError(t, env.c.tick(context.Background()))
	assert.Equal(t, 0, env.c.Index())

	// Y first moves to edit screen, then B decrements selected edit field
	env.clock.Advance(time.Second)
	require.NoError(t, env.c.tick(context.Background()))
	assert.Equal(t, 1, env.c.Index())
	assert.Equal(t, 90.0, env.edit().Value(FieldRamp))
	_, ok := env.run().Selected()
	assert.False(t, ok)
	assert.WithinDuration(t, env.clock.Now(), env.c.LastInteraction(), 0)
}

func TestRunLoop(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{TickMs: 1}, nil)
	a := alive.NewAlive()
	cycles := make(chan Cycle, 64)
	var ticks int32
	env.c.XXX_testHook = func(c Cycle) {
		if c == CycleTick {
			if atomic.AddInt32(&ticks, 1) > 1 {
				return
			}
		}
		cycles <- c
	}
	env.oven.stateErr = errors.New("oven offline")

	done := make(chan struct{})
	go func() {
		env.c.Run(context.Background(), a)
		close(done)
	}()
	wait := func(expect Cycle) {
		for {
			select {
			case c := <-cycles:
				if c == expect {
					return
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("timeout waiting for cycle=%s", expect.String())
			}
		}
	}

	wait(CycleTick) // render error logged, loop continues
	env.oven.mu.Lock()
	env.oven.stateErr = nil
	env.oven.mu.Unlock()

	env.c.UpdateProfiles(catalogABC(t))
	wait(CycleProfiles)
	require.True(t, env.c.Press("test", types.ButtonB))
	wait(CycleButton)
	p, ok := env.run().Selected()
	require.True(t, ok)
	assert.Equal(t, "B", p.Name())

	a.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}
