package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/types"
	ui_config "github.com/kilnworks/ovenpanel/internal/ui/config"
	"github.com/kilnworks/ovenpanel/log2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNavigation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	rs := env.run()
	selected := func() string {
		p, _ := rs.Selected()
		return p.Name()
	}

	env.press(t, types.ButtonB)
	assert.Equal(t, "", selected(), "empty catalog")

	rs.UpdateProfiles(catalogABC(t))
	env.press(t, types.ButtonA)
	assert.Equal(t, "C", selected(), "previous from none")
	env.press(t, types.ButtonB)
	assert.Equal(t, "A", selected())
	env.press(t, types.ButtonB)
	assert.Equal(t, "B", selected())
	env.press(t, types.ButtonB)
	assert.Equal(t, "C", selected())
	env.press(t, types.ButtonB)
	assert.Equal(t, "A", selected())
	env.press(t, types.ButtonA)
	assert.Equal(t, "C", selected())

	// new catalog keeps selection by name
	rs.UpdateProfiles(profile.Catalog{mustProfile(t, "C"), mustProfile(t, "D")})
	env.press(t, types.ButtonB)
	assert.Equal(t, "D", selected())
}

func TestRunStart(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	rs := env.run()
	require.NoError(t, env.c.Render(context.Background()))

	env.press(t, types.ButtonX)
	assert.Len(t, env.oven.Runs(), 0)
	assert.False(t, rs.gate.IsOpen(), "no programme selected")

	rs.UpdateProfiles(catalogABC(t))
	env.press(t, types.ButtonB, types.ButtonX)
	assert.Equal(t, []string{"Start B?", promptYesNo}, env.display.Lines())
	env.press(t, types.ButtonB)
	assert.Len(t, env.oven.Runs(), 0, "cancel")
	p, _ := rs.Selected()
	assert.Equal(t, "B", p.Name(), "cancel does not navigate")

	env.press(t, types.ButtonX, types.ButtonA)
	runs := env.oven.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "B", runs[0].profile.Name())
	assert.Equal(t, 0.0, runs[0].offset)
	assert.False(t, rs.gate.IsOpen())
}

func TestRunStartExpired(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	rs := env.run()
	rs.UpdateProfiles(catalogABC(t))
	require.NoError(t, env.c.Render(context.Background()))
	env.press(t, types.ButtonB, types.ButtonX)
	require.True(t, rs.gate.IsOpen())

	env.clock.Advance(11 * time.Second)
	require.NoError(t, env.c.Render(context.Background()))
	assert.False(t, rs.gate.IsOpen())
	env.press(t, types.ButtonA)
	assert.Len(t, env.oven.Runs(), 0)
	p, _ := rs.Selected()
	assert.Equal(t, "A", p.Name(), "A navigates after expiry")
}

func TestRunStartExpiredWithoutRender(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	rs := env.run()
	rs.UpdateProfiles(catalogABC(t))
	require.NoError(t, env.c.Render(context.Background()))
	env.press(t, types.ButtonB, types.ButtonX)
	require.NoError(t, env.c.Render(context.Background()))
	require.True(t, rs.gate.IsOpen())

	env.clock.Advance(11 * time.Second)
	env.press(t, types.ButtonA)
	assert.Len(t, env.oven.Runs(), 0)
	assert.False(t, rs.gate.IsOpen())
	p, _ := rs.Selected()
	assert.Equal(t, "A", p.Name(), "A navigates after expiry")
}

func TestRunSnapshotLogEvery(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{SnapshotLogEvery: 3}, nil)
	n := 0
	env.c.Log = log2.NewFunc(func(format string, args ...interface{}) {
		if strings.Contains(fmt.Sprintf(format, args...), "ui run: snapshot") {
			n++
		}
	}, log2.LDebug)
	for i := 0; i < 7; i++ {
		require.NoError(t, env.c.Render(context.Background()))
	}
	assert.Equal(t, 2, n)
}

func TestRunAbort(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	env.oven.set(func(s *types.Snapshot) { s.SetState(types.StateRunning) })
	require.NoError(t, env.c.Render(context.Background()))
	env.press(t, types.ButtonX)
	assert.Equal(t, "Abort run?", env.display.Lines()[0])
	env.press(t, types.ButtonA)
	assert.Equal(t, 1, env.oven.Aborts())
}

func TestRunUninitializedIgnoresX(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	env.oven.set(func(s *types.Snapshot) { *s = types.Snapshot{StateText: "WARMING"} })
	require.NoError(t, env.c.Render(context.Background()))
	env.press(t, types.ButtonX)
	assert.False(t, env.run().gate.IsOpen())
}

func TestRunRender(t *testing.T) {
	t.Parallel()

	type Case struct {
		name   string
		snap   types.Snapshot
		lines  []string
		led    LED
		colors map[string]string
	}
	running := func(f func(*types.Snapshot)) types.Snapshot {
		s := types.Snapshot{
			Temperature: types.Float(100.4),
			Target:      types.Float(101),
			Heat:        1,
			Runtime:     types.Float(829),
			TotalTime:   types.Float(3600),
			Profile:     types.String("test-200-250"),
		}
		s.SetState(types.StateRunning)
		if f != nil {
			f(&s)
		}
		return s
	}
	cases := []Case{
		{"idle", idleSnapshot(23.17),
			[]string{"23C", "Target: 0C", "No Programme", "IDLE"}, LEDOff, nil},
		{"running", running(nil),
			[]string{"100C", "Target: 101C", "test-200-250", "RUNNING", "Remaining: 00:46:11"}, LEDHeat,
			map[string]string{"Remaining: 00:46:11": "blue", "test-200-250": "magenta"}},
		{"cooling-status", running(func(s *types.Snapshot) { s.Heat = 0; s.Status = "Thermocouple error" }),
			[]string{"100C", "Target: 101C", "test-200-250", "RUNNING", "Thermocouple error"}, LEDCool,
			map[string]string{"Thermocouple error": "red"}},
		{"overrun", running(func(s *types.Snapshot) { s.Runtime = types.Float(4000) }),
			[]string{"100C", "Target: 101C", "test-200-250", "RUNNING", "Remaining: 00:00:00"}, LEDHeat, nil},
		{"unknown", types.Snapshot{Heat: 1},
			[]string{"---C", "Target: ---C", "No Programme", "Initialising"}, LEDOff, nil},
	}
	colorNames := map[[3]uint8]string{
		{types.ColorBlue.R, types.ColorBlue.G, types.ColorBlue.B}:          "blue",
		{types.ColorRed.R, types.ColorRed.G, types.ColorRed.B}:             "red",
		{types.ColorMagenta.R, types.ColorMagenta.G, types.ColorMagenta.B}: "magenta",
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, ui_config.Config{}, nil)
			env.oven.set(func(s *types.Snapshot) { *s = c.snap })
			require.NoError(t, env.c.Render(context.Background()))
			assert.Equal(t, c.lines, env.display.Lines())
			r, g, b := env.display.LED()
			assert.Equal(t, c.led, LED{r, g, b})
			for _, op := range env.display.Texts() {
				if expect, ok := c.colors[op.Text]; ok {
					assert.Equal(t, expect, colorNames[[3]uint8{op.Color.R, op.Color.G, op.Color.B}], op.Text)
				}
			}
		})
	}
}

func TestRunRenderSelectedName(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, ui_config.Config{}, nil)
	env.run().UpdateProfiles(catalogABC(t))
	env.press(t, types.ButtonB)
	assert.Equal(t, "B", env.display.Lines()[2])
}

func TestFormatRemaining(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "00:46:11", FormatRemaining(3600-829))
	assert.Equal(t, "00:00:00", FormatRemaining(-5))
	assert.Equal(t, "01:00:00", FormatRemaining(3599.6))
	assert.Equal(t, "27:46:40", FormatRemaining(100000))
}

func TestLEDFromSnapshot(t *testing.T) {
	t.Parallel()
	s := types.Snapshot{Heat: 0.5}
	assert.Equal(t, LEDOff, LEDFromSnapshot(&s))
	s.SetState(types.StateIdle)
	assert.Equal(t, LEDOff, LEDFromSnapshot(&s))
	s.SetState(types.StatePaused)
	assert.Equal(t, LEDHeat, LEDFromSnapshot(&s))
	s.Heat = 0
	assert.Equal(t, LEDCool, LEDFromSnapshot(&s))
}
