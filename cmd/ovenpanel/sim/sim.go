// Helper for developing panel screens on desktop.
// Window replaces framebuffer and buttons, oven defaults to simulation.
package sim

import (
	"context"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/cmd/ovenpanel/subcmd"
	"github.com/kilnworks/ovenpanel/hardware/display/window"
	"github.com/kilnworks/ovenpanel/hardware/input"
	"github.com/kilnworks/ovenpanel/internal/state"
)

const windowScale = 2

var Mod = subcmd.Mod{Name: "sim", Usage: "desktop window, keys A B X Y", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	config.Desktop()

	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	d, err := g.Display()
	if err != nil {
		return err
	}
	if err = g.MustUI().Splash(); err != nil {
		g.Error(err)
	}

	keys := input.NewChanSource("window", g.Alive.StopChan())
	if err = g.Start(ctx, keys); err != nil {
		return errors.Annotate(err, "sim start")
	}
	g.Log.Debugf("sim init complete oven=%s", config.Oven.DriverName())

	w := window.New(d, keys.Press, g.Alive.StopChan())
	err = w.Run("ovenpanel "+g.BuildVersion, windowScale)
	g.Stop()
	g.Alive.Wait()
	return errors.Annotate(err, "window")
}
