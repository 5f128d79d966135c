// Main, user facing mode of operation.
package panel

import (
	"context"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/cmd/ovenpanel/subcmd"
	"github.com/kilnworks/ovenpanel/internal/state"
)

var Mod = subcmd.Mod{Name: "panel", Usage: "run on device hardware", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)

	ctl := g.MustUI()
	if err := ctl.Splash(); err != nil {
		g.Error(err)
	}
	if err := g.Start(ctx); err != nil {
		return errors.Annotate(err, "panel start")
	}

	subcmd.SdNotify(daemon.SdNotifyReady)
	g.Log.Debugf("panel init complete")

	g.Alive.Wait()
	return nil
}
