// Sorry, workaround to import cycles.
package state_new

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/kilnworks/ovenpanel/hardware/display"
	"github.com/kilnworks/ovenpanel/internal/state"
	"github.com/kilnworks/ovenpanel/log2"
	"github.com/temoto/alive/v2"
)

func NewContext(log *log2.Log) (context.Context, *state.Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}

	g := &state.Global{
		Alive: alive.NewAlive(),
		Log:   log,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, state.ContextKey, g)

	return ctx, g
}

// NewTestContext inits Global with in-memory display and indicator.
// confString defaults to simulated oven when driver is not set.
func NewTestContext(t testing.TB, buildVersion string, confString string) (context.Context, *state.Global) {
	fs := state.NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	var log *log2.Log
	if os.Getenv("ovenpanel_test_log_stderr") == "1" {
		log = log2.NewStderr(log2.LDebug) // useful with panics
	} else {
		log = log2.NewTest(t, log2.LDebug)
	}
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log)
	g.BuildVersion = buildVersion

	config := state.MustReadConfig(log, fs, "test-inline")
	if config.Oven.Driver == "" {
		config.Oven.Driver = "sim"
	}
	g.XXX_SetDisplay(display.NewMock(config.DisplaySize(), nil))
	g.MustInit(ctx, config)
	t.Cleanup(func() { g.StopWait(5 * time.Second) })
	return ctx, g
}
