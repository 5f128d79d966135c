package state

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/hardware/input"
	"github.com/kilnworks/ovenpanel/helpers"
	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/log2"
	"github.com/temoto/alive/v2"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Hardware     hardware // hardware.go
	Log          *log2.Log

	_copy_guard sync.Mutex //nolint:unused
}

const ContextKey = "run/state-global"

const StopTimeout = 5 * time.Second

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	g.Log.Infof("build version=%s", g.BuildVersion)

	if err := g.Config.Validate(); err != nil {
		return errors.Annotate(err, "config")
	}

	// Oven first: remote is error reporting mechanism, must be inited before anything else
	if _, err := g.Oven(); err != nil {
		return err
	}
	if g.BuildVersion == "unknown" {
		g.Error(fmt.Errorf("build version is not set, use -ldflags -X main.BuildVersion="))
	}

	errs := make([]error, 0, 2)
	if _, err := g.Display(); err != nil {
		errs = append(errs, err)
	}
	if _, err := g.UI(); err != nil {
		errs = append(errs, err)
	}
	return helpers.FoldErrors(errs)
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Fatal(err)
	}
}

// Start launches oven client, input router and UI loop. Extra sources join hardware ones.
// Returns after everything is running, use Alive to wait.
func (g *Global) Start(ctx context.Context, extra ...input.Source) error {
	o, err := g.Oven()
	if err != nil {
		return err
	}
	ctl, err := g.UI()
	if err != nil {
		return err
	}
	sources, err := g.inputSources()
	if err != nil {
		return err
	}
	sources = append(sources, extra...)

	switch {
	case g.Hardware.Oven.remote != nil:
		go g.Hardware.Oven.remote.Run(g.Alive)
	case g.Hardware.Oven.sim != nil:
		go g.Hardware.Oven.sim.Run(g.Alive)
		if path := g.Config.Oven.Sim.CatalogFile; path != "" {
			c, err := LoadCatalogFile(path)
			if err != nil {
				return errors.Annotate(err, "config: oven.sim.catalog_file")
			}
			ctl.UpdateProfiles(c)
		}
	default:
		g.Log.Infof("oven=%T external, not started", o)
	}

	router := input.NewRouter(g.Log, ctl.Inbox(), g.Config.Debounce(), g.Alive.StopChan())
	g.Log.Infof("input sources=%d debounce=%v", len(sources), router.Debounce())
	go router.Run(sources)
	go ctl.Run(ctx, g.Alive)
	return nil
}

// LoadCatalogFile reads profiles in the same JSON format as catalog push.
func LoadCatalogFile(path string) (profile.Catalog, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "catalog file=%s", path)
	}
	c, err := profile.ParseCatalog(b)
	return c, errors.Annotatef(err, "catalog file=%s", path)
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Error(err)
	}
}

func (g *Global) Fatal(err error, args ...interface{}) {
	if err != nil {
		g.Error(err, args...)
		g.StopWait(StopTimeout)
		g.Log.Fatal(errors.ErrorStack(err))
		os.Exit(1)
	}
}

func (g *Global) Stop() {
	g.Alive.Stop()
}

func (g *Global) StopWait(timeout time.Duration) bool {
	g.Alive.Stop()
	select {
	case <-g.Alive.WaitChan():
		return true
	case <-time.After(timeout):
		return false
	}
}
