// Line based panel for headless testing: buttons in, screen text out.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/cmd/ovenpanel/subcmd"
	"github.com/kilnworks/ovenpanel/helpers/cli"
	"github.com/kilnworks/ovenpanel/internal/state"
	"github.com/kilnworks/ovenpanel/internal/types"
)

const Tag = "console"

const usage = `syntax: one command per line
- a b x y         press button
- show            print last presented screen
- state           print oven snapshot
- status          print active screen and last interaction
- profiles FILE   replace profile catalog from JSON file
- quit
`

var Mod = subcmd.Mod{Name: Tag, Usage: "stdin commands, memory display", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	config.Desktop()

	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	if err := g.Start(ctx); err != nil {
		return errors.Annotate(err, "console start")
	}
	g.Log.Infof(usage)

	exec := NewExecutor(ctx, func(s string) { fmt.Println(s) })
	// quit or end of stdin stops panel
	go func() {
		cli.MainLoop("ovenpanel-"+Tag, func(line string) {
			if err := exec(line); err != nil {
				g.Log.Errorf(errors.ErrorStack(err))
			}
		}, newCompleter(), g.Stop)
		g.Stop()
	}()
	g.Alive.Wait()
	return nil
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "a", Description: "button A, previous"},
		{Text: "b", Description: "button B, next"},
		{Text: "x", Description: "button X, start/confirm"},
		{Text: "y", Description: "button Y, switch screen"},
		{Text: "show", Description: "print screen"},
		{Text: "state", Description: "print oven snapshot"},
		{Text: "status", Description: "print screen and last interaction"},
		{Text: "profiles", Description: "load catalog file"},
		{Text: "quit", Description: "stop panel"},
	}

	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
	}
}

// NewExecutor returns line handler, output receives printed lines.
func NewExecutor(ctx context.Context, output func(string)) func(string) error {
	g := state.GetGlobal(ctx)
	return func(line string) error {
		words := strings.Fields(line)
		if len(words) == 0 {
			return nil
		}
		switch cmd := strings.ToLower(words[0]); cmd {
		case "a", "b", "x", "y":
			b, err := types.ParseButton(cmd)
			if err != nil {
				return err
			}
			if !g.MustUI().Press(Tag, b) {
				return errors.Errorf("ui busy, press=%s dropped", b.String())
			}
			return nil

		case "show":
			d, err := g.Display()
			if err != nil {
				return err
			}
			for _, s := range d.Lines() {
				output(s)
			}
			return nil

		case "state":
			o, err := g.Oven()
			if err != nil {
				return err
			}
			snap, err := o.State(ctx)
			if err != nil {
				return errors.Annotate(err, "oven state")
			}
			b, err := json.Marshal(snap)
			if err != nil {
				return errors.Trace(err)
			}
			output(string(b))
			return nil

		case "status":
			ctl := g.MustUI()
			output(fmt.Sprintf("screen=%s dimmed=%t last_interaction=%s",
				ctl.Active().Kind().String(), ctl.Dimmed(), ctl.LastInteraction().Format(time.RFC3339)))
			return nil

		case "profiles":
			if len(words) != 2 {
				return errors.NotValidf("profiles expects one FILE argument")
			}
			c, err := state.LoadCatalogFile(words[1])
			if err != nil {
				return err
			}
			g.MustUI().UpdateProfiles(c)
			output(fmt.Sprintf("profiles=%s", strings.Join(c.Names(), ",")))
			return nil

		case "quit", "exit":
			g.Stop()
			return nil

		case "help":
			output(usage)
			return nil

		default:
			return errors.NotValidf("command=%s", words[0])
		}
	}
}
