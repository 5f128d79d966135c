package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kilnworks/ovenpanel/cmd/ovenpanel/console"
	"github.com/kilnworks/ovenpanel/cmd/ovenpanel/panel"
	"github.com/kilnworks/ovenpanel/cmd/ovenpanel/sim"
	"github.com/kilnworks/ovenpanel/cmd/ovenpanel/subcmd"
	"github.com/kilnworks/ovenpanel/internal/state"
	state_new "github.com/kilnworks/ovenpanel/internal/state/new"
	"github.com/kilnworks/ovenpanel/log2"
	"github.com/mattn/go-isatty"
)

var log = log2.NewStderr(log2.LDebug)

// go build -ldflags "-X main.BuildVersion=..."
var BuildVersion string = "unknown"

var modules = []subcmd.Mod{
	panel.Mod,
	sim.Mod,
	console.Mod,
}

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "ovenpanel.hcl", "")
	flagVersion := cmdline.Bool("version", false, "print build version and exit")
	cmdline.Usage = func() {
		fmt.Fprintf(cmdline.Output(), "Usage: %s [option] [command]\n\nOptions:\n", os.Args[0])
		cmdline.PrintDefaults()
		fmt.Fprintf(cmdline.Output(), "\nCommands (default %s):\n", panel.Mod.Name)
		for _, m := range modules {
			fmt.Fprintf(cmdline.Output(), "  %-8s %s\n", m.Name, m.Usage)
		}
	}
	_ = cmdline.Parse(os.Args[1:])

	if *flagVersion {
		fmt.Printf("ovenpanel %s\n", BuildVersion)
		os.Exit(0)
	}

	command := cmdline.Arg(0)
	if command == "" {
		command = panel.Mod.Name
	}
	mod, err := subcmd.Parse(command, modules)
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case subcmd.SdNotify("start"):
		// under systemd assume journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	case isatty.IsTerminal(os.Stderr.Fd()):
		log.SetFlags(log2.LInteractiveFlags)
	default:
		log.SetFlags(log2.LStdFlags)
	}

	log.Debugf("hello command=%s config=%s", mod.Name, *flagConfig)
	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	ctx, g := state_new.NewContext(log)
	g.BuildVersion = BuildVersion

	if mod.Name != console.Tag {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigs
			g.Log.Infof("signal=%v stopping", s)
			g.Stop()
		}()
	}

	if err := mod.Main(ctx, config); err != nil {
		g.Fatal(err)
	}
	log.Debugf("bye")
}
