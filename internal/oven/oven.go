// Package oven implements panel side of the temperature controller service:
// Remote talks to the real controller over MQTT, Sim is a software kiln for development.
package oven

import (
	"encoding/json"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/ui"
)

const (
	CmdRun  = "run"
	CmdStop = "stop"
)

var _ ui.Oven = new(Remote)
var _ ui.Oven = new(Sim)

// Command is the control message published by panel.
type Command struct {
	Cmd         string           `json:"cmd"`
	Profile     *profile.Profile `json:"profile,omitempty"`
	StartOffset float64          `json:"start_offset,omitempty"`
}

func RunCommand(p profile.Profile, startOffset float64) Command {
	return Command{Cmd: CmdRun, Profile: &p, StartOffset: startOffset}
}

func ParseCommand(b []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(b, &c); err != nil {
		return Command{}, errors.Annotate(err, "oven command")
	}
	switch c.Cmd {
	case CmdRun:
		if c.Profile == nil {
			return Command{}, errors.NotValidf("oven command=run without profile")
		}
	case CmdStop:
	default:
		return Command{}, errors.NotValidf("oven command=%q", c.Cmd)
	}
	return c, nil
}
