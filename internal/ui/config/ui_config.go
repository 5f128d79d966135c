package ui_config

import (
	"time"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/helpers"
)

const (
	DimPolicyIdle    = "idle"    // dim only while oven is idle
	DimPolicyRunning = "running" // dim only while oven is busy
)

type Config struct { //nolint:maligned
	TickMs            int    `hcl:"tick_ms"`
	PollQuietMs       int    `hcl:"poll_quiet_ms"`
	DisplayTimeoutSec int    `hcl:"display_timeout_sec"`
	ConfirmTimeoutSec int    `hcl:"confirm_timeout_sec"`
	DimPolicy         string `hcl:"dim_policy"`
	SnapshotLogEvery  int    `hcl:"snapshot_log_every"`

	Edit EditConfig `hcl:"edit"`
}

type EditConfig struct {
	Fields       int     `hcl:"fields"`
	Ramp         float64 `hcl:"ramp"`
	RampTarget   float64 `hcl:"ramp_target"`
	Target       float64 `hcl:"target"`
	Soak         float64 `hcl:"soak"`
	Step         float64 `hcl:"step"`
	MaxRamp      float64 `hcl:"max_ramp"`
	FallbackTemp float64 `hcl:"fallback_temp"`
}

func (self *Config) Tick() time.Duration {
	return helpers.IntMillisecondDefault(self.TickMs, 100*time.Millisecond)
}
func (self *Config) PollQuiet() time.Duration {
	return helpers.IntMillisecondDefault(self.PollQuietMs, 500*time.Millisecond)
}
func (self *Config) DisplayTimeout() time.Duration {
	return helpers.IntSecondDefault(self.DisplayTimeoutSec, 120*time.Second)
}
func (self *Config) ConfirmTimeout() time.Duration {
	return helpers.IntSecondDefault(self.ConfirmTimeoutSec, 10*time.Second)
}
func (self *Config) Dim() string {
	if self.DimPolicy == "" {
		return DimPolicyIdle
	}
	return self.DimPolicy
}
func (self *Config) SnapshotLogPeriod() int {
	if self.SnapshotLogEvery <= 0 {
		return 40
	}
	return self.SnapshotLogEvery
}

// Validate accepts zero values, defaults apply later.
func (self *Config) Validate() error {
	errs := make([]error, 0, 4)
	switch self.Dim() {
	case DimPolicyIdle, DimPolicyRunning:
	default:
		errs = append(errs, errors.NotValidf("ui.dim_policy=%q", self.DimPolicy))
	}
	switch self.Edit.Fields {
	case 0, 3, 4:
	default:
		errs = append(errs, errors.NotValidf("ui.edit.fields=%d expected 3 or 4", self.Edit.Fields))
	}
	if self.Edit.Step < 0 {
		errs = append(errs, errors.NotValidf("ui.edit.step=%v", self.Edit.Step))
	}
	if self.Edit.MaxRamp < 0 {
		errs = append(errs, errors.NotValidf("ui.edit.max_ramp=%v", self.Edit.MaxRamp))
	}
	return helpers.FoldErrors(errs)
}

// Defaults fills zero values. Initial soak=0 is not configurable, operator can still edit down to 0.
func (self *EditConfig) Defaults() EditConfig {
	c := *self
	if c.Fields == 0 {
		c.Fields = 4
	}
	if c.Ramp == 0 {
		c.Ramp = 100
	}
	if c.RampTarget == 0 {
		c.RampTarget = 700
	}
	if c.Target == 0 {
		c.Target = 1000
	}
	if c.Soak == 0 {
		c.Soak = 10
	}
	if c.Step == 0 {
		c.Step = 10
	}
	if c.MaxRamp == 0 {
		c.MaxRamp = 300
	}
	if c.FallbackTemp == 0 {
		c.FallbackTemp = 20
	}
	return c
}
