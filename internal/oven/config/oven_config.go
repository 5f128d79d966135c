package oven_config

import (
	"time"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/helpers"
)

const (
	DriverMqtt = "mqtt"
	DriverSim  = "sim"
)

type Config struct {
	Driver string     `hcl:"driver"`
	Mqtt   MqttConfig `hcl:"mqtt"`
	Sim    SimConfig  `hcl:"sim"`
}

type MqttConfig struct { //nolint:maligned
	Broker            string `hcl:"broker"`
	ClientID          string `hcl:"client_id"`
	TopicPrefix       string `hcl:"topic_prefix"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
	CommandTimeoutMs  int    `hcl:"command_timeout_ms"`
	KeepaliveSec      int    `hcl:"keepalive_sec"`
	Username          string `hcl:"username"`
	Password          string `hcl:"password"`
	TlsCaFile         string `hcl:"tls_ca_file"`
	LogDebug          bool   `hcl:"log_debug"`
}

type SimConfig struct {
	CatalogFile string  `hcl:"catalog_file"`
	Ambient     float64 `hcl:"ambient"`
	Speed       float64 `hcl:"speed"`
	HeatRate    float64 `hcl:"heat_rate"` // C/s
	CoolRate    float64 `hcl:"cool_rate"` // C/s
	StepMs      int     `hcl:"step_ms"`
}

func (self *Config) DriverName() string {
	if self.Driver == "" {
		return DriverMqtt
	}
	return self.Driver
}

func (self *Config) Validate() error {
	errs := make([]error, 0, 2)
	switch self.DriverName() {
	case DriverMqtt:
		if self.Mqtt.Broker == "" {
			errs = append(errs, errors.NotValidf("oven.mqtt.broker empty"))
		}
	case DriverSim:
		if self.Sim.Speed < 0 {
			errs = append(errs, errors.NotValidf("oven.sim.speed=%v", self.Sim.Speed))
		}
	default:
		errs = append(errs, errors.NotValidf("oven.driver=%q valid: mqtt, sim", self.Driver))
	}
	return helpers.FoldErrors(errs)
}

func (self *MqttConfig) NetworkTimeout() time.Duration {
	return helpers.IntSecondDefault(self.NetworkTimeoutSec, 5*time.Second)
}

// CommandTimeout bounds run/stop publish, UI is blocked while it waits.
func (self *MqttConfig) CommandTimeout() time.Duration {
	return helpers.IntMillisecondDefault(self.CommandTimeoutMs, time.Second)
}

func (self *MqttConfig) Keepalive() time.Duration {
	return helpers.IntSecondDefault(self.KeepaliveSec, 30*time.Second)
}

// StaleAfter is age of last state message when oven is considered gone.
func (self *MqttConfig) StaleAfter() time.Duration { return 3 * self.NetworkTimeout() }

func (self *MqttConfig) Prefix() string {
	if self.TopicPrefix == "" {
		return "kiln"
	}
	return self.TopicPrefix
}

func (self *MqttConfig) Client() string {
	if self.ClientID == "" {
		return "ovenpanel"
	}
	return self.ClientID
}

func (self *SimConfig) Defaults() SimConfig {
	c := *self
	if c.Ambient == 0 {
		c.Ambient = 20
	}
	if c.Speed == 0 {
		c.Speed = 1
	}
	if c.HeatRate == 0 {
		c.HeatRate = 3
	}
	if c.CoolRate == 0 {
		c.CoolRate = 0.5
	}
	if c.StepMs == 0 {
		c.StepMs = 1000
	}
	return c
}

func (self *SimConfig) Step() time.Duration {
	return helpers.IntMillisecondDefault(self.StepMs, time.Second)
}
