package oven

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"io/ioutil"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/helpers"
	"github.com/kilnworks/ovenpanel/helpers/atomic_clock"
	oven_config "github.com/kilnworks/ovenpanel/internal/oven/config"
	"github.com/kilnworks/ovenpanel/internal/profile"
	"github.com/kilnworks/ovenpanel/internal/types"
	"github.com/kilnworks/ovenpanel/log2"
	"github.com/temoto/alive/v2"
)

type ProfilesFunc func(profile.Catalog)

// Remote is the oven controller service reached over MQTT.
// State comes from retained messages, commands are published.
type Remote struct {
	Log    *log2.Log
	config oven_config.MqttConfig
	m      mqtt.Client
	clock  func() time.Time

	onProfiles ProfilesFunc

	topicState    string
	topicProfiles string
	topicCommand  string
	topicError    string
	topicOnline   string

	mu        sync.Mutex
	last      types.Snapshot
	haveLast  bool
	lastState atomic_clock.Clock
	backoff   helpers.Backoff
}

// NewRemote prepares client, connection is made by Run.
// onProfiles is called from MQTT goroutine with every valid catalog push.
func NewRemote(log *log2.Log, config oven_config.MqttConfig, onProfiles ProfilesFunc) (*Remote, error) {
	self := newRemote(log, config, onProfiles)
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log
	if config.LogDebug {
		mqtt.DEBUG = log
	}

	mopt := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.Client()).
		SetUsername(config.Username).
		SetPassword(config.Password).
		SetBinaryWill(self.topicOnline, []byte{0x00}, 1, true).
		SetCleanSession(true).
		SetKeepAlive(config.Keepalive()).
		SetPingTimeout(config.NetworkTimeout()).
		SetConnectTimeout(config.NetworkTimeout()).
		SetWriteTimeout(config.NetworkTimeout()).
		SetOrderMatters(false).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler)
	if config.TlsCaFile != "" {
		tlsconf, err := loadTLS(config.TlsCaFile)
		if err != nil {
			return nil, errors.Annotate(err, "oven mqtt")
		}
		mopt.SetTLSConfig(tlsconf)
	}
	self.m = mqtt.NewClient(mopt)
	return self, nil
}

func newRemote(log *log2.Log, config oven_config.MqttConfig, onProfiles ProfilesFunc) *Remote {
	prefix := config.Prefix()
	return &Remote{
		Log:           log,
		config:        config,
		clock:         time.Now,
		onProfiles:    onProfiles,
		topicState:    prefix + "/state",
		topicProfiles: prefix + "/profiles",
		topicCommand:  prefix + "/command",
		topicError:    prefix + "/panel/error",
		topicOnline:   prefix + "/panel/online",
		backoff: helpers.Backoff{
			Min: time.Second,
			Max: 30 * time.Second,
			K:   2,
			Res: 100 * time.Millisecond,
		},
	}
}

func loadTLS(caFile string) (*tls.Config, error) {
	cabytes, err := ioutil.ReadFile(caFile)
	if err != nil {
		return nil, errors.Annotatef(err, "tls_ca_file=%s", caFile)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(cabytes) {
		return nil, errors.NotValidf("tls_ca_file=%s no certificates", caFile)
	}
	return &tls.Config{RootCAs: pool}, nil
}

// Run connects with backoff and keeps client until alive stops.
func (self *Remote) Run(a *alive.Alive) {
	if !a.Add(1) {
		return
	}
	defer a.Done()
	stopch := a.StopChan()

	for {
		select {
		case <-time.After(self.backoff.DelayBefore()):
		case <-stopch:
			return
		}
		err := self.connect()
		self.backoff.Update(err == nil)
		if err == nil {
			break
		}
		self.Log.Errorf("oven mqtt connect broker=%s err=%v retry in %v", self.config.Broker, err, self.backoff.DelayBefore())
	}

	<-stopch
	self.Log.Infof("oven mqtt disconnect")
	self.m.Disconnect(uint(self.config.NetworkTimeout() / time.Millisecond))
}

func (self *Remote) connect() error {
	token := self.m.Connect()
	if !token.WaitTimeout(self.config.NetworkTimeout()) {
		return errors.Timeoutf("mqtt connect")
	}
	return errors.Trace(token.Error())
}

func (self *Remote) State(ctx context.Context) (types.Snapshot, error) {
	self.mu.Lock()
	s, ok := self.last, self.haveLast
	self.mu.Unlock()
	if !ok {
		return types.Snapshot{}, errors.Errorf("oven state unknown, nothing received on %s", self.topicState)
	}
	if age := self.clock().Sub(self.lastState.Time()); age > self.config.StaleAfter() {
		return types.Snapshot{}, errors.Timeoutf("oven state age=%v", age.Truncate(time.Second))
	}
	return s, nil
}

func (self *Remote) RunProfile(ctx context.Context, p profile.Profile, startOffset float64) error {
	if err := p.Validate(); err != nil {
		return errors.Annotate(err, "oven run")
	}
	return errors.Annotatef(self.command(ctx, RunCommand(p, startOffset)), "oven run profile=%s", p.Name())
}

func (self *Remote) Abort(ctx context.Context) error {
	return errors.Annotate(self.command(ctx, Command{Cmd: CmdStop}), "oven abort")
}

// PublishError is log2 error hook, never blocks.
func (self *Remote) PublishError(err error) {
	if err == nil || self.m == nil || !self.m.IsConnected() {
		return
	}
	self.m.Publish(self.topicError, 0, false, []byte(err.Error()))
}

func (self *Remote) command(ctx context.Context, c Command) error {
	b, err := json.Marshal(c)
	if err != nil {
		return errors.Annotate(err, "encode")
	}
	self.Log.Debugf("oven mqtt publish topic=%s payload=%s", self.topicCommand, b)
	token := self.m.Publish(self.topicCommand, 1, false, b)
	timer := time.NewTimer(self.config.CommandTimeout())
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-timer.C:
		return errors.Timeoutf("mqtt publish topic=%s timeout=%v", self.topicCommand, self.config.CommandTimeout())
	case <-ctx.Done():
		return errors.Annotatef(ctx.Err(), "mqtt publish topic=%s", self.topicCommand)
	}
	return errors.Annotatef(token.Error(), "mqtt publish topic=%s", self.topicCommand)
}

func (self *Remote) handleState(payload []byte) {
	s, err := types.ParseSnapshot(payload)
	if err != nil {
		self.Log.Errorf("oven state parse err=%v payload=%s", err, payload)
		return
	}
	self.mu.Lock()
	self.last, self.haveLast = s, true
	self.lastState.SetTime(self.clock())
	self.mu.Unlock()
}

// handleProfiles rejects whole push on any invalid profile, previous catalog stays.
func (self *Remote) handleProfiles(payload []byte) {
	c, err := profile.ParseCatalog(payload)
	if err != nil {
		self.Log.Errorf("oven profiles rejected err=%v", err)
		return
	}
	self.Log.Infof("oven profiles received count=%d", len(c))
	if self.onProfiles != nil {
		self.onProfiles(c)
	}
}

func (self *Remote) onConnectHandler(c mqtt.Client) {
	self.Log.Infof("oven mqtt connected broker=%s", self.config.Broker)
	subs := map[string]byte{self.topicState: 1, self.topicProfiles: 1}
	token := c.SubscribeMultiple(subs, func(_ mqtt.Client, msg mqtt.Message) {
		switch msg.Topic() {
		case self.topicState:
			self.handleState(msg.Payload())
		case self.topicProfiles:
			self.handleProfiles(msg.Payload())
		}
	})
	if token.WaitTimeout(self.config.NetworkTimeout()) && token.Error() == nil {
		c.Publish(self.topicOnline, 1, true, []byte{0x01})
		return
	}
	self.Log.Errorf("oven mqtt subscribe err=%v", token.Error())
}

func (self *Remote) connectLostHandler(c mqtt.Client, err error) {
	self.Log.Infof("oven mqtt connection lost err=%v", err)
}
