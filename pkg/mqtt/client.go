// Package mqtt publishes soundbar state to a broker and accepts commands
// from it, including Home Assistant discovery.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/hwalsh/yasbridge/pkg/bus"
	"github.com/hwalsh/yasbridge/pkg/yas"
)

// settleDelay gives the device time to apply a command before re-polling.
const settleDelay = 100 * time.Millisecond

// Link is the slice of the link manager the MQTT layer needs.
type Link interface {
	Connected() bool
	SendCommand(ctx context.Context, name string) error
	RequestStatus(ctx context.Context) yas.Status
	ResetPairing(ctx context.Context) error
}

// Stepper is the slice of the synchronizer the MQTT layer needs.
type Stepper interface {
	Last() (yas.Status, bool)
	SetVolume(ctx context.Context, target int) (yas.Status, error)
	SetSubwoofer(ctx context.Context, target int) (yas.Status, error)
}

// Options configures the bridge's MQTT session.
type Options struct {
	Broker    string
	Username  string
	Password  string
	BaseTopic string
	ClientID  string

	// Restart is invoked when the restart topic fires. It should exit the
	// process so the supervisor relaunches it.
	Restart func()
}

// Bridge owns the broker session. State and bt_status are published
// retained so Home Assistant sees the last values immediately after its
// own restart.
type Bridge struct {
	opts    Options
	client  paho.Client
	link    Link
	stepper Stepper
	bus     *bus.Bus

	stop chan struct{}
}

// NewBridge creates an unconnected MQTT bridge.
func NewBridge(opts Options, link Link, stepper Stepper, b *bus.Bus) *Bridge {
	return &Bridge{
		opts:    opts,
		link:    link,
		stepper: stepper,
		bus:     b,
		stop:    make(chan struct{}),
	}
}

// Topic helpers.

func (b *Bridge) topic(suffix string) string {
	return b.opts.BaseTopic + "/" + suffix
}

func (b *Bridge) availabilityTopic() string { return b.topic("availability") }
func (b *Bridge) stateTopic() string        { return b.topic("state") }
func (b *Bridge) btStatusTopic() string     { return b.topic("bt_status") }

// Start connects to the broker and begins relaying events. Subscriptions
// are established in the OnConnect handler so they survive reconnects.
func (b *Bridge) Start(ctx context.Context) error {
	opts := paho.NewClientOptions()
	opts.AddBroker(b.opts.Broker)
	opts.SetUsername(b.opts.Username)
	opts.SetPassword(b.opts.Password)
	opts.SetClientID(b.opts.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetWill(b.availabilityTopic(), "offline", 0, true)

	opts.SetOnConnectHandler(func(c paho.Client) {
		log.Info().Str("broker", b.opts.Broker).Msg("mqtt connected")
		b.onConnect(c)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	})

	b.client = paho.NewClient(opts)
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}

	go b.relayEvents()
	return nil
}

// onConnect publishes availability and discovery, re-subscribes, and pushes
// the current state so a restarted broker catches up.
func (b *Bridge) onConnect(c paho.Client) {
	b.publish(b.availabilityTopic(), true, "online")

	subs := map[string]paho.MessageHandler{
		b.topic("command"):       b.handleCommand,
		b.topic("set_volume"):    b.handleSetVolume,
		b.topic("set_subwoofer"): b.handleSetSubwoofer,
		b.topic("restart"):       b.handleRestart,
		b.topic("reset_pairing"): b.handleResetPairing,
	}
	for topic, handler := range subs {
		if token := c.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("mqtt subscribe failed")
		}
	}

	b.publishDiscovery()

	if last, ok := b.stepper.Last(); ok {
		b.publishState(last)
	}
}

// relayEvents forwards bus events to the broker until Stop.
func (b *Bridge) relayEvents() {
	events, unsub := b.bus.Subscribe()
	defer unsub()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			b.handleBusEvent(evt)
		case <-b.stop:
			return
		}
	}
}

func (b *Bridge) handleBusEvent(evt bus.Event) {
	if !b.Connected() {
		return
	}
	switch evt.Type {
	case bus.TypeStatus:
		if status, ok := evt.Data.(yas.Status); ok {
			b.publishState(status)
		}
	case bus.TypeLinkState:
		if change, ok := evt.Data.(bus.LinkChange); ok {
			b.publish(b.btStatusTopic(), true, change.State)
		}
	}
}

func (b *Bridge) publishState(status yas.Status) {
	payload, err := json.Marshal(status)
	if err != nil {
		log.Error().Err(err).Msg("marshal state payload")
		return
	}
	b.publish(b.stateTopic(), true, payload)
}

func (b *Bridge) publish(topic string, retained bool, payload any) {
	var data []byte
	switch v := payload.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("marshal mqtt payload")
			return
		}
	}
	token := b.client.Publish(topic, 0, retained, data)
	token.Wait()
	if err := token.Error(); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("mqtt publish failed")
	}
}

// Connected reports whether a broker session exists.
func (b *Bridge) Connected() bool {
	return b.client != nil && b.client.IsConnected()
}

// Stop publishes offline and disconnects.
func (b *Bridge) Stop() {
	close(b.stop)
	if b.client != nil && b.client.IsConnected() {
		b.publish(b.availabilityTopic(), true, "offline")
		b.client.Disconnect(250)
	}
}
