package mqtt

import (
	"context"
	"strconv"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/hwalsh/yasbridge/pkg/yas"
)

const handlerTimeout = 15 * time.Second

// handleCommand runs a named device command, waits for the device to apply
// it, then re-polls and publishes the fresh state.
func (b *Bridge) handleCommand(_ paho.Client, msg paho.Message) {
	if msg.Retained() {
		return
	}
	name := strings.TrimSpace(string(msg.Payload()))
	if !yas.IsValidCommand(name) {
		log.Warn().Str("command", name).Msg("mqtt: unknown command")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := b.link.SendCommand(ctx, name); err != nil {
		log.Error().Err(err).Str("command", name).Msg("mqtt: send failed")
		return
	}
	log.Info().Str("command", name).Msg("mqtt: command sent")

	time.Sleep(settleDelay)
	if status := b.link.RequestStatus(ctx); status.Valid {
		b.publishState(status)
	}
}

// handleSetVolume steps the volume to the requested absolute level.
func (b *Bridge) handleSetVolume(_ paho.Client, msg paho.Message) {
	if msg.Retained() {
		return
	}
	target, err := strconv.Atoi(strings.TrimSpace(string(msg.Payload())))
	if err != nil {
		log.Warn().Str("payload", string(msg.Payload())).Msg("mqtt: bad volume payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if _, err := b.stepper.SetVolume(ctx, target); err != nil {
		log.Error().Err(err).Int("target", target).Msg("mqtt: set_volume failed")
	}
}

// handleSetSubwoofer steps the subwoofer level to the requested value.
func (b *Bridge) handleSetSubwoofer(_ paho.Client, msg paho.Message) {
	if msg.Retained() {
		return
	}
	target, err := strconv.Atoi(strings.TrimSpace(string(msg.Payload())))
	if err != nil {
		log.Warn().Str("payload", string(msg.Payload())).Msg("mqtt: bad subwoofer payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if _, err := b.stepper.SetSubwoofer(ctx, target); err != nil {
		log.Error().Err(err).Int("target", target).Msg("mqtt: set_subwoofer failed")
	}
}

// handleRestart hands control to the injected restart hook.
func (b *Bridge) handleRestart(_ paho.Client, msg paho.Message) {
	if msg.Retained() {
		return
	}
	log.Info().Msg("mqtt: restart requested")
	if b.opts.Restart != nil {
		b.opts.Restart()
	}
}

// handleResetPairing clears the stored bond and schedules re-pairing.
func (b *Bridge) handleResetPairing(_ paho.Client, msg paho.Message) {
	if msg.Retained() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := b.link.ResetPairing(ctx); err != nil {
		log.Error().Err(err).Msg("mqtt: reset_pairing failed")
		return
	}
	log.Info().Msg("mqtt: pairing reset")
}
