// Package poller reconciles polled soundbar state into change events and
// implements the stepped volume and subwoofer helpers.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hwalsh/yasbridge/pkg/bluetooth"
	"github.com/hwalsh/yasbridge/pkg/bus"
	"github.com/hwalsh/yasbridge/pkg/yas"
)

// Link is the slice of the link manager the synchronizer needs.
type Link interface {
	Connected() bool
	RequestStatus(ctx context.Context) yas.Status
	SendCommand(ctx context.Context, name string) error
}

const (
	// VolumeMax is the device's volume range ceiling.
	VolumeMax = 50
	// SubwooferMax is the device's subwoofer range ceiling.
	SubwooferMax = 32
	// subwooferStep is how far one subwoofer command moves the level.
	subwooferStep = 4

	// Safety caps against a corrupt target causing a runaway burst.
	volumeStepCap    = 50
	subwooferStepCap = 8
)

// Config holds the synchronizer's timing knobs. Zero values take defaults.
type Config struct {
	Interval time.Duration // poll cadence
	Pace     time.Duration // between stepped unit commands
	Settle   time.Duration // before the post-burst re-poll
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.Pace <= 0 {
		c.Pace = 50 * time.Millisecond
	}
	if c.Settle <= 0 {
		c.Settle = 100 * time.Millisecond
	}
}

// Synchronizer polls the soundbar through the link manager, holds the single
// last-known-good snapshot, and emits a change event only on a field-level
// difference. Snapshots are replaced wholesale, never field-mutated.
type Synchronizer struct {
	cfg  Config
	link Link
	bus  *bus.Bus

	clock func() time.Time
	sleep func(time.Duration)

	mu       sync.Mutex
	lastPoll time.Time
	last     yas.Status
	haveLast bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock substitutes the time source and sleep used for pacing.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(s *Synchronizer) {
		s.clock = now
		s.sleep = sleep
	}
}

// New creates a Synchronizer.
func New(cfg Config, link Link, b *bus.Bus, opts ...Option) *Synchronizer {
	cfg.applyDefaults()
	s := &Synchronizer{
		cfg:   cfg,
		link:  link,
		bus:   b,
		clock: time.Now,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Last returns the cached snapshot and whether one exists yet.
func (s *Synchronizer) Last() (yas.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.haveLast
}

// Tick runs one poll cycle when due. A failed or invalid poll leaves the
// cache untouched and emits nothing; polling frequently is what catches
// changes made by the physical remote.
func (s *Synchronizer) Tick(ctx context.Context) {
	if !s.link.Connected() {
		return
	}

	s.mu.Lock()
	now := s.clock()
	if now.Sub(s.lastPoll) < s.cfg.Interval {
		s.mu.Unlock()
		return
	}
	s.lastPoll = now
	s.mu.Unlock()

	status := s.link.RequestStatus(ctx)
	if !status.Valid {
		return
	}
	s.applySnapshot(status)
}

// applySnapshot replaces the cache and emits an event only when the new
// snapshot differs field-by-field from the cached one (or is the first).
func (s *Synchronizer) applySnapshot(status yas.Status) {
	s.mu.Lock()
	changed := !s.haveLast || !status.Equal(s.last)
	s.last = status
	s.haveLast = true
	s.mu.Unlock()

	if changed {
		s.bus.PublishStatus(status)
	}
}

// publishSnapshot replaces the cache and always emits, for the final event
// after a stepped burst.
func (s *Synchronizer) publishSnapshot(status yas.Status) {
	s.mu.Lock()
	s.last = status
	s.haveLast = true
	s.mu.Unlock()
	s.bus.PublishStatus(status)
}

// SetVolume steps the volume to target by issuing unit commands, then
// re-polls and emits the final snapshot.
func (s *Synchronizer) SetVolume(ctx context.Context, target int) (yas.Status, error) {
	if target < 0 || target > VolumeMax {
		return yas.InvalidStatus(), fmt.Errorf("volume target %d out of range 0-%d", target, VolumeMax)
	}
	return s.step(ctx, target, "volume_up", "volume_down", 1, volumeStepCap, func(st yas.Status) int {
		return st.Volume
	})
}

// SetSubwoofer steps the subwoofer level to target. Each device command
// moves the level by exactly 4, so the step count is the raw difference
// divided by 4 (rounded toward zero).
func (s *Synchronizer) SetSubwoofer(ctx context.Context, target int) (yas.Status, error) {
	if target < 0 || target > SubwooferMax {
		return yas.InvalidStatus(), fmt.Errorf("subwoofer target %d out of range 0-%d", target, SubwooferMax)
	}
	return s.step(ctx, target, "subwoofer_up", "subwoofer_down", subwooferStep, subwooferStepCap, func(st yas.Status) int {
		return st.Subwoofer
	})
}

func (s *Synchronizer) step(ctx context.Context, target int, up, down string, unit, maxSteps int, read func(yas.Status) int) (yas.Status, error) {
	if !s.link.Connected() {
		return yas.InvalidStatus(), bluetooth.ErrNotConnected
	}

	current := s.link.RequestStatus(ctx)
	if !current.Valid {
		return yas.InvalidStatus(), bluetooth.ErrInvalidResponse
	}

	diff := target - read(current)
	if diff == 0 {
		return current, nil
	}

	cmd := up
	if diff < 0 {
		cmd = down
		diff = -diff
	}

	steps := diff / unit
	if steps > maxSteps {
		steps = maxSteps
	}

	log.Debug().
		Str("command", cmd).
		Int("from", read(current)).
		Int("to", target).
		Int("steps", steps).
		Msg("stepped adjustment")

	for i := 0; i < steps; i++ {
		if err := s.link.SendCommand(ctx, cmd); err != nil {
			return yas.InvalidStatus(), fmt.Errorf("step %d/%d: %w", i+1, steps, err)
		}
		s.sleep(s.cfg.Pace)
	}

	s.sleep(s.cfg.Settle)
	final := s.link.RequestStatus(ctx)
	if !final.Valid {
		return yas.InvalidStatus(), bluetooth.ErrInvalidResponse
	}
	s.publishSnapshot(final)
	return final, nil
}
