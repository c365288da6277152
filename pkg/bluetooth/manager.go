package bluetooth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hwalsh/yasbridge/pkg/yas"
)

// State is the link state owned exclusively by the Manager.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateConnecting    State = "connecting"
	StateConnected     State = "connected"
	StateDisconnected  State = "disconnected"
	StateConnectFailed State = "connect_failed"
	StatePairingReset  State = "pairing_reset"
)

// Stats are monotonically increasing link counters. They are never reset
// while the process lives.
type Stats struct {
	ConnectAttempts     uint64        `json:"connect_attempts"`
	ConnectSuccesses    uint64        `json:"connect_successes"`
	ConnectFailures     uint64        `json:"connect_failures"`
	Disconnects         uint64        `json:"disconnects"`
	LastConnectDuration time.Duration `json:"last_connect_duration_ms"`
	TotalConnectedTime  time.Duration `json:"total_connected_time_ms"`
	BytesSent           uint64        `json:"bytes_sent"`
	BytesReceived       uint64        `json:"bytes_received"`
	LastError           string        `json:"last_error"`
}

// BondStore persists the single bonding flag across restarts.
type BondStore interface {
	Paired(ctx context.Context) (bool, error)
	SetPaired(ctx context.Context, paired bool) error
}

// Config holds the Manager's tunables. Zero durations take defaults.
type Config struct {
	// Address is the peripheral's hardware address; empty or all-zeroes
	// means "unconfigured", skipping the direct-connect phase.
	Address string
	// Name is the advertised name used as connection fallback.
	Name string
	// PIN answers legacy pairing requests.
	PIN string

	ReconnectDelay time.Duration // between automatic connect attempts
	AttemptPause   time.Duration // between the rapid direct attempts
	StatusTimeout  time.Duration // total bound on a status exchange
	IdleTimeout    time.Duration // inter-byte bound once bytes arrived
	HoldOff        time.Duration // reconnect suppression after pairing reset
}

const (
	defaultReconnectDelay = 10 * time.Second
	defaultAttemptPause   = 2 * time.Second
	defaultStatusTimeout  = 3 * time.Second
	defaultIdleTimeout    = 100 * time.Millisecond
	defaultHoldOff        = 30 * time.Second

	directAttempts    = 3
	statusResponseMax = 64
	placeholderAddr   = "00:00:00:00:00:00"
)

func (c *Config) applyDefaults() {
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = defaultReconnectDelay
	}
	if c.AttemptPause <= 0 {
		c.AttemptPause = defaultAttemptPause
	}
	if c.StatusTimeout <= 0 {
		c.StatusTimeout = defaultStatusTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.HoldOff <= 0 {
		c.HoldOff = defaultHoldOff
	}
}

// Encoder frames commands for the wire. It exists so tests can substitute
// payloads; production code passes the yas codec.
type Encoder func(name string) ([]byte, error)

// Manager owns the radio connection, pairing state, and statistics. Every
// exchange (write plus bounded read) runs to completion under one mutex, so
// the link carries at most one outstanding request/response at a time no
// matter how many front ends call in.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	tr     Transport
	bonds  BondStore
	encode Encoder

	// clock and sleep are injection points for tests.
	clock func() time.Time
	sleep func(time.Duration)

	state       State
	stateSince  time.Time
	stateDetail string
	notify      func(state State, detail string)

	stats          Stats
	paired         bool
	connectedSince time.Time
	lastAttempt    time.Time
	holdOffUntil   time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock substitutes the time source and sleep used for delays.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(m *Manager) {
		m.clock = now
		m.sleep = sleep
	}
}

// WithNotify registers a callback invoked on every state transition, after
// the transition is recorded. It runs with the Manager lock held, so it must
// not call back in.
func WithNotify(fn func(state State, detail string)) Option {
	return func(m *Manager) { m.notify = fn }
}

// NewManager creates a Manager in the uninitialized state.
func NewManager(cfg Config, tr Transport, bonds BondStore, encode Encoder, opts ...Option) *Manager {
	cfg.applyDefaults()
	m := &Manager{
		cfg:    cfg,
		tr:     tr,
		bonds:  bonds,
		encode: encode,
		clock:  time.Now,
		sleep:  time.Sleep,
		state:  StateUninitialized,
	}
	m.stateSince = m.clock()
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadBonding restores the persisted pairing flag. Called once at startup.
func (m *Manager) LoadBonding(ctx context.Context) error {
	paired, err := m.bonds.Paired(ctx)
	if err != nil {
		return fmt.Errorf("load bonding flag: %w", err)
	}
	m.mu.Lock()
	m.paired = paired
	m.mu.Unlock()
	log.Info().Bool("paired", paired).Msg("BT bonding flag loaded")
	return nil
}

// State returns the current link state with its failure detail.
func (m *Manager) State() (State, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.stateDetail
}

// Connected reports whether the link is up.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected
}

// Paired reports the persisted bonding flag.
func (m *Manager) Paired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paired
}

// Stats returns a snapshot of the counters. Connected time includes the
// live span of the current connection.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.stats
	if m.state == StateConnected {
		snapshot.TotalConnectedTime += m.clock().Sub(m.connectedSince)
	}
	return snapshot
}

// setState records a transition. Caller holds the mutex.
func (m *Manager) setState(state State, detail string) {
	m.state = state
	m.stateSince = m.clock()
	m.stateDetail = detail
	if detail != "" {
		m.stats.LastError = detail
		log.Info().Str("state", string(state)).Str("detail", detail).Msg("BT state")
	} else {
		log.Info().Str("state", string(state)).Msg("BT state")
	}
	if m.notify != nil {
		m.notify(state, detail)
	}
}

// Connect establishes the link. It is idempotent: when already connected it
// performs no radio I/O and leaves the statistics untouched.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked(ctx)
}

func (m *Manager) connectLocked(ctx context.Context) error {
	if m.state == StateConnected && m.tr.Connected() {
		return nil
	}

	m.lastAttempt = m.clock()
	m.stats.ConnectAttempts++
	m.setState(StateConnecting, "")

	log.Info().
		Uint64("attempt", m.stats.ConnectAttempts).
		Str("name", m.cfg.Name).
		Msg("BT connecting")

	// Shed a stale half-open link before trying.
	if m.tr.Connected() {
		_ = m.tr.Disconnect()
	}

	start := m.clock()
	connected := false

	// Direct connection by address first: it skips discovery, and some
	// peripherals need a wake attempt before accepting the real one.
	if addr := m.cfg.Address; addr != "" && addr != placeholderAddr {
		for attempt := 1; attempt <= directAttempts && !connected; attempt++ {
			err := m.tr.ConnectAddress(addr)
			if err == nil {
				connected = true
				log.Info().Int("attempt", attempt).Msg("BT direct connect succeeded")
			} else {
				log.Debug().Err(err).Int("attempt", attempt).Msg("BT direct connect failed")
				if attempt < directAttempts {
					m.sleep(m.cfg.AttemptPause)
				}
			}
		}
	}

	// Fall back to connection by advertised name, which may run an inquiry.
	if !connected && m.cfg.Name != "" {
		if err := m.tr.ConnectName(m.cfg.Name); err == nil {
			connected = true
			log.Info().Str("name", m.cfg.Name).Msg("BT name connect succeeded")
		} else {
			log.Debug().Err(err).Str("name", m.cfg.Name).Msg("BT name connect failed")
		}
	}

	m.stats.LastConnectDuration = m.clock().Sub(start)

	if !connected {
		m.stats.ConnectFailures++
		m.setState(StateConnectFailed, fmt.Sprintf("attempt_%d", m.stats.ConnectAttempts))
		return ErrConnectFailed
	}

	m.stats.ConnectSuccesses++
	m.connectedSince = m.clock()
	m.setState(StateConnected, "")

	// The bonding flag is persisted on the first-ever success only.
	if !m.paired {
		m.paired = true
		if err := m.bonds.SetPaired(ctx, true); err != nil {
			log.Warn().Err(err).Msg("BT failed to persist bonding flag")
		}
	}

	return nil
}

// Maintain reconciles local state with the transport and drives automatic
// reconnection. Called once per scheduler tick.
func (m *Manager) Maintain(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.drainEventsLocked()

	linkUp := m.tr.Connected()

	// The radio stack saw a connection this manager did not initiate.
	if linkUp && m.state != StateConnected {
		m.connectedSince = m.clock()
		m.setState(StateConnected, "")
	}

	// Connection loss.
	if !linkUp && m.state == StateConnected {
		m.stats.TotalConnectedTime += m.clock().Sub(m.connectedSince)
		m.stats.Disconnects++
		m.setState(StateDisconnected, "")
	}

	if m.state == StateConnected {
		return
	}

	now := m.clock()
	if now.Before(m.holdOffUntil) {
		return
	}
	if now.Sub(m.lastAttempt) <= m.cfg.ReconnectDelay {
		return
	}
	_ = m.connectLocked(ctx)
}

// drainEventsLocked processes pending radio events synchronously within the
// Manager's tick. Pairing follows a Just Works policy: confirmations are
// auto-accepted and legacy PIN requests answered with the fixed PIN.
func (m *Manager) drainEventsLocked() {
	for {
		select {
		case evt := <-m.tr.Events():
			switch evt.Type {
			case EventAuthComplete:
				log.Info().Str("detail", evt.Detail).Msg("BT authentication complete")
			case EventPinRequest:
				log.Info().Msg("BT legacy PIN request, replying")
				if err := m.tr.ReplyPin(m.cfg.PIN); err != nil {
					log.Warn().Err(err).Msg("BT PIN reply failed")
				}
			case EventConfirmRequest:
				log.Info().Msg("BT SSP confirmation request, auto-accepting")
				if err := m.tr.ConfirmPairing(true); err != nil {
					log.Warn().Err(err).Msg("BT confirm reply failed")
				}
			case EventLinkOpened, EventLinkClosed:
				// State reconciliation below reads tr.Connected directly.
				log.Debug().Str("event", string(evt.Type)).Str("detail", evt.Detail).Msg("BT link event")
			}
		default:
			return
		}
	}
}

// ResetPairing clears the persisted bond and holds off reconnection for the
// configured window so the operator can put the peripheral back into pairing
// mode.
func (m *Manager) ResetPairing(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.paired = false
	if err := m.bonds.SetPaired(ctx, false); err != nil {
		return fmt.Errorf("clear bonding flag: %w", err)
	}

	if addr := m.cfg.Address; addr != "" && addr != placeholderAddr {
		if err := m.tr.RemoveBond(addr); err != nil {
			log.Warn().Err(err).Str("addr", addr).Msg("BT remove bond failed")
		}
	}

	if m.state == StateConnected || m.tr.Connected() {
		if err := m.tr.Disconnect(); err != nil {
			log.Warn().Err(err).Msg("BT disconnect during pairing reset failed")
		}
	}

	m.holdOffUntil = m.clock().Add(m.cfg.HoldOff)
	m.setState(StatePairingReset, "")
	log.Info().Dur("hold_off", m.cfg.HoldOff).Msg("BT pairing reset")
	return nil
}

// ForceReconnect clears the hold-off deadline and the last-attempt stamp so
// the next Maintain tick retries immediately.
func (m *Manager) ForceReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holdOffUntil = time.Time{}
	m.lastAttempt = time.Time{}
	log.Info().Msg("BT reconnect forced")
}

// SendCommand frames and writes a named command.
func (m *Manager) SendCommand(ctx context.Context, name string) error {
	frame, err := m.encode(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(name, frame)
}

func (m *Manager) writeLocked(name string, frame []byte) error {
	if m.state != StateConnected {
		return ErrNotConnected
	}

	n, err := m.tr.Write(frame)
	m.stats.BytesSent += uint64(n)
	if err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	if n < len(frame) {
		return fmt.Errorf("%w: %q sent %d of %d bytes", ErrWriteIncomplete, name, n, len(frame))
	}

	log.Debug().Str("command", name).Hex("frame", frame).Msg("CMD TX")
	return nil
}

// RequestStatus runs one full status exchange: flush stale bytes, send the
// report request, read with total and inter-byte timeouts, decode. The whole
// exchange holds the Manager lock, preserving the one-outstanding-exchange
// invariant. Timeouts and absent replies yield an invalid status rather than
// an error; the synchronizer absorbs those silently.
func (m *Manager) RequestStatus(ctx context.Context) yas.Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnected {
		return yas.InvalidStatus()
	}

	// A prior exchange may have left trailing bytes.
	flushed := 0
	for {
		_, ok, err := m.tr.ReadByte()
		if err != nil || !ok {
			break
		}
		flushed++
	}
	if flushed > 0 {
		log.Debug().Int("flushed", flushed).Msg("STATUS stale bytes discarded")
	}

	frame, err := m.encode("report_status")
	if err != nil {
		return yas.InvalidStatus()
	}
	if err := m.writeLocked("report_status", frame); err != nil {
		log.Warn().Err(err).Msg("STATUS request write failed")
		return yas.InvalidStatus()
	}

	// Bounded poll loop: the idle timeout stops the read as soon as the
	// peripheral pauses mid-frame, the total timeout bounds the worst case.
	start := m.clock()
	lastByte := start
	buf := make([]byte, 0, statusResponseMax)

	for m.clock().Sub(start) < m.cfg.StatusTimeout && len(buf) < statusResponseMax {
		b, ok, err := m.tr.ReadByte()
		if err != nil {
			log.Warn().Err(err).Msg("STATUS read failed")
			break
		}
		if ok {
			buf = append(buf, b)
			m.stats.BytesReceived++
			lastByte = m.clock()
			continue
		}
		if len(buf) > 0 && m.clock().Sub(lastByte) > m.cfg.IdleTimeout {
			break
		}
		m.sleep(time.Millisecond)
	}

	if len(buf) == 0 {
		log.Debug().Dur("waited", m.clock().Sub(start)).Msg("STATUS no response")
		return yas.InvalidStatus()
	}

	status := yas.DecodeStatus(buf)
	if status.Valid {
		log.Debug().
			Bool("power", status.Power).
			Str("input", string(status.Input)).
			Int("volume", status.Volume).
			Str("surround", string(status.Surround)).
			Msg("STATUS decoded")
	} else {
		log.Warn().Hex("response", buf).Msg("STATUS undecodable response")
	}
	return status
}
