package bluetooth

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// SerialTransport implements Transport over an rfcomm tty. The kernel's
// Bluetooth stack owns pairing, bonding, and the RFCOMM channel; opening the
// tty triggers the connection to the bound address, so connect-by-name and
// bond management are not expressible at this level.
type SerialTransport struct {
	tty  string
	mu   sync.Mutex
	port serial.Port
	open bool

	events chan Event
}

// NewSerialTransport creates a transport for the given rfcomm device node.
func NewSerialTransport(tty string) *SerialTransport {
	return &SerialTransport{
		tty:    tty,
		events: make(chan Event, 16),
	}
}

// ConnectAddress opens the tty at 115200 baud, 8N1. The address must match
// the one the device node is bound to; the kernel performs the actual
// baseband connect during open.
func (t *SerialTransport) ConnectAddress(addr string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.open {
		return nil
	}

	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(t.tty, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.tty, err)
	}

	// Short read timeout so ReadByte can report "no byte pending" instead
	// of blocking the exchange loop.
	if err := port.SetReadTimeout(10 * time.Millisecond); err != nil {
		_ = port.Close()
		return fmt.Errorf("set read timeout on %s: %w", t.tty, err)
	}

	t.port = port
	t.open = true
	log.Info().Str("tty", t.tty).Str("addr", addr).Msg("RFCOMM tty opened")
	t.emit(Event{Type: EventLinkOpened, Detail: addr})

	return nil
}

// ConnectName cannot run an inquiry through a bound tty.
func (t *SerialTransport) ConnectName(name string) error {
	return fmt.Errorf("%w: connect by name %q needs discovery", ErrUnsupported, name)
}

func (t *SerialTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return nil
	}
	t.open = false
	err := t.port.Close()
	t.port = nil
	t.emit(Event{Type: EventLinkClosed})
	if err != nil {
		return fmt.Errorf("close %s: %w", t.tty, err)
	}
	return nil
}

func (t *SerialTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *SerialTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return 0, ErrNotConnected
	}
	n, err := t.port.Write(p)
	if err != nil {
		t.closeOnError(err)
	}
	return n, err
}

func (t *SerialTransport) ReadByte() (byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return 0, false, ErrNotConnected
	}

	buf := make([]byte, 1)
	n, err := t.port.Read(buf)
	if err != nil {
		t.closeOnError(err)
		return 0, false, err
	}
	if n == 0 {
		// Read timeout expired with nothing pending.
		return 0, false, nil
	}
	return buf[0], true, nil
}

// closeOnError tears the port down after an I/O failure so Connected()
// reflects the lost link. Caller holds the mutex.
func (t *SerialTransport) closeOnError(err error) {
	log.Warn().Err(err).Str("tty", t.tty).Msg("RFCOMM I/O error, closing")
	t.open = false
	if t.port != nil {
		_ = t.port.Close()
		t.port = nil
	}
	t.emit(Event{Type: EventLinkClosed, Detail: err.Error()})
}

// BondedDevices is unavailable through a tty; the kernel owns the bond list.
func (t *SerialTransport) BondedDevices() []string { return nil }

// RemoveBond is unavailable through a tty.
func (t *SerialTransport) RemoveBond(addr string) error {
	return fmt.Errorf("%w: remove bond for %s", ErrUnsupported, addr)
}

// ReplyPin is handled by the OS pairing agent for tty links.
func (t *SerialTransport) ReplyPin(string) error { return nil }

// ConfirmPairing is handled by the OS pairing agent for tty links.
func (t *SerialTransport) ConfirmPairing(bool) error { return nil }

func (t *SerialTransport) Events() <-chan Event { return t.events }

func (t *SerialTransport) emit(evt Event) {
	select {
	case t.events <- evt:
	default:
	}
}
