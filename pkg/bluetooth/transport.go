// Package bluetooth owns the serial-over-radio link to the soundbar: the
// transport boundary to the platform radio stack and the Manager that runs
// the connection state machine on top of it.
package bluetooth

// EventType classifies an asynchronous radio event.
type EventType string

const (
	EventAuthComplete   EventType = "auth_complete"
	EventPinRequest     EventType = "pin_request"
	EventConfirmRequest EventType = "confirm_request"
	EventLinkOpened     EventType = "link_opened"
	EventLinkClosed     EventType = "link_closed"
)

// Event is a radio-stack callback delivered as data. The Manager drains
// these inside Maintain rather than reacting on a stack-owned goroutine.
type Event struct {
	Type   EventType
	Detail string
}

// Transport is the capability the platform radio stack provides: an SPP
// byte stream plus pairing and bond management primitives. Implementations
// must be safe for use by a single goroutine at a time; the Manager
// serializes all access.
type Transport interface {
	// ConnectAddress attempts a direct connection to a hardware address.
	ConnectAddress(addr string) error
	// ConnectName attempts a connection by advertised name, which may
	// trigger a discovery phase.
	ConnectName(name string) error
	Disconnect() error
	Connected() bool

	Write(p []byte) (int, error)
	// ReadByte returns the next pending byte, or ok=false when none is
	// buffered. It never blocks.
	ReadByte() (b byte, ok bool, err error)

	BondedDevices() []string
	RemoveBond(addr string) error

	// ReplyPin answers a legacy PIN request.
	ReplyPin(pin string) error
	// ConfirmPairing answers an SSP user-confirmation request.
	ConfirmPairing(accept bool) error

	// Events returns the radio event stream. The channel is buffered;
	// implementations drop events rather than block.
	Events() <-chan Event
}
