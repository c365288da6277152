package bluetooth

import "errors"

var (
	// ErrNotConnected indicates the link is not up; callers should retry
	// after the next link-state event.
	ErrNotConnected = errors.New("soundbar not connected")

	// ErrWriteIncomplete indicates fewer bytes were accepted than requested.
	ErrWriteIncomplete = errors.New("short write to soundbar")

	// ErrConnectFailed indicates a connection attempt failed; maintain()
	// retries it on the reconnect delay.
	ErrConnectFailed = errors.New("connect failed")

	// ErrInvalidResponse indicates a malformed or absent device reply.
	ErrInvalidResponse = errors.New("invalid status response")

	// ErrUnsupported indicates the transport cannot perform an operation.
	ErrUnsupported = errors.New("operation not supported by transport")
)
