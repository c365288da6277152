// Package yas implements the soundbar's binary serial protocol: framing of
// outgoing commands and fixed-offset decoding of status reports. All
// functions are pure; I/O belongs to the bluetooth package.
package yas

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrUnknownCommand is returned when a command name is not in the table.
var ErrUnknownCommand = errors.New("unknown command")

// Frame layout: prefix(2) + length(1) + payload + checksum(1).
const (
	framePrefix0 = 0xCC
	framePrefix1 = 0xAA
)

// Encode frames a named command for transmission.
func Encode(name string) ([]byte, error) {
	payloadHex, ok := commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		return nil, fmt.Errorf("decode payload for %q: %w", name, err)
	}

	frame := make([]byte, 0, len(payload)+4)
	frame = append(frame, framePrefix0, framePrefix1, byte(len(payload)))
	frame = append(frame, payload...)
	frame = append(frame, Checksum(payload))
	return frame, nil
}

// Checksum computes the trailing frame byte: the two's complement of the sum
// of the length byte and every payload byte, masked to 8 bits.
func Checksum(payload []byte) byte {
	sum := len(payload)
	for _, b := range payload {
		sum += int(b)
	}
	return byte(-sum & 0xFF)
}
