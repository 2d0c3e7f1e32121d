package desfire

import (
	"errors"
	"fmt"

	"github.com/gregLibert/desfire-monitor/pkg/iso7816"
)

var (
	// ErrMalformedResponse is returned when a frame cannot be decoded or its
	// payload does not have the shape the command defines.
	ErrMalformedResponse = errors.New("desfire: malformed response")
	// ErrResponseTooLong is returned when a card keeps answering 0xAF past the frame bound.
	ErrResponseTooLong = errors.New("desfire: response exceeds frame limit")
	// ErrApplicationNotFound matches a ProtocolError with status 0xA0.
	ErrApplicationNotFound = errors.New("desfire: application not found")
	// ErrNoApplicationSelected is returned by file commands issued before SelectApplication.
	ErrNoApplicationSelected = errors.New("desfire: no application selected")
	// ErrFileNotFound matches a ProtocolError with status 0xF0.
	ErrFileNotFound = errors.New("desfire: file not found")
	// ErrTransportUnavailable wraps any failure of the underlying transport.
	ErrTransportUnavailable = errors.New("desfire: transport unavailable")
	// ErrFrameTooLarge is returned when parameters exceed MaxFrameSize.
	ErrFrameTooLarge = errors.New("desfire: command frame too large")
	// ErrParameterRange is returned for file numbers, offsets or lengths the
	// command cannot encode.
	ErrParameterRange = errors.New("desfire: parameter out of range")
	// ErrCardRemoved is the cancellation cause used when the card leaves the field.
	ErrCardRemoved = errors.New("desfire: card removed")
)

// ProtocolError is a non-success status returned by the card.
// SW is set instead of Status when the reader or card rejected the ISO
// wrapping itself (anything but 91XX / 9000).
type ProtocolError struct {
	Command Command
	Status  Status
	SW      iso7816.StatusWord
}

func (e *ProtocolError) Error() string {
	if e.SW != 0 {
		return fmt.Sprintf("%s failed: %s", e.Command, e.SW.Verbose())
	}
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Command, e.Status, byte(e.Status))
}

// Is maps card statuses to the package sentinels.
func (e *ProtocolError) Is(target error) bool {
	if e.SW != 0 {
		return false
	}
	switch target {
	case ErrApplicationNotFound:
		return e.Status == StatusApplicationNotFound
	case ErrFileNotFound:
		return e.Status == StatusFileNotFound
	}
	return false
}
