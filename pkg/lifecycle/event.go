package lifecycle

import (
	"context"
	"fmt"

	"github.com/gregLibert/desfire-monitor/pkg/desfire"
)

// Card is a connected card: a byte transport that must be released.
// A Card may also expose ATR() []byte, used when the event carries no ATR.
type Card interface {
	desfire.Transport
	Close() error
}

// Connector opens a transport to the card currently in the reader.
type Connector func() (Card, error)

// EventKind tells insertions from removals.
type EventKind int

const (
	Inserted EventKind = iota + 1
	Removed
)

func (k EventKind) String() string {
	switch k {
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a card presence change observed on a reader.
type Event struct {
	Kind   EventKind
	Reader string

	// Set on insertions only.
	ATR     []byte
	Connect Connector
	// Present is done once the card has left the field. Its cause is
	// desfire.ErrCardRemoved.
	Present context.Context
}
