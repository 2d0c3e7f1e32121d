// Package pcsc connects the card lifecycle to a PC/SC reader: reader
// discovery, card presence polling and the byte transport.
package pcsc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ebfe/scard"
	"github.com/gregLibert/desfire-monitor/pkg/lifecycle"
)

var (
	// ErrNoReader is returned when no contactless reader is attached.
	ErrNoReader = errors.New("pcsc: no contactless reader found")
	// ErrReaderGone is returned by a Watcher once its reader disappeared.
	ErrReaderGone = errors.New("pcsc: reader unavailable")
)

// Context is an established PC/SC resource manager context.
type Context struct {
	ctx *scard.Context
}

// Establish opens a PC/SC context. On Linux this needs a running pcscd.
func Establish() (*Context, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("pcsc: establish context (is pcscd running?): %w", err)
	}
	return &Context{ctx: ctx}, nil
}

// Release frees the context.
func (c *Context) Release() error {
	return c.ctx.Release()
}

// Readers lists the contactless (PICC) readers. SAM slots are left out.
func (c *Context) Readers() ([]string, error) {
	names, err := c.ctx.ListReaders()
	if errors.Is(err, scard.ErrNoReadersAvailable) {
		return nil, ErrNoReader
	}
	if err != nil {
		return nil, fmt.Errorf("pcsc: list readers: %w", err)
	}

	readers := FilterPICC(names)
	if len(readers) == 0 {
		return nil, ErrNoReader
	}
	return readers, nil
}

// FilterPICC drops SAM slots from a reader list, keeping order.
func FilterPICC(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !IsSAM(name) {
			out = append(out, name)
		}
	}
	return out
}

// IsSAM reports whether a reader name designates a SAM slot. Readers without
// a type in their name (some ACR122U models) count as contactless.
func IsSAM(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, " sam") || strings.Contains(lower, "sam ")
}

// SelectReader picks the first reader whose name contains want
// (case-insensitive), or the first reader when want is empty.
func SelectReader(readers []string, want string) (string, error) {
	if len(readers) == 0 {
		return "", ErrNoReader
	}
	if want == "" {
		return readers[0], nil
	}

	needle := strings.ToLower(want)
	for _, r := range readers {
		if strings.Contains(strings.ToLower(r), needle) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: none matches %q", ErrNoReader, want)
}

// Connect opens the card in reader, shared, with T=0 or T=1.
func (c *Context) Connect(reader string) (*Card, error) {
	// Forcing T=0|T=1 avoids "Parameter Incorrect" on some drivers.
	card, err := c.ctx.Connect(reader, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		return nil, fmt.Errorf("pcsc: connect %q: %w", reader, err)
	}

	out := &Card{card: card}
	if st, err := card.Status(); err == nil {
		out.atr = st.Atr
	}
	return out, nil
}

// Connector binds Connect to one reader for the lifecycle.
func (c *Context) Connector(reader string) lifecycle.Connector {
	return func() (lifecycle.Card, error) {
		card, err := c.Connect(reader)
		if err != nil {
			return nil, err
		}
		return card, nil
	}
}

// Card is a connected PC/SC card.
type Card struct {
	card *scard.Card
	atr  []byte
}

// Transmit sends raw bytes and returns the card answer.
func (c *Card) Transmit(cmd []byte) ([]byte, error) {
	return c.card.Transmit(cmd)
}

// Close disconnects, leaving the card powered.
func (c *Card) Close() error {
	return c.card.Disconnect(scard.LeaveCard)
}

// ATR returns the answer to reset read at connection time.
func (c *Card) ATR() []byte {
	return c.atr
}
