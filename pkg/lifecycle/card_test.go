package lifecycle

import (
	"errors"

	"github.com/gregLibert/desfire-monitor/pkg/desfire"
)

// stubCard answers ISO wrapped DESFire commands. reply returns the native
// answer [status][payload...] for each command byte.
type stubCard struct {
	reply  func(cmd desfire.Command) []byte
	sent   []desfire.Command
	closed int
}

func (c *stubCard) Transmit(raw []byte) ([]byte, error) {
	if len(raw) < 2 {
		return nil, errors.New("short apdu")
	}
	cmd := desfire.Command(raw[1])
	c.sent = append(c.sent, cmd)

	resp := c.reply(cmd)
	out := append([]byte(nil), resp[1:]...)
	return append(out, 0x91, resp[0]), nil
}

func (c *stubCard) Close() error {
	c.closed++
	return nil
}

// atrCard is a stubCard that reports its answer to reset after connection.
type atrCard struct {
	*stubCard
	atr []byte
}

func (c *atrCard) ATR() []byte { return c.atr }

// desfireCard models a card carrying the given applications, each with a
// file 0 holding file.
func desfireCard(file []byte, apps ...desfire.AID) *stubCard {
	var dir []byte
	for _, a := range apps {
		dir = append(dir, a.Bytes()...)
	}
	return &stubCard{reply: func(cmd desfire.Command) []byte {
		switch cmd {
		case desfire.CmdGetApplicationIDs:
			return append([]byte{byte(desfire.StatusOK)}, dir...)
		case desfire.CmdReadData:
			return append([]byte{byte(desfire.StatusOK)}, file...)
		default:
			return []byte{byte(desfire.StatusOK)}
		}
	}}
}

// connectorFor counts how many transports were opened.
type connectorFor struct {
	card  Card
	err   error
	calls int
}

func (c *connectorFor) connect() (Card, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.card, nil
}
