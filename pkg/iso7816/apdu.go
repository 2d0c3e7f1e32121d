package iso7816

import (
	"errors"
	"fmt"
)

// Only short length APDUs are built: a DESFire frame never carries more than
// 224 parameter bytes and every answer fits in one short Le.
//
//	Case 1: CLA INS P1 P2
//	Case 2: CLA INS P1 P2 Le
//	Case 3: CLA INS P1 P2 Lc DATA
//	Case 4: CLA INS P1 P2 Lc DATA Le
//
// Le = 00 asks for up to 256 bytes. The response is DATA followed by SW1 SW2.

const (
	// MaxShortLc is the largest data field a short APDU can carry.
	MaxShortLc = 255
	// MaxShortLe is the largest Ne a short APDU can ask for (encoded 00).
	MaxShortLe = 256
)

// ErrExtendedLength is returned for commands that would need extended Lc or Le.
var ErrExtendedLength = errors.New("iso7816: extended length APDU not supported")

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// NewCommandAPDU creates a basic command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Bytes encodes the command in short length form.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc, ne := len(c.Data), c.Ne
	if nc > MaxShortLc || ne < 0 || ne > MaxShortLe {
		return nil, fmt.Errorf("%w: Nc=%d Ne=%d", ErrExtendedLength, nc, ne)
	}

	class, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode Class: %w", err)
	}

	out := make([]byte, 0, 4+1+nc+1)
	out = append(out, class, byte(c.Instruction.Raw), c.P1, c.P2)
	if nc > 0 {
		out = append(out, byte(nc))
		out = append(out, c.Data...)
	}
	if ne > 0 {
		out = append(out, byte(ne%MaxShortLe))
	}
	return out, nil
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits raw card bytes into data and status word.
// The input must contain at least SW1 SW2.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	n := len(raw) - 2
	return &ResponseAPDU{
		Data:   raw[:n],
		Status: NewStatusWord(raw[n], raw[n+1]),
	}, nil
}

// Bytes returns the response as it came off the wire.
func (r *ResponseAPDU) Bytes() []byte {
	out := make([]byte, 0, len(r.Data)+2)
	out = append(out, r.Data...)
	return append(out, r.Status.SW1(), r.Status.SW2())
}
