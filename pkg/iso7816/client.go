package iso7816

import (
	"fmt"
)

// The Client drives one logical command over the physical connection and
// resolves the ISO 7816-3 transport procedures that T=0 readers surface to
// the application layer:
//
// 1. "61 XX" (Response Available): a GET RESPONSE with Le = XX is issued.
// 2. "6C XX" (Wrong Length): the original command is re-sent with Le = XX.
//
// DESFire "91 AF" is NOT handled here. It belongs to the DESFire framing and
// is returned to the caller, which issues the continuation itself.

// MaxAutoSteps bounds the number of automatic follow-up transactions for one Send.
const MaxAutoSteps = 16

// Transmitter abstracts the physical card connection.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
type Client struct {
	Card Transmitter
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

// Send transmits a command and handles protocol logic (61xx, 6Cxx).
// The returned Trace holds every transaction, including the failed one.
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	var trace Trace

	for step := 0; ; step++ {
		if step > MaxAutoSteps {
			return trace, fmt.Errorf("too many automatic steps (%d)", step)
		}

		resp, err := c.transmit(cmd)
		if err != nil {
			return trace, err
		}
		trace = append(trace, Transaction{Command: cmd, Response: resp})

		sw1 := resp.Status.SW1()
		sw2 := resp.Status.SW2()

		switch sw1 {
		case 0x61:
			cmd = getResponseFor(cmd, sw2)
		case 0x6C:
			retry := *cmd
			retry.Ne = int(sw2)
			if retry.Ne == 0 {
				retry.Ne = MaxShortLe
			}
			cmd = &retry
		default:
			return trace, nil
		}
	}
}

func (c *Client) transmit(cmd *CommandAPDU) (*ResponseAPDU, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.Card.Transmit(rawCmd)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}

	return ParseResponseAPDU(rawResp)
}

// getResponseFor builds the GET RESPONSE following cmd.
// ISO 7816-4 requires the same logical channel; proprietary classes
// (DESFire 0x90) fall back to the basic interindustry class.
func getResponseFor(cmd *CommandAPDU, available byte) *CommandAPDU {
	respCls := cmd.Class
	respCls.IsChained = false
	if respCls.IsProprietary {
		respCls = Class{}
	}

	ne := int(available)
	if ne == 0 {
		ne = MaxShortLe
	}

	ins, _ := NewInstruction(INS_GET_RESPONSE)
	return NewCommandAPDU(respCls, ins, 0x00, 0x00, nil, ne)
}
