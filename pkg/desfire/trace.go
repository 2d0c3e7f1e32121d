package desfire

import (
	"fmt"
	"strings"

	"github.com/gregLibert/desfire-monitor/pkg/hexfmt"
	"github.com/gregLibert/desfire-monitor/pkg/iso7816"
)

// Exchange is one request/response round trip of a logical command.
// With ISO framing, Steps holds every APDU the frame took, including the
// GET RESPONSE or Le retry a T=0 reader asks for.
type Exchange struct {
	Command  Command
	Request  []byte
	Response []byte
	Frame    Frame
	Steps    iso7816.Trace
}

// Trace is the ordered list of frames exchanged for one logical command.
type Trace []Exchange

// Payload concatenates every frame payload in order.
func (t Trace) Payload() []byte {
	var out []byte
	for _, ex := range t {
		out = append(out, ex.Frame.Payload...)
	}
	return out
}

// Describe generates an ASCII report of the exchange, one block per frame.
func (t Trace) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== DESFIRE EXCHANGE REPORT ===\n")
	if len(t) == 0 {
		sb.WriteString("    - No frames exchanged.")
		return sb.String()
	}

	for i, ex := range t {
		marker := "[OK]"
		switch {
		case ex.Frame.More():
			marker = "[..]"
		case ex.Frame.Status != StatusOK:
			marker = "[!!]"
		}

		sb.WriteString(fmt.Sprintf("[%d] Command: %s (0x%02X)\n", i+1, ex.Command, byte(ex.Command)))
		sb.WriteString(fmt.Sprintf("    + Request:  %s\n", hexfmt.Upper(ex.Request)))
		if len(ex.Steps) > 1 {
			for k, step := range ex.Steps {
				raw, _ := step.Command.Bytes()
				sb.WriteString(fmt.Sprintf("    + Step %d:   %s -> %s\n", k+1, hexfmt.Upper(raw), hexfmt.Upper(step.Response.Bytes())))
			}
		}
		sb.WriteString(fmt.Sprintf("    + Result:   [%02X] %s %s (%d bytes)\n",
			byte(ex.Frame.Status), marker, ex.Frame.Status, len(ex.Frame.Payload)))
	}

	payload := t.Payload()
	sb.WriteString("\n[=] DATA OUTCOME:\n")
	if len(payload) > 0 {
		sb.WriteString(fmt.Sprintf("    + Length: %d bytes\n", len(payload)))
		sb.WriteString(fmt.Sprintf("    + Dump:   %X\n", payload))
		sb.WriteString(fmt.Sprintf("    + ASCII:  %q\n", hexfmt.SafeASCII(payload)))
	} else {
		sb.WriteString("    - No Data Received.\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
