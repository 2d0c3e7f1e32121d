package desfire

import (
	"fmt"

	"github.com/gregLibert/desfire-monitor/pkg/iso7816"
)

// MaxFrameSize is the largest parameter block a single command frame may carry.
// Longer writes must be chunked by the caller.
const MaxFrameSize = 224

// Frame is one decoded response frame.
type Frame struct {
	Status  Status
	Payload []byte
}

// More reports whether the card announced another frame (status 0xAF).
// The payload is incomplete until a terminal frame has been received.
func (f Frame) More() bool {
	return !f.Status.IsTerminal()
}

// EncodeCommand builds a native frame: [cmd][params...].
func EncodeCommand(cmd Command, params []byte) ([]byte, error) {
	if len(params) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %s with %d parameter bytes (max %d)", ErrFrameTooLarge, cmd, len(params), MaxFrameSize)
	}

	frame := make([]byte, 0, 1+len(params))
	frame = append(frame, byte(cmd))
	return append(frame, params...), nil
}

// WrapAPDU builds the ISO 7816-4 command carrying a native DESFire command:
// CLA=90 INS=cmd P1=00 P2=00 [Lc params] Le=00.
func WrapAPDU(cmd Command, params []byte) (*iso7816.CommandAPDU, error) {
	if len(params) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %s with %d parameter bytes (max %d)", ErrFrameTooLarge, cmd, len(params), MaxFrameSize)
	}

	cls, err := iso7816.NewClass(iso7816.ClassDESFire)
	if err != nil {
		return nil, err
	}

	var data []byte
	if len(params) > 0 {
		data = append([]byte(nil), params...)
	}
	ins := iso7816.NewProprietaryInstruction(iso7816.InsCode(cmd))
	return iso7816.NewCommandAPDU(cls, ins, 0x00, 0x00, data, iso7816.MaxShortLe), nil
}

// WrapCommand is WrapAPDU encoded to bytes.
func WrapCommand(cmd Command, params []byte) ([]byte, error) {
	apdu, err := WrapAPDU(cmd, params)
	if err != nil {
		return nil, err
	}
	return apdu.Bytes()
}

// DecodeResponse decodes a native response: [status][payload...].
// Statuses other than 0x00 and 0xAF are returned as a *ProtocolError together
// with the decoded frame.
func DecodeResponse(raw []byte) (Frame, error) {
	if len(raw) == 0 {
		return Frame{}, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	return checkStatus(Frame{Status: Status(raw[0]), Payload: raw[1:]})
}

// DecodeWrappedResponse decodes an ISO wrapped response: [payload...][91][status].
func DecodeWrappedResponse(raw []byte) (Frame, error) {
	resp, err := iso7816.ParseResponseAPDU(raw)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return frameFromISO(resp)
}

func frameFromISO(resp *iso7816.ResponseAPDU) (Frame, error) {
	switch {
	case resp.Status.IsDESFire():
		return checkStatus(Frame{Status: Status(resp.Status.SW2()), Payload: resp.Data})
	case resp.Status == iso7816.SW_NO_ERROR:
		return Frame{Status: StatusOK, Payload: resp.Data}, nil
	default:
		return Frame{Payload: resp.Data}, &ProtocolError{SW: resp.Status}
	}
}

func checkStatus(f Frame) (Frame, error) {
	if f.Status == StatusOK || f.Status == StatusAdditionalFrame {
		return f, nil
	}
	return f, &ProtocolError{Status: f.Status}
}
