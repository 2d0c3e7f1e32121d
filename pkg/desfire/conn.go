package desfire

import (
	"context"
	"errors"
	"fmt"

	"github.com/gregLibert/desfire-monitor/pkg/hexfmt"
	"github.com/gregLibert/desfire-monitor/pkg/iso7816"
	"github.com/sirupsen/logrus"
)

// Transport carries raw command bytes to one card and returns its answer.
// Transmit blocks for one round trip.
type Transport interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Conn runs DESFire commands over a Transport, including frame chaining.
// A Conn is not safe for concurrent use; one card is driven by one flow.
type Conn struct {
	link      *recordingTransport
	client    *iso7816.Client
	framing   Framing
	maxFrames int
	log       logrus.FieldLogger

	trace Trace
}

// NewConn creates a Conn over t.
func NewConn(t Transport, opts ...Option) *Conn {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	link := &recordingTransport{next: t}
	return &Conn{
		link:      link,
		client:    iso7816.NewClient(link),
		framing:   cfg.framing,
		maxFrames: cfg.maxFrames,
		log:       cfg.logger,
	}
}

// LastTrace returns the frames exchanged by the most recent Exchange call.
func (c *Conn) LastTrace() Trace {
	return c.trace
}

// Exchange sends cmd and collects the full payload, requesting additional
// frames while the card answers 0xAF. Payloads are concatenated in arrival
// order. ctx is checked before every frame; if it is done, Exchange returns
// context.Cause(ctx) without sending anything else.
func (c *Conn) Exchange(ctx context.Context, cmd Command, params []byte) ([]byte, error) {
	c.trace = nil

	var payload []byte
	next, nextParams := cmd, params

	for n := 1; ; n++ {
		if n > c.maxFrames {
			return nil, fmt.Errorf("%s: %w (more than %d frames)", cmd, ErrResponseTooLong, c.maxFrames)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s aborted after %d frames: %w", cmd, n-1, context.Cause(ctx))
		}

		frame, err := c.roundTrip(next, nextParams)
		if err != nil {
			var pe *ProtocolError
			if errors.As(err, &pe) {
				pe.Command = cmd
			}
			return nil, err
		}

		payload = append(payload, frame.Payload...)
		if !frame.More() {
			return payload, nil
		}
		next, nextParams = CmdAdditionalFrame, nil
	}
}

func (c *Conn) roundTrip(cmd Command, params []byte) (Frame, error) {
	var (
		frame Frame
		steps iso7816.Trace
		err   error
	)

	switch c.framing {
	case FramingNative:
		frame, err = c.sendNative(cmd, params)
	default:
		frame, steps, err = c.sendWrapped(cmd, params)
	}
	if errors.Is(err, ErrTransportUnavailable) || errors.Is(err, ErrFrameTooLarge) {
		return frame, err
	}

	// GET RESPONSE and Le retries go through link too; the frame's request
	// is the first command sent, its response the last answer received.
	ex := Exchange{
		Command:  cmd,
		Request:  c.link.lastRequest,
		Response: c.link.lastResponse,
		Frame:    frame,
		Steps:    steps,
	}
	if len(steps) > 0 {
		if raw, encErr := steps[0].Command.Bytes(); encErr == nil {
			ex.Request = raw
		}
	}
	c.trace = append(c.trace, ex)

	c.log.WithFields(logrus.Fields{
		"command":  cmd.String(),
		"frame":    len(c.trace),
		"request":  hexfmt.Upper(ex.Request),
		"response": hexfmt.Upper(ex.Response),
		"steps":    len(steps),
		"status":   frame.Status.String(),
	}).Debug("DESFire exchange")

	return frame, err
}

func (c *Conn) sendNative(cmd Command, params []byte) (Frame, error) {
	raw, err := EncodeCommand(cmd, params)
	if err != nil {
		return Frame{}, err
	}
	resp, err := c.link.Transmit(raw)
	if err != nil {
		return Frame{}, err
	}
	return DecodeResponse(resp)
}

func (c *Conn) sendWrapped(cmd Command, params []byte) (Frame, iso7816.Trace, error) {
	apdu, err := WrapAPDU(cmd, params)
	if err != nil {
		return Frame{}, nil, err
	}

	trace, err := c.client.Send(apdu)
	if err != nil {
		if errors.Is(err, ErrTransportUnavailable) {
			return Frame{}, trace, err
		}
		return Frame{}, trace, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	frame, err := frameFromISO(trace.Last().Response)
	return frame, trace, err
}

// recordingTransport tags transport failures and keeps the last raw round trip.
type recordingTransport struct {
	next         Transport
	lastRequest  []byte
	lastResponse []byte
}

func (r *recordingTransport) Transmit(cmd []byte) ([]byte, error) {
	r.lastRequest = cmd
	r.lastResponse = nil

	resp, err := r.next.Transmit(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportUnavailable, err)
	}
	r.lastResponse = resp
	return resp, nil
}
