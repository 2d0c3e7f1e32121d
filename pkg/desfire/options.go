package desfire

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultMaxFrames bounds the frames accepted for one logical command.
const DefaultMaxFrames = 64

// Framing selects how native commands are put on the wire.
type Framing int

const (
	// FramingISO wraps commands in ISO 7816-4 APDUs (CLA 0x90). PC/SC readers need it.
	FramingISO Framing = iota
	// FramingNative sends raw [CMD][PARAMS] frames.
	FramingNative
)

func (f Framing) String() string {
	switch f {
	case FramingISO:
		return "iso"
	case FramingNative:
		return "native"
	default:
		return fmt.Sprintf("Framing(%d)", int(f))
	}
}

// ParseFraming accepts "iso" or "native".
func ParseFraming(s string) (Framing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "iso", "wrapped":
		return FramingISO, nil
	case "native":
		return FramingNative, nil
	default:
		return 0, fmt.Errorf("unknown framing %q (want iso or native)", s)
	}
}

type config struct {
	framing   Framing
	maxFrames int
	logger    logrus.FieldLogger
}

func defaultConfig() config {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return config{
		framing:   FramingISO,
		maxFrames: DefaultMaxFrames,
		logger:    l,
	}
}

// Option configures a Conn or Session.
type Option func(*config)

// WithFraming selects native or ISO wrapped framing.
func WithFraming(f Framing) Option {
	return func(c *config) {
		c.framing = f
	}
}

// WithMaxFrames sets the frame bound for multi-frame responses.
// Values below 1 keep the default.
func WithMaxFrames(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxFrames = n
		}
	}
}

// WithLogger sets the logger used for per-frame traffic (debug level).
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
