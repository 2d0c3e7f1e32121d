// Package config holds the monitor settings: defaults, command line flags
// and DESFIRE_MONITOR_* environment overrides.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/gregLibert/desfire-monitor/pkg/bits"
	"github.com/gregLibert/desfire-monitor/pkg/desfire"
	"github.com/gregLibert/desfire-monitor/pkg/logging"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "DESFIRE_MONITOR_"

// Config is the complete runtime configuration.
type Config struct {
	// Reader selects a reader by name substring; empty takes the first one.
	Reader string
	Poll   time.Duration

	AID        desfire.AID
	FileNumber uint
	Offset     uint
	Length     uint
	Framing    string
	MaxFrames  int

	LogLevel  string
	LogFormat string

	SentryDSN         string
	SentryEnvironment string

	// DumpPath receives the file bytes of every successful read when set.
	DumpPath string
	// FieldOffset and FieldWidth select a big endian integer printed from
	// the file. A width of 0 disables it.
	FieldOffset uint
	FieldWidth  uint
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Poll:        500 * time.Millisecond,
		AID:         0x7080F4,
		FileNumber:  0,
		Framing:     desfire.FramingISO.String(),
		MaxFrames:   desfire.DefaultMaxFrames,
		LogLevel:    "info",
		LogFormat:   string(logging.FormatText),
		FieldOffset: 5,
		FieldWidth:  8,
	}
}

// RegisterFlags binds every setting to fs. Current values are the defaults,
// so call ApplyEnv first to let flags override the environment.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Reader, "reader", c.Reader, "Reader name substring (default: first contactless reader)")
	fs.DurationVar(&c.Poll, "poll", c.Poll, "Card presence poll interval")
	fs.Var(&c.AID, "aid", "Application to select, 3 bytes hex")
	fs.UintVar(&c.FileNumber, "file", c.FileNumber, "Data file number to read")
	fs.UintVar(&c.Offset, "offset", c.Offset, "Read offset in the file")
	fs.UintVar(&c.Length, "length", c.Length, "Bytes to read (0: whole file)")
	fs.StringVar(&c.Framing, "framing", c.Framing, "Command framing: iso or native")
	fs.IntVar(&c.MaxFrames, "max-frames", c.MaxFrames, "Frame limit for one response")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json")
	fs.StringVar(&c.SentryDSN, "sentry-dsn", c.SentryDSN, "Sentry DSN for error reporting (empty: disabled)")
	fs.StringVar(&c.SentryEnvironment, "sentry-env", c.SentryEnvironment, "Sentry environment name")
	fs.StringVar(&c.DumpPath, "dump", c.DumpPath, "Write the file bytes of each read to this path")
	fs.UintVar(&c.FieldOffset, "field-offset", c.FieldOffset, "Offset of the integer field printed from the file")
	fs.UintVar(&c.FieldWidth, "field-width", c.FieldWidth, "Width of the integer field (0: disabled)")
}

// ApplyEnv overrides settings from DESFIRE_MONITOR_* variables found by lookup
// (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		return lookup(EnvPrefix + name)
	}

	var errs []error
	str := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *uint) {
		if v, ok := get(name); ok {
			n, err := strconv.ParseUint(v, 0, 32)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = uint(n)
		}
	}

	str("READER", &c.Reader)
	str("FRAMING", &c.Framing)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("SENTRY_DSN", &c.SentryDSN)
	str("SENTRY_ENVIRONMENT", &c.SentryEnvironment)
	str("DUMP", &c.DumpPath)
	num("FILE", &c.FileNumber)
	num("OFFSET", &c.Offset)
	num("LENGTH", &c.Length)
	num("FIELD_OFFSET", &c.FieldOffset)
	num("FIELD_WIDTH", &c.FieldWidth)

	if v, ok := get("AID"); ok {
		if err := c.AID.Set(v); err != nil {
			errs = append(errs, fmt.Errorf("%sAID: %w", EnvPrefix, err))
		}
	}
	if v, ok := get("POLL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPOLL: %w", EnvPrefix, err))
		} else {
			c.Poll = d
		}
	}
	if v, ok := get("MAX_FRAMES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_FRAMES: %w", EnvPrefix, err))
		} else {
			c.MaxFrames = n
		}
	}

	return errors.Join(errs...)
}

// Validate checks ranges the protocol layer cannot encode.
func (c Config) Validate() error {
	var errs []error

	if c.Poll <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.Poll))
	}
	if c.FileNumber > desfire.MaxFileNumber {
		errs = append(errs, fmt.Errorf("file number %d exceeds %d", c.FileNumber, desfire.MaxFileNumber))
	}
	if c.Offset > bits.MaxUint24 || c.Length > bits.MaxUint24 {
		errs = append(errs, fmt.Errorf("offset and length must fit in 3 bytes"))
	}
	if _, err := desfire.ParseFraming(c.Framing); err != nil {
		errs = append(errs, err)
	}
	if c.MaxFrames < 1 {
		errs = append(errs, fmt.Errorf("max frames must be at least 1, got %d", c.MaxFrames))
	}
	if c.FieldWidth > 8 {
		errs = append(errs, fmt.Errorf("field width %d exceeds 8 bytes", c.FieldWidth))
	}

	return errors.Join(errs...)
}

// FramingMode returns the parsed framing. Validate first.
func (c Config) FramingMode() desfire.Framing {
	f, _ := desfire.ParseFraming(c.Framing)
	return f
}
