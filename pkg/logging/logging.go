// Package logging builds the process logger and the optional Sentry reporting
// attached to it.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Format selects the log encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures New. Zero values mean info level, text, stderr.
type Options struct {
	Level  string
	Format Format
	Output io.Writer
}

// New returns a logger configured from opts.
func New(opts Options) (*logrus.Logger, error) {
	l := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}
	l.SetLevel(level)

	switch Format(strings.ToLower(string(opts.Format))) {
	case "", FormatText:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", opts.Format)
	}

	return l, nil
}
