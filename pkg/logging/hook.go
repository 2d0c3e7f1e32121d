package logging

import (
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// SentryHook forwards error and worse log entries to Sentry. Entries carrying
// an error field are sent as exceptions, the others as messages.
type SentryHook struct {
	hub *sentry.Hub
}

// NewSentryHook returns a hook reporting through hub, or the current hub when nil.
func NewSentryHook(hub *sentry.Hub) *SentryHook {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &SentryHook{hub: hub}
}

// Levels implements logrus.Hook.
func (h *SentryHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

// Fire implements logrus.Hook.
func (h *SentryHook) Fire(entry *logrus.Entry) error {
	h.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentryLevel(entry.Level))
		for k, v := range entry.Data {
			if k == logrus.ErrorKey {
				continue
			}
			scope.SetExtra(k, v)
		}

		if err, ok := entry.Data[logrus.ErrorKey].(error); ok && err != nil {
			scope.SetExtra("message", entry.Message)
			h.hub.CaptureException(err)
			return
		}
		h.hub.CaptureMessage(entry.Message)
	})
	return nil
}

func sentryLevel(l logrus.Level) sentry.Level {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel:
		return sentry.LevelFatal
	case logrus.ErrorLevel:
		return sentry.LevelError
	case logrus.WarnLevel:
		return sentry.LevelWarning
	default:
		return sentry.LevelInfo
	}
}

// errMissingHub is returned when a hook is attached to a logger before Sentry is up.
var errMissingHub = errors.New("logging: sentry is not initialized")

// AttachSentry adds a SentryHook to l. It fails when Sentry is disabled.
func AttachSentry(l *logrus.Logger) error {
	if !sentryEnabled {
		return errMissingHub
	}
	l.AddHook(NewSentryHook(nil))
	return nil
}
