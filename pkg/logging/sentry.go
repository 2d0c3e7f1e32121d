package logging

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

var sentryEnabled bool

// SentryOptions configures crash reporting. An empty DSN disables it.
type SentryOptions struct {
	DSN         string
	Environment string
	Release     string
}

// InitSentry initializes Sentry for error and crash reporting.
// It is a no-op when no DSN is configured; check SentryEnabled afterwards.
func InitSentry(opts SentryOptions) error {
	if opts.DSN == "" {
		return nil
	}

	env := opts.Environment
	if env == "" {
		env = "production"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Release:          "desfire-monitor@" + opts.Release,
		Environment:      env,
		AttachStacktrace: true,
		TracesSampleRate: 0.0,
	})
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}

	sentryEnabled = true
	return nil
}

// SentryEnabled returns whether Sentry is currently enabled.
func SentryEnabled() bool {
	return sentryEnabled
}

// FlushSentry flushes any buffered events to Sentry.
// Call this before application exit.
func FlushSentry(timeout time.Duration) {
	if sentryEnabled {
		sentry.Flush(timeout)
	}
}

// CapturePanic sends a recovered panic to Sentry along with the stack trace.
func CapturePanic(panicValue any, stack []byte, context string) {
	if !sentryEnabled {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("panic_context", context)
		scope.SetExtra("stack_trace", string(stack))
		scope.SetLevel(sentry.LevelFatal)

		switch v := panicValue.(type) {
		case error:
			sentry.CaptureException(v)
		case string:
			sentry.CaptureMessage(v)
		default:
			sentry.CaptureMessage(fmt.Sprintf("%v", v))
		}
	})

	sentry.Flush(2 * time.Second)
}
