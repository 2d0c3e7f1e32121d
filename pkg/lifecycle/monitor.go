package lifecycle

import (
	"context"
	"errors"
	"io"

	"github.com/gregLibert/desfire-monitor/pkg/desfire"
	"github.com/gregLibert/desfire-monitor/pkg/hexfmt"
	"github.com/sirupsen/logrus"
)

// Presence is the state of a reader slot as last reported by a PresenceSource.
// Seq identifies one insertion: it changes whenever a different card (or the
// same card again) enters the field.
type Presence struct {
	Present bool
	ATR     []byte
	Seq     uint64
}

// PresenceSource reports the reader state. Wait blocks until the state may
// have changed or a poll interval elapsed, and may return the same state
// again.
type PresenceSource interface {
	Wait(ctx context.Context) (Presence, error)
}

// Monitor turns presence snapshots into ordered Inserted/Removed events.
// An insertion is always followed by its removal before the next insertion.
type Monitor struct {
	reader  string
	source  PresenceSource
	connect Connector
	log     logrus.FieldLogger

	last       Presence
	cancelCard context.CancelCauseFunc
}

// NewMonitor creates a Monitor for one reader. connect is handed out with
// every insertion.
func NewMonitor(reader string, source PresenceSource, connect Connector, log logrus.FieldLogger) *Monitor {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Monitor{
		reader:  reader,
		source:  source,
		connect: connect,
		log:     log.WithField("reader", reader),
	}
}

// Run polls the source and sends events on out until ctx is done or the
// source fails. Sends block; events are never dropped or reordered.
func (m *Monitor) Run(ctx context.Context, out chan<- Event) error {
	defer func() {
		if m.cancelCard != nil {
			m.cancelCard(context.Canceled)
			m.cancelCard = nil
		}
	}()

	for {
		p, err := m.source.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return ctx.Err()
			}
			return err
		}

		if err := m.observe(ctx, p, out); err != nil {
			return err
		}
	}
}

func (m *Monitor) observe(ctx context.Context, p Presence, out chan<- Event) error {
	prev := m.last
	m.last = p

	switch {
	case !prev.Present && p.Present:
		return m.emitInserted(ctx, p, out)
	case prev.Present && !p.Present:
		return m.emitRemoved(ctx, out)
	case prev.Present && p.Present && prev.Seq != p.Seq:
		m.log.Debug("Card swapped between polls")
		if err := m.emitRemoved(ctx, out); err != nil {
			return err
		}
		return m.emitInserted(ctx, p, out)
	}
	return nil
}

func (m *Monitor) emitInserted(ctx context.Context, p Presence, out chan<- Event) error {
	cardCtx, cancel := context.WithCancelCause(ctx)
	m.cancelCard = cancel

	m.log.WithField("atr", hexfmt.Upper(p.ATR)).Debug("Card present")
	return send(ctx, out, Event{
		Kind:    Inserted,
		Reader:  m.reader,
		ATR:     p.ATR,
		Connect: m.connect,
		Present: cardCtx,
	})
}

// emitRemoved cancels the card context first so that an exchange still in
// flight stops before the Removed event can be delivered.
func (m *Monitor) emitRemoved(ctx context.Context, out chan<- Event) error {
	if m.cancelCard != nil {
		m.cancelCard(desfire.ErrCardRemoved)
		m.cancelCard = nil
	}

	m.log.Debug("Card absent")
	return send(ctx, out, Event{Kind: Removed, Reader: m.reader})
}

func send(ctx context.Context, out chan<- Event, ev Event) error {
	select {
	case out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
