package pcsc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ebfe/scard"
	"github.com/gregLibert/desfire-monitor/pkg/lifecycle"
)

// DefaultPoll bounds each GetStatusChange call.
const DefaultPoll = 500 * time.Millisecond

// Watcher polls one reader for card presence. It owns a PC/SC context of
// its own so that a blocking status call never holds up card traffic.
type Watcher struct {
	ctx    *scard.Context
	reader string
	poll   time.Duration

	state    scard.StateFlag
	counter  uint16
	presence lifecycle.Presence
}

// Watch starts watching reader. Release the Watcher with Close.
func Watch(reader string, poll time.Duration) (*Watcher, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("pcsc: establish watch context: %w", err)
	}
	if poll <= 0 {
		poll = DefaultPoll
	}
	return &Watcher{ctx: ctx, reader: reader, poll: poll, state: scard.StateUnaware}, nil
}

// Close releases the watch context.
func (w *Watcher) Close() error {
	return w.ctx.Release()
}

// Wait blocks until the reader state changes or the poll interval elapses
// and returns the current presence. Timeouts are not errors.
func (w *Watcher) Wait(ctx context.Context) (lifecycle.Presence, error) {
	if err := ctx.Err(); err != nil {
		return w.presence, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = w.ctx.Cancel()
	})
	defer stop()

	rs := []scard.ReaderState{{Reader: w.reader, CurrentState: w.state}}
	err := w.ctx.GetStatusChange(rs, w.poll)
	switch {
	case errors.Is(err, scard.ErrTimeout):
		return w.presence, nil
	case errors.Is(err, scard.ErrCancelled) && ctx.Err() != nil:
		return w.presence, ctx.Err()
	case errors.Is(err, scard.ErrUnknownReader), errors.Is(err, scard.ErrReaderUnavailable):
		return w.presence, fmt.Errorf("%w: %q", ErrReaderGone, w.reader)
	case err != nil:
		return w.presence, fmt.Errorf("pcsc: status of %q: %w", w.reader, err)
	}

	if err := w.observe(rs[0].EventState, rs[0].Atr); err != nil {
		return w.presence, err
	}
	return w.presence, nil
}

// observe folds one reader state into the presence. The upper 16 bits of
// the state count card events; a change while a card stays present means
// it was swapped between two polls.
func (w *Watcher) observe(st scard.StateFlag, atr []byte) error {
	w.state = st &^ scard.StateChanged

	if st&(scard.StateUnknown|scard.StateUnavailable) != 0 {
		return fmt.Errorf("%w: %q", ErrReaderGone, w.reader)
	}

	counter := uint16(uint32(st) >> 16)
	present := st&scard.StatePresent != 0 && st&scard.StateMute == 0

	switch {
	case !present:
		w.presence = lifecycle.Presence{Seq: w.presence.Seq}
	case !w.presence.Present, counter != w.counter, !bytes.Equal(atr, w.presence.ATR):
		w.presence = lifecycle.Presence{
			Present: true,
			ATR:     bytes.Clone(atr),
			Seq:     w.presence.Seq + 1,
		}
	}
	w.counter = counter
	return nil
}
