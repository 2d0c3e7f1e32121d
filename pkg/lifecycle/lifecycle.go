// Package lifecycle drives one reader through the life of each card it sees:
// connect on insertion, run the DESFire read sequence once, release on removal.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/gregLibert/desfire-monitor/pkg/desfire"
	"github.com/gregLibert/desfire-monitor/pkg/hexfmt"
	"github.com/gregLibert/desfire-monitor/pkg/logging"
	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
)

// Target names the application and file read on every insertion.
// Length 0 reads to the end of the file.
type Target struct {
	AID        desfire.AID
	FileNumber byte
	Offset     uint32
	Length     uint32
}

// OutcomeHandler receives the result of each completed or failed sequence.
// It runs on the lifecycle goroutine.
type OutcomeHandler func(Outcome)

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(lc *Lifecycle) {
		if l != nil {
			lc.log = l
		}
	}
}

// WithSessionOptions is passed to every desfire session the lifecycle opens.
func WithSessionOptions(opts ...desfire.Option) Option {
	return func(lc *Lifecycle) {
		lc.sessionOpts = append(lc.sessionOpts, opts...)
	}
}

// Lifecycle is the card session state machine. Events are handled one at a
// time; it is not safe for concurrent use.
type Lifecycle struct {
	fsm         *fsm.FSM
	target      Target
	onOutcome   OutcomeHandler
	sessionOpts []desfire.Option
	log         logrus.FieldLogger

	card    Card
	session *desfire.Session
	reader  string
}

// New creates a Lifecycle in the idle state.
func New(target Target, onOutcome OutcomeHandler, opts ...Option) *Lifecycle {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	l := &Lifecycle{
		target:    target,
		onOutcome: onOutcome,
		log:       discard,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.onOutcome == nil {
		l.onOutcome = func(Outcome) {}
	}

	l.fsm = newStateMachine(l.log)
	return l
}

// State returns the current state name.
func (l *Lifecycle) State() string {
	return l.fsm.Current()
}

// Session returns the live session, or nil outside the connected and failed states.
func (l *Lifecycle) Session() *desfire.Session {
	return l.session
}

// Run handles events until ctx is done or events is closed. Any card still
// held on return is released.
func (l *Lifecycle) Run(ctx context.Context, events <-chan Event) error {
	defer l.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			l.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent applies one presence event. Card and protocol errors never
// escape: they are logged and reported through the OutcomeHandler.
func (l *Lifecycle) HandleEvent(ctx context.Context, ev Event) {
	defer l.recoverPanic(ev)

	switch ev.Kind {
	case Inserted:
		l.onInserted(ctx, ev)
	case Removed:
		l.onRemoved(ev)
	default:
		l.log.WithField("kind", ev.Kind).Warn("Ignoring unknown card event")
	}
}

func (l *Lifecycle) onInserted(ctx context.Context, ev Event) {
	log := l.log.WithFields(logrus.Fields{"reader": ev.Reader, "atr": hexfmt.Upper(ev.ATR)})

	if l.State() != StateIdle {
		log.WithField("state", l.State()).Warn("Card inserted while a card is active, ignoring")
		return
	}
	l.mustFire(EventInsert)
	log.Info("Card inserted")

	card, err := ev.Connect()
	if err != nil {
		l.mustFire(EventTransportError)
		log.WithError(err).Warn("Could not connect to card")
		return
	}
	l.card, l.reader = card, ev.Reader
	l.session = desfire.NewSession(card, l.sessionOpts...)
	l.mustFire(EventTransportReady)

	present := ev.Present
	if present == nil {
		present = context.Background()
	}
	// Removal must stop the exchange before the next frame, so the card
	// context is the parent; shutdown of ctx is propagated asynchronously.
	opCtx, cancel := context.WithCancelCause(present)
	defer cancel(nil)
	stop := context.AfterFunc(ctx, func() {
		cancel(context.Cause(ctx))
	})
	defer stop()

	out := Outcome{Reader: ev.Reader, ATR: ev.ATR, FileNumber: l.target.FileNumber}
	if a, ok := card.(interface{ ATR() []byte }); ok && len(out.ATR) == 0 {
		out.ATR = a.ATR()
	}
	err = l.runSequence(opCtx, log, &out)

	if err != nil && opCtx.Err() != nil {
		log.WithError(context.Cause(opCtx)).Info("Card left during exchange, discarding partial result")
		l.teardown()
		return
	}

	if err != nil {
		out.Err = err
		l.mustFire(EventProtocolError)
		log.WithError(err).Error("Card sequence failed")
	} else {
		l.mustFire(EventOperationsComplete)
		log.Info("Card sequence complete")
	}
	l.onOutcome(out)
}

// runSequence lists the applications, then selects the target and reads
// its file when the card carries it.
func (l *Lifecycle) runSequence(ctx context.Context, log logrus.FieldLogger, out *Outcome) error {
	apps, err := l.session.ListApplications(ctx)
	if err != nil {
		return err
	}
	out.Applications = apps
	log.WithField("applications", apps.String()).Debug("Application directory read")

	if !apps.Contains(l.target.AID) {
		log.WithField("aid", l.target.AID.String()).Info("Target application not on card")
		return nil
	}

	if err := l.session.SelectApplication(ctx, l.target.AID); err != nil {
		return err
	}
	out.Selected, out.HasSelected = l.target.AID, true

	data, err := l.session.ReadDataFile(ctx, l.target.FileNumber, l.target.Offset, l.target.Length)
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	out.File = data
	log.WithFields(logrus.Fields{
		"aid":    l.target.AID.String(),
		"file":   l.target.FileNumber,
		"length": len(data),
	}).Debug("File read")
	return nil
}

func (l *Lifecycle) onRemoved(ev Event) {
	if l.State() == StateIdle {
		l.log.WithField("reader", ev.Reader).Debug("Removal with no active card, ignoring")
		return
	}
	l.log.WithField("reader", ev.Reader).Info("Card removed")
	l.teardown()
}

// teardown goes through disconnecting back to idle, releasing the session
// and the transport unconditionally.
func (l *Lifecycle) teardown() {
	l.mustFire(EventRemove)
	l.release()
	l.mustFire(EventReleased)
}

func (l *Lifecycle) release() {
	if l.session != nil {
		l.session.Reset()
		l.session = nil
	}
	if l.card != nil {
		if err := l.card.Close(); err != nil {
			l.log.WithError(err).WithField("reader", l.reader).Warn("Failed to release card")
		}
		l.card = nil
	}
	l.reader = ""
}

func (l *Lifecycle) shutdown() {
	if l.State() != StateIdle {
		l.teardown()
	}
}

// mustFire applies a transition the handlers only request from valid
// states. A refusal is a programming error.
func (l *Lifecycle) mustFire(event string) {
	if err := fire(l.fsm, event); err != nil {
		panic(fmt.Errorf("lifecycle: %s from %s: %w", event, l.State(), err))
	}
}

// recoverPanic keeps the event loop alive: the panic is logged and reported,
// resources are released and the machine is forced back to idle.
func (l *Lifecycle) recoverPanic(ev Event) {
	r := recover()
	if r == nil {
		return
	}

	stack := debug.Stack()
	l.log.WithFields(logrus.Fields{
		"event": ev.Kind.String(),
		"state": l.State(),
		"panic": fmt.Sprint(r),
	}).Error("Recovered from panic while handling card event")
	logging.CapturePanic(r, stack, "lifecycle."+ev.Kind.String())

	l.release()
	l.fsm.SetState(StateIdle)
}
