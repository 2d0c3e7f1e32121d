package lifecycle

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
)

// Lifecycle states.
const (
	StateIdle          = "idle"
	StateConnecting    = "connecting"
	StateConnected     = "connected"
	StateFailed        = "failed"
	StateDisconnecting = "disconnecting"
)

// Lifecycle transitions.
const (
	EventInsert             = "insert"
	EventTransportReady     = "transport_ready"
	EventTransportError     = "transport_error"
	EventOperationsComplete = "operations_complete"
	EventProtocolError      = "protocol_error"
	EventRemove             = "remove"
	EventReleased           = "released"
)

func newStateMachine(log logrus.FieldLogger) *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: EventInsert, Src: []string{StateIdle}, Dst: StateConnecting},
			{Name: EventTransportReady, Src: []string{StateConnecting}, Dst: StateConnected},
			{Name: EventTransportError, Src: []string{StateConnecting}, Dst: StateFailed},
			{Name: EventOperationsComplete, Src: []string{StateConnected}, Dst: StateConnected},
			{Name: EventProtocolError, Src: []string{StateConnected}, Dst: StateFailed},
			{Name: EventRemove, Src: []string{StateConnecting, StateConnected, StateFailed}, Dst: StateDisconnecting},
			{Name: EventReleased, Src: []string{StateDisconnecting}, Dst: StateIdle},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.WithFields(logrus.Fields{
					"event": e.Event,
					"from":  e.Src,
					"state": e.Dst,
				}).Debug("State transition")
			},
		},
	)
}

// fire runs one transition. Self transitions (connected to connected) are
// reported by fsm as NoTransitionError and are not failures here.
// Transitions never observe the caller's context: teardown must complete
// even while the process shuts down.
func fire(f *fsm.FSM, event string) error {
	err := f.Event(context.Background(), event)
	if err == nil {
		return nil
	}

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}
