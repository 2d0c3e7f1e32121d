package desfire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/desfire-monitor/pkg/hexfmt"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func framesOf(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{byte(i), byte(i >> 8)}
	}
	return out
}

func TestConn_ExchangeAccumulatesFrames(t *testing.T) {
	for _, framing := range framings {
		for _, n := range []int{1, 2, 7, DefaultMaxFrames} {
			t.Run(fmt.Sprintf("%s/%d", framing, n), func(t *testing.T) {
				frames := framesOf(n)
				card := &fakeCard{framing: framing, handle: chained(frames...)}

				got, err := NewConn(card, WithFraming(framing)).Exchange(context.Background(), CmdGetApplicationIDs, nil)
				if err != nil {
					t.Fatalf("Exchange() error: %v", err)
				}

				want := bytes.Join(frames, nil)
				if !bytes.Equal(got, want) {
					t.Errorf("payload = %X, want %X", got, want)
				}

				wantCmds := []Command{CmdGetApplicationIDs}
				for i := 1; i < n; i++ {
					wantCmds = append(wantCmds, CmdAdditionalFrame)
				}
				if diff := cmp.Diff(wantCmds, card.commands()); diff != "" {
					t.Errorf("commands mismatch (-want +got):\n%s", diff)
				}
				for _, r := range card.requests[1:] {
					if len(r.params) != 0 {
						t.Errorf("continuation carried params %X", r.params)
					}
				}
			})
		}
	}
}

func TestConn_ExchangeFrameBound(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		frames    int
		wantSends int
	}{
		{"Default bound exceeded", nil, DefaultMaxFrames + 1, DefaultMaxFrames},
		{"Custom bound exceeded", []Option{WithMaxFrames(4)}, 5, 4},
		{"Endless card", []Option{WithMaxFrames(3)}, 100, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &fakeCard{framing: FramingISO, handle: chained(framesOf(tt.frames)...)}

			_, err := NewConn(card, tt.opts...).Exchange(context.Background(), CmdReadData, make([]byte, 7))
			if !errors.Is(err, ErrResponseTooLong) {
				t.Fatalf("Exchange() error = %v, want %v", err, ErrResponseTooLong)
			}
			if len(card.requests) != tt.wantSends {
				t.Errorf("sent %d frames, want %d", len(card.requests), tt.wantSends)
			}
		})
	}
}

func TestConn_ExchangeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	next := chained(framesOf(10)...)
	card := &fakeCard{framing: FramingNative}
	card.handle = func(cmd Command, params []byte) []byte {
		resp := next(cmd, params)
		if len(card.requests) == 2 {
			cancel(ErrCardRemoved)
		}
		return resp
	}

	_, err := NewConn(card, WithFraming(FramingNative)).Exchange(ctx, CmdReadData, make([]byte, 7))
	if !errors.Is(err, ErrCardRemoved) {
		t.Fatalf("Exchange() error = %v, want %v", err, ErrCardRemoved)
	}
	if len(card.requests) != 2 {
		t.Errorf("sent %d frames after cancellation, want 2", len(card.requests))
	}
}

func TestConn_ExchangeCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(ErrCardRemoved)

	card := &fakeCard{framing: FramingISO, handle: answer(StatusOK)}
	_, err := NewConn(card).Exchange(ctx, CmdGetApplicationIDs, nil)
	if !errors.Is(err, ErrCardRemoved) {
		t.Fatalf("Exchange() error = %v, want %v", err, ErrCardRemoved)
	}
	if len(card.requests) != 0 {
		t.Errorf("sent %d frames on a canceled context", len(card.requests))
	}
}

func TestConn_TransportFailure(t *testing.T) {
	cause := errors.New("reader unplugged")

	for _, framing := range framings {
		card := &fakeCard{framing: framing, err: cause}

		_, err := NewConn(card, WithFraming(framing)).Exchange(context.Background(), CmdGetApplicationIDs, nil)
		if !errors.Is(err, ErrTransportUnavailable) {
			t.Errorf("%s: error = %v, want %v", framing, err, ErrTransportUnavailable)
		}
		if !errors.Is(err, cause) {
			t.Errorf("%s: error = %v, want cause %v", framing, err, cause)
		}
		var pe *ProtocolError
		if errors.As(err, &pe) {
			t.Errorf("%s: transport failure reported as protocol error", framing)
		}
	}
}

func TestConn_ProtocolErrorOnContinuation(t *testing.T) {
	calls := 0
	card := &fakeCard{framing: FramingISO, handle: func(Command, []byte) []byte {
		calls++
		if calls == 1 {
			return []byte{byte(StatusAdditionalFrame), 0x01}
		}
		return []byte{byte(StatusBoundaryError)}
	}}

	_, err := NewConn(card).Exchange(context.Background(), CmdReadData, make([]byte, 7))

	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("Exchange() error = %v, want *ProtocolError", err)
	}
	if pe.Command != CmdReadData || pe.Status != StatusBoundaryError {
		t.Errorf("ProtocolError = %+v, want ReadData / boundary error", pe)
	}
}

func TestConn_FrameTooLargeIsNotSent(t *testing.T) {
	card := &fakeCard{framing: FramingISO, handle: answer(StatusOK)}

	_, err := NewConn(card).Exchange(context.Background(), CmdReadData, make([]byte, MaxFrameSize+1))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("Exchange() error = %v, want %v", err, ErrFrameTooLarge)
	}
	if len(card.requests) != 0 {
		t.Errorf("oversized frame reached the card")
	}
}

func TestConn_LogsEveryFrame(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	card := &fakeCard{framing: FramingISO, handle: chained(framesOf(3)...)}
	if _, err := NewConn(card, WithLogger(logger)).Exchange(context.Background(), CmdGetApplicationIDs, nil); err != nil {
		t.Fatalf("Exchange() error: %v", err)
	}

	entries := hook.AllEntries()
	if len(entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(entries))
	}
	if got := entries[0].Data["request"]; got != "906A000000" {
		t.Errorf("first request field = %v, want 906A000000", got)
	}
	if got := entries[2].Data["command"]; got != "AdditionalFrame" {
		t.Errorf("last command field = %v, want AdditionalFrame", got)
	}
}

// scriptedReader answers fixed raw APDUs, like a T=0 reader surfacing 61XX.
type scriptedReader struct {
	answers map[string]string
	sent    []string
}

func (r *scriptedReader) Transmit(raw []byte) ([]byte, error) {
	req := hexfmt.Upper(raw)
	r.sent = append(r.sent, req)
	resp, ok := r.answers[req]
	if !ok {
		return nil, fmt.Errorf("unexpected APDU %s", req)
	}
	return hexfmt.Hex(resp), nil
}

func TestConn_RecordsGetResponseSteps(t *testing.T) {
	const (
		readReq     = "90BD0000070000000000000000"
		getResponse = "00C0000003"
	)
	reader := &scriptedReader{answers: map[string]string{
		readReq:     "6103",
		getResponse: "010203 9100",
	}}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	conn := NewConn(reader, WithLogger(logger))
	got, err := conn.Exchange(context.Background(), CmdReadData, make([]byte, 7))
	if err != nil {
		t.Fatalf("Exchange() error: %v", err)
	}
	if !bytes.Equal(got, hexfmt.Hex("010203")) {
		t.Errorf("payload = %X, want 010203", got)
	}
	if diff := cmp.Diff([]string{readReq, getResponse}, reader.sent); diff != "" {
		t.Errorf("APDUs mismatch (-want +got):\n%s", diff)
	}

	trace := conn.LastTrace()
	if len(trace) != 1 || len(trace[0].Steps) != 2 {
		t.Fatalf("trace = %+v, want one frame with two steps", trace)
	}
	if got := hexfmt.Upper(trace[0].Request); got != readReq {
		t.Errorf("Request = %s, want %s", got, readReq)
	}
	if got := hexfmt.Upper(trace[0].Response); got != "0102039100" {
		t.Errorf("Response = %s, want 0102039100", got)
	}

	report := trace.Describe()
	for _, line := range []string{
		"    + Request:  " + readReq,
		"    + Step 1:   " + readReq + " -> 6103",
		"    + Step 2:   " + getResponse + " -> 0102039100",
	} {
		if !strings.Contains(report, line) {
			t.Errorf("Describe() missing %q:\n%s", line, report)
		}
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Data["request"] != readReq || entry.Data["steps"] != 2 {
		t.Errorf("log entry = %+v, want first request and 2 steps", entry)
	}
}

func TestParseFraming(t *testing.T) {
	tests := []struct {
		in      string
		want    Framing
		wantErr bool
	}{
		{"iso", FramingISO, false},
		{" ISO ", FramingISO, false},
		{"wrapped", FramingISO, false},
		{"native", FramingNative, false},
		{"t=1", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseFraming(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFraming(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFraming(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
