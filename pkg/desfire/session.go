package desfire

import (
	"context"
	"fmt"

	"github.com/gregLibert/desfire-monitor/pkg/bits"
)

// MaxFileNumber is the highest file number a DESFire application can hold.
const MaxFileNumber = 0x1F

// Session is the logical conversation with one card. It owns the chaining
// state of its Conn and remembers the selected application.
type Session struct {
	conn *Conn

	selected    AID
	hasSelected bool
}

// NewSession starts a session over t. No command is sent.
func NewSession(t Transport, opts ...Option) *Session {
	return &Session{conn: NewConn(t, opts...)}
}

// ListApplications returns the card's application directory.
func (s *Session) ListApplications(ctx context.Context) (AIDSet, error) {
	payload, err := s.conn.Exchange(ctx, CmdGetApplicationIDs, nil)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	aids, err := ParseAIDList(payload)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return aids, nil
}

// SelectApplication makes aid the current application.
// Any previous selection is dropped first, so a failed select leaves none.
func (s *Session) SelectApplication(ctx context.Context, aid AID) error {
	s.Reset()

	payload, err := s.conn.Exchange(ctx, CmdSelectApplication, aid.Bytes())
	if err != nil {
		return fmt.Errorf("select application %s: %w", aid, err)
	}
	if len(payload) != 0 {
		return fmt.Errorf("select application %s: %w: unexpected %d byte payload",
			aid, ErrMalformedResponse, len(payload))
	}

	s.selected, s.hasSelected = aid, true
	return nil
}

// ReadDataFile reads a standard or backup data file of the selected
// application. A length of 0 reads up to the end of the file.
func (s *Session) ReadDataFile(ctx context.Context, fileNo byte, offset, length uint32) ([]byte, error) {
	if !s.hasSelected {
		return nil, fmt.Errorf("read file %d: %w", fileNo, ErrNoApplicationSelected)
	}
	if fileNo > MaxFileNumber || offset > bits.MaxUint24 || length > bits.MaxUint24 {
		return nil, fmt.Errorf("read file %d at %d+%d: %w", fileNo, offset, length, ErrParameterRange)
	}

	params := make([]byte, 7)
	params[0] = fileNo
	bits.PutUint24LE(params[1:4], offset)
	bits.PutUint24LE(params[4:7], length)

	data, err := s.conn.Exchange(ctx, CmdReadData, params)
	if err != nil {
		return nil, fmt.Errorf("read file %d of %s: %w", fileNo, s.selected, err)
	}
	return data, nil
}

// Selected returns the current application, if any.
func (s *Session) Selected() (AID, bool) {
	return s.selected, s.hasSelected
}

// Reset forgets the current application.
func (s *Session) Reset() {
	s.selected, s.hasSelected = 0, false
}

// LastTrace returns the frames of the last command sent.
func (s *Session) LastTrace() Trace {
	return s.conn.LastTrace()
}
