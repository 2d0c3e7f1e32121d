package desfire

// fakeCard emulates a DESFire card behind either framing. handle returns the
// native answer [status][payload...]; fakeCard adds the ISO trailer if needed.
type fakeCard struct {
	framing  Framing
	handle   func(cmd Command, params []byte) []byte
	requests []request
	err      error
}

type request struct {
	cmd    Command
	params []byte
}

func (f *fakeCard) Transmit(raw []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}

	var (
		cmd    Command
		params []byte
	)
	if f.framing == FramingNative {
		cmd, params = Command(raw[0]), raw[1:]
	} else {
		cmd = Command(raw[1])
		if len(raw) > 5 {
			lc := int(raw[4])
			params = raw[5 : 5+lc]
		}
	}
	f.requests = append(f.requests, request{cmd: cmd, params: append([]byte(nil), params...)})

	resp := f.handle(cmd, params)
	if f.framing == FramingNative {
		return resp, nil
	}
	out := append([]byte(nil), resp[1:]...)
	return append(out, 0x91, resp[0]), nil
}

func (f *fakeCard) commands() []Command {
	out := make([]Command, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.cmd
	}
	return out
}

// chained serves payloads one frame per call: 0xAF on all but the last.
func chained(payloads ...[]byte) func(Command, []byte) []byte {
	i := 0
	return func(Command, []byte) []byte {
		p := payloads[i]
		status := byte(StatusAdditionalFrame)
		if i == len(payloads)-1 {
			status = byte(StatusOK)
		}
		i++
		return append([]byte{status}, p...)
	}
}

// answer always replies with the same status and payload.
func answer(status Status, payload ...byte) func(Command, []byte) []byte {
	return func(Command, []byte) []byte {
		return append([]byte{byte(status)}, payload...)
	}
}

var framings = []Framing{FramingISO, FramingNative}
