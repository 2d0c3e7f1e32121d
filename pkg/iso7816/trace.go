package iso7816

// A Transaction is one Command APDU and the Response APDU it produced.
// A Trace is the chronological list of transactions needed to complete one
// logical command, including the GET RESPONSE / Le retry steps added by Client.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the FINAL transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Data concatenates the response data of every transaction in order.
// With 61XX chaining the card only returns data on the final GET RESPONSE,
// so this equals the payload of the logical command.
func (t Trace) Data() []byte {
	var out []byte
	for _, tx := range t {
		if tx.Response != nil {
			out = append(out, tx.Response.Data...)
		}
	}
	return out
}
