package wire

import (
	"encoding/json"
	"fmt"
)

// Reply is the uniform response shape every request receives, even for
// malformed input (spec.md invariant 3).
type Reply struct {
	Success   int              `json:"success"`
	Msg       string            `json:"msg"`
	Result    []map[string]any `json:"result,omitempty"`
	Traceback string           `json:"traceback,omitempty"`
}

// OK builds a success reply carrying the given records.
func OK(msg string, result []map[string]any) Reply {
	return Reply{Success: 0, Msg: msg, Result: result}
}

// Err builds an error reply. Used by every handler and by the worker's
// request-lifecycle validation steps.
func Err(msg string) Reply {
	return Reply{Success: 1, Msg: msg}
}

// Errf is Err with fmt.Sprintf-style formatting, kept distinct from Err
// so call sites read as either a fixed string or a templated one.
func Errf(format string, args ...any) Reply {
	return Err(fmt.Sprintf(format, args...))
}

// Failed builds the reply for a handler whose panic was caught by the
// registry's central wrapper (spec.md §7 error 9).
func Failed(name, traceback string) Reply {
	return Reply{Success: 1, Msg: fmt.Sprintf("Task %s failed", name), Traceback: traceback}
}

// Marshal serializes the reply as the wire's default JSON
// representation (the Identity/JSON formatter).
func (r Reply) Marshal() []byte {
	b, err := json.Marshal(r)
	if err != nil {
		// Reply only ever holds JSON-safe fields; a marshal failure here
		// would be a programming error, not a runtime condition to
		// surface through the wire protocol.
		return []byte(`{"success":1,"msg":"internal error serializing reply"}`)
	}
	return b
}
