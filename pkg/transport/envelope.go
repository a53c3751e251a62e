package transport

import "fmt"

// Envelope is the three-frame multi-part message shuttled between the
// broker and a worker (spec.md §6): [identity][empty][payload]. Identity
// is assigned by the frontend ROUTER socket and must round-trip
// unchanged so a reply reaches exactly the client that issued the
// matching request (spec.md invariant, §4.2).
type Envelope struct {
	Identity []byte
	Payload  []byte
}

// DecodeEnvelope parses a raw multi-part message received from a DEALER
// or ROUTER socket into an Envelope. Exactly three frames are expected;
// anything else is reported as an error so the caller can apply its own
// malformed-message policy (the broker forwards verbatim regardless per
// invariant 4, and the management plane's REP socket receives a single
// frame, so only internal/worker actually calls this).
func DecodeEnvelope(frames [][]byte) (Envelope, error) {
	if len(frames) != 3 {
		return Envelope{}, fmt.Errorf("expected 3-frame envelope, got %d frames", len(frames))
	}
	if len(frames[1]) != 0 {
		return Envelope{}, fmt.Errorf("expected empty delimiter frame, got %d bytes", len(frames[1]))
	}
	return Envelope{Identity: frames[0], Payload: frames[2]}, nil
}

// Frames renders the envelope back to its three-frame wire form.
func (e Envelope) Frames() [][]byte {
	return [][]byte{e.Identity, {}, e.Payload}
}
