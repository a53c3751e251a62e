// Package wire defines the JSON request/reply shapes exchanged between
// clients, the broker, and workers.
package wire

import "encoding/json"

// Request is the sparse, tagged representation of an incoming task
// request. Only Method and Hostname are always required; every other
// field is optional and validated per-task against a Descriptor's
// Required list.
type Request struct {
	Method   string `json:"method"`
	Hostname string `json:"hostname"`

	Name       string   `json:"name,omitempty"`
	Properties []string `json:"properties,omitempty"`
	Key        string   `json:"key,omitempty"`

	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	CounterName  string `json:"counter-name,omitempty"`
	PerfInterval string `json:"perf-interval,omitempty"`
	MaxSample    int    `json:"max-sample,omitempty"`
	Instance     string `json:"instance,omitempty"`

	Helper string `json:"helper,omitempty"`
}

// ParseRequest decodes a wire payload into a Request. A payload that is
// not a JSON object is reported back to the caller as an error; the
// worker turns that into the "Invalid message received" reply per the
// request lifecycle.
func ParseRequest(payload []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// HasKey reports whether the named optional field was supplied on the
// wire. The task registry's required-key validation uses this rather
// than reflection.
func (r Request) HasKey(key string) bool {
	switch key {
	case "name":
		return r.Name != ""
	case "properties":
		return len(r.Properties) > 0
	case "key":
		return r.Key != ""
	case "username":
		return r.Username != ""
	case "password":
		return r.Password != ""
	case "counter-name":
		return r.CounterName != ""
	case "perf-interval":
		return r.PerfInterval != ""
	case "max-sample":
		return r.MaxSample > 0
	case "instance":
		return r.Instance != ""
	case "helper":
		return r.Helper != ""
	default:
		return false
	}
}

// MaxSampleOrDefault returns MaxSample if set, else 1 (spec.md §6).
func (r Request) MaxSampleOrDefault() int {
	if r.MaxSample <= 0 {
		return 1
	}
	return r.MaxSample
}
