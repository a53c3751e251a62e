// Package formatter implements the pluggable result-formatter pipeline
// of spec.md §4.6: post-processing of a handler's wire.Reply into an
// alternative string representation, selected by a request's Helper
// field.
package formatter

import "github.com/kubev2v/vsphere-proxy/pkg/wire"

// Formatter transforms a reply for a given request into its wire
// representation. Implementations never change Success; they may only
// reformat Result or return it serialized differently (spec.md
// invariant 5).
type Formatter interface {
	// Name is the string a request's `helper` key matches against.
	Name() string
	// Run produces the wire payload for req/reply.
	Run(req wire.Request, reply wire.Reply) string
}

// Registry is the configured, ordered list of loaded formatters a
// worker resolves a request's `helper` against (spec.md §4.6's "a
// configured list of formatter module names"). Unlike pkg/registry's
// task table this is small and per-worker-process, built once from
// config at startup, not process-global.
type Registry struct {
	byName map[string]Formatter
}

// NewRegistry builds a Registry containing exactly the named formatters
// passed in. Identity/JSON needs no entry, since Apply falls back to it
// whenever a request's helper is not registered.
func NewRegistry(named ...Formatter) *Registry {
	r := &Registry{byName: make(map[string]Formatter, len(named))}
	for _, f := range named {
		r.byName[f.Name()] = f
	}
	return r
}

// Apply runs the formatter named by req.Helper, if loaded, over reply;
// otherwise it falls back to the Identity/JSON representation (spec.md
// §4.6). Formatter panics are not expected (formatters are pure data
// transforms over an already-validated Reply) but are converted to the
// raw JSON reply rather than crashing the worker, matching the "on
// formatter exception the raw reply is returned" rule (spec.md §4.6).
func (r *Registry) Apply(req wire.Request, reply wire.Reply) (payload []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			payload = reply.Marshal()
		}
	}()

	if req.Helper == "" {
		return reply.Marshal()
	}
	f, ok := r.byName[req.Helper]
	if !ok {
		return reply.Marshal()
	}
	return []byte(f.Run(req, reply))
}
