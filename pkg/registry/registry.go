// Package registry implements the process-global task registry:
// a name -> Descriptor table populated once at program start and only
// read afterward, with reads taken under a read lock (spec.md §4.4, §9
// "process-wide state").
package registry

import (
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

// Session is the minimal interface a task handler needs from a
// worker's live upstream connection. It is defined here, not in
// pkg/vsphere, so that this package has no dependency on govmomi and
// handler tests can supply fakes without importing vSphere types.
type Session interface {
	Connected() bool
	Connect() error
	Disconnect()
	Host() string
}

// HandlerFunc is the uniform handler signature named in spec.md §4.4:
// a Session reference and the raw request, returning a reply.
type HandlerFunc func(session Session, req wire.Request) wire.Reply

// Descriptor is a registered task: its name, handler, and the
// additional required keys beyond method/hostname.
type Descriptor struct {
	Name     string
	Handler  HandlerFunc
	Required []string
}

// Registry is an append-only, name-keyed table of descriptors. The
// zero value is not ready for use; call New.
type Registry struct {
	mu    sync.RWMutex
	table map[string]Descriptor
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{table: make(map[string]Descriptor)}
}

// Register adds a descriptor, wrapping its handler in the central
// panic-to-reply adapter described in spec.md §4.3 step 5 / §7 error 9.
// Registering the same name twice is a programming error and panics,
// since the registry is meant to be populated once at init time.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.table[d.Name]; exists {
		panic(fmt.Sprintf("registry: task %q already registered", d.Name))
	}
	d.Handler = wrapHandler(d.Name, d.Handler)
	r.table[d.Name] = d
	zap.S().Named("registry").Debugw("registered task", "name", d.Name, "required", d.Required)
}

// Lookup returns the descriptor for name and whether it was found.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.table[name]
	return d, ok
}

// Names returns every registered task name. Order is unspecified.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.table))
	for name := range r.table {
		names = append(names, name)
	}
	return names
}

// MissingRequired reports which of a descriptor's Required keys are
// absent from req. Used by the worker's step-3 validation.
func (d Descriptor) MissingRequired(req wire.Request) []string {
	var missing []string
	for _, key := range d.Required {
		if !req.HasKey(key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// wrapHandler is the decorator-equivalent of
// original_source/src/vpoller/task/decorators.py's @task wrapper: it
// converts any panic escaping the handler into a Reply carrying the
// traceback string, rather than crashing the worker goroutine.
func wrapHandler(name string, h HandlerFunc) HandlerFunc {
	return func(session Session, req wire.Request) (reply wire.Reply) {
		defer func() {
			if rec := recover(); rec != nil {
				tb := string(debug.Stack())
				zap.S().Named("registry").Errorw("task panicked", "task", name, "recover", rec)
				reply = wire.Failed(name, fmt.Sprintf("%v\n%s", rec, tb))
			}
		}()
		return h(session, req)
	}
}
