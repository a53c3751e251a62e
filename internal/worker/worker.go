// Package worker implements the worker role of spec.md §4.3: a DEALER
// socket connected to the proxy's backend, servicing one task at a
// time per Worker, validating against the task registry, ensuring the
// target host's Session is connected, invoking the handler, and
// applying the configured formatter. Grounded on
// original_source/src/vpoller/worker.py's VPollerWorker.wait_for_tasks/
// process_client_msg.
package worker

import (
	"context"
	"time"

	czmq "github.com/zeromq/goczmq/v4"
	"go.uber.org/zap"

	vperrors "github.com/kubev2v/vsphere-proxy/pkg/errors"
	"github.com/kubev2v/vsphere-proxy/pkg/formatter"
	"github.com/kubev2v/vsphere-proxy/pkg/registry"
	"github.com/kubev2v/vsphere-proxy/pkg/transport"
	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

// pollInterval bounds how long run blocks between ctx.Done() checks.
const pollInterval = 250 * time.Millisecond

// Worker services one task at a time off a single DEALER socket
// connected to the proxy's backend. It is never touched by more than
// one goroutine (the binding single-threaded-per-worker invariant,
// spec.md §5/§7): Manager supervises N of these, not N goroutines
// operating on one Worker's state.
type Worker struct {
	id         int
	sessions   map[string]*vsphere.Session
	registry   *registry.Registry
	formatters *formatter.Registry

	sock   *czmq.Sock
	poller *czmq.Poller
	log    *zap.SugaredLogger
}

// New connects a Worker's DEALER socket to proxyEndpoint. sessions is
// the shared {host -> Session} map built once by Manager at startup;
// Worker only ever reads it (spec.md §3).
func New(id int, proxyEndpoint string, sessions map[string]*vsphere.Session, reg *registry.Registry, formatters *formatter.Registry) (*Worker, error) {
	sock, err := transport.NewDealer(proxyEndpoint)
	if err != nil {
		return nil, err
	}
	poller, err := transport.NewPoller(sock)
	if err != nil {
		sock.Destroy()
		return nil, err
	}

	return &Worker{
		id:         id,
		sessions:   sessions,
		registry:   reg,
		formatters: formatters,
		sock:       sock,
		poller:     poller,
		log:        zap.S().Named("worker").With("worker_id", id),
	}, nil
}

// Run services tasks until ctx is cancelled. Intended to be wrapped as
// a scheduler.Work[any] by Manager (spec.md §7): it never returns on
// its own, only in response to cancellation.
func (w *Worker) Run(ctx context.Context) (any, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, nil
		default:
		}

		ready, err := w.poller.Wait(int(pollInterval / time.Millisecond))
		if err != nil {
			w.log.Warnw("poll failed", "error", err)
			continue
		}
		if ready == nil {
			continue
		}

		w.serveOne()
	}
}

// serveOne handles exactly one task request: decode, validate,
// dispatch, format, reply. Matches wait_for_tasks's single-request
// body.
func (w *Worker) serveOne() {
	frames, err := w.sock.RecvMessage()
	if err != nil {
		w.log.Warnw("recv failed", "error", err)
		return
	}

	env, err := transport.DecodeEnvelope(frames)
	if err != nil {
		w.log.Warnw("malformed envelope, dropping", "error", err)
		return
	}

	req, err := wire.ParseRequest(env.Payload)
	if err != nil {
		w.reply(env, wire.Err("Invalid message received"))
		return
	}

	reply := w.dispatch(req)
	payload := w.formatters.Apply(req, reply)
	w.send(env.Identity, payload)
}

// dispatch runs the request-lifecycle validation of spec.md §4.3 steps
// 1-4 before invoking the registered handler in step 5.
func (w *Worker) dispatch(req wire.Request) wire.Reply {
	if req.Method == "" {
		return wire.Err("Missing method name")
	}

	session, ok := w.sessions[req.Hostname]
	if !ok {
		return wire.Err(vperrors.ErrUnknownHost.Error())
	}

	desc, ok := w.registry.Lookup(req.Method)
	if !ok {
		return wire.Err(vperrors.ErrUnknownTask.Error())
	}

	if missing := desc.MissingRequired(req); len(missing) > 0 {
		return wire.Err(vperrors.ErrMissingRequired.Error())
	}

	if err := session.EnsureConnected(); err != nil {
		return wire.Err(err.Error())
	}

	return desc.Handler(session, req)
}

func (w *Worker) reply(env transport.Envelope, reply wire.Reply) {
	w.send(env.Identity, reply.Marshal())
}

func (w *Worker) send(identity, payload []byte) {
	frames := transport.Envelope{Identity: identity, Payload: payload}.Frames()
	if err := w.sock.SendMessage(frames); err != nil {
		w.log.Warnw("send failed", "error", err)
	}
}

// Close releases the poller and socket. Call after Run has returned.
func (w *Worker) Close() {
	w.poller.Destroy()
	w.sock.Destroy()
}
