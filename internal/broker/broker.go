// Package broker implements the proxy role of spec.md §4.2: a
// frontend ROUTER bound for clients, a backend DEALER bound for
// workers, and a poll loop that forwards whatever arrives on one side
// to the other without inspecting it. Grounded on
// original_source/src/vpoller/proxy.py's VPollerProxy.create_sockets/
// distribute_tasks/close_sockets.
package broker

import (
	"context"
	"time"

	czmq "github.com/zeromq/goczmq/v4"
	"go.uber.org/zap"

	"github.com/kubev2v/vsphere-proxy/pkg/transport"
)

// pollInterval bounds how long Run blocks between ctx.Done() checks.
const pollInterval = 250 * time.Millisecond

// Broker owns the frontend/backend socket pair and forwards frames
// verbatim in both directions. It never decodes a payload (invariant
// 4, spec.md §4.2): a malformed client message is the worker's problem,
// not the broker's.
type Broker struct {
	frontend *czmq.Sock
	backend  *czmq.Sock
	poller   *czmq.Poller
	log      *zap.SugaredLogger

	frontendEndpoint string
	backendEndpoint  string
}

// New binds the frontend ROUTER and backend DEALER sockets.
func New(frontendEndpoint, backendEndpoint string) (*Broker, error) {
	frontend, err := transport.NewRouter(frontendEndpoint)
	if err != nil {
		return nil, err
	}
	backend, err := transport.NewDealer(backendEndpoint)
	if err != nil {
		frontend.Destroy()
		return nil, err
	}
	poller, err := transport.NewPoller(frontend, backend)
	if err != nil {
		frontend.Destroy()
		backend.Destroy()
		return nil, err
	}

	return &Broker{
		frontend:         frontend,
		backend:          backend,
		poller:           poller,
		log:              zap.S().Named("broker"),
		frontendEndpoint: frontendEndpoint,
		backendEndpoint:  backendEndpoint,
	}, nil
}

// FrontendEndpoint and BackendEndpoint report the bound socket
// addresses, used by the proxy status reply.
func (b *Broker) FrontendEndpoint() string { return b.frontendEndpoint }
func (b *Broker) BackendEndpoint() string  { return b.backendEndpoint }

// Run distributes tasks until ctx is cancelled, matching
// distribute_tasks()'s two-socket poll loop.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ready, err := b.poller.Wait(int(pollInterval / time.Millisecond))
		if err != nil {
			b.log.Warnw("poll failed", "error", err)
			continue
		}
		if ready == nil {
			continue
		}

		switch ready {
		case b.frontend:
			b.forward(b.frontend, b.backend, "frontend->backend")
		case b.backend:
			b.forward(b.backend, b.frontend, "backend->frontend")
		}
	}
}

func (b *Broker) forward(from, to *czmq.Sock, direction string) {
	frames, err := from.RecvMessage()
	if err != nil {
		b.log.Warnw("recv failed", "direction", direction, "error", err)
		return
	}
	if err := to.SendMessage(frames); err != nil {
		b.log.Warnw("send failed", "direction", direction, "error", err)
	}
}

// Close releases the poller and both sockets.
func (b *Broker) Close() {
	b.poller.Destroy()
	b.frontend.Destroy()
	b.backend.Destroy()
}
