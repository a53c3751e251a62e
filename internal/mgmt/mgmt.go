// Package mgmt implements the management-plane REP server shared by
// cmd/proxy and cmd/worker (spec.md §6.7): a tiny request/reply loop
// bound to its own socket, dispatching a `{"method": ...}` request to
// one of a handful of registered zero-argument handlers. Grounded on
// original_source/src/vpoller/proxy.py's wait_for_mgmt_task/
// process_mgmt_task and worker.py's identical shape; the two originals
// differ only in which methods they register and in the wording of one
// error string (proxy.py has a typo, worker.py does not) — this package
// standardizes on the non-typo'd wording for both roles.
package mgmt

import (
	"context"
	"encoding/json"
	"time"

	czmq "github.com/zeromq/goczmq/v4"
	"go.uber.org/zap"

	"github.com/kubev2v/vsphere-proxy/pkg/transport"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

// pollInterval bounds how long Run blocks between checks of ctx.Done(),
// matching the broker/worker poll loops' own cooperative-cancellation
// granularity.
const pollInterval = 250 * time.Millisecond

// Handler answers one management method. It takes no arguments: every
// status/shutdown handler closes over whatever state it reports.
type Handler func() wire.Reply

// request is the one-frame JSON payload a management client sends.
type request struct {
	Method string `json:"method"`
}

// Server is a REP socket bound at construction, dispatching to a
// method table built by Handle before Run is called.
type Server struct {
	sock     *czmq.Sock
	poller   *czmq.Poller
	handlers map[string]Handler
	log      *zap.SugaredLogger
}

// NewServer binds a REP socket at endpoint. The caller registers its
// methods with Handle before calling Run.
func NewServer(endpoint string) (*Server, error) {
	sock, err := transport.NewRep(endpoint)
	if err != nil {
		return nil, err
	}
	poller, err := transport.NewPoller(sock)
	if err != nil {
		sock.Destroy()
		return nil, err
	}
	return &Server{
		sock:     sock,
		poller:   poller,
		handlers: make(map[string]Handler),
		log:      zap.S().Named("mgmt").With("endpoint", endpoint),
	}, nil
}

// Handle registers the handler for a method name ("status", "shutdown").
func (s *Server) Handle(method string, h Handler) {
	s.handlers[method] = h
}

// Run services mgmt requests until ctx is cancelled. It is meant to run
// in its own goroutine; the owning proxy/worker manager cancels ctx as
// part of its own shutdown sequence.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ready, err := s.poller.Wait(int(pollInterval / time.Millisecond))
		if err != nil {
			s.log.Warnw("poll failed", "error", err)
			continue
		}
		if ready == nil {
			continue
		}

		frames, err := ready.RecvMessage()
		if err != nil {
			s.log.Warnw("recv failed", "error", err)
			continue
		}

		reply := s.dispatch(frames)
		if err := s.sock.SendMessage([][]byte{reply.Marshal()}); err != nil {
			s.log.Warnw("send failed", "error", err)
		}
	}
}

func (s *Server) dispatch(frames [][]byte) wire.Reply {
	if len(frames) == 0 {
		return wire.Err("Missing method name")
	}

	var req request
	if err := json.Unmarshal(frames[0], &req); err != nil {
		return wire.Err("Missing method name")
	}
	if req.Method == "" {
		return wire.Err("Missing method name")
	}

	h, ok := s.handlers[req.Method]
	if !ok {
		return wire.Err("Unknown method name received")
	}
	return h()
}

// Close releases the poller and socket. Call after Run has returned.
func (s *Server) Close() {
	s.poller.Destroy()
	s.sock.Destroy()
}
