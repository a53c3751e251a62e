package transport

import (
	czmq "github.com/zeromq/goczmq/v4"
)

// DefaultBackendHWM is the backend dealer socket's high-water mark
// (spec.md §5 "Backpressure"): once the broker's backend queue fills to
// this depth, the frontend router socket blocks, throttling clients.
const DefaultBackendHWM = 1000

// NewRouter binds a ROUTER socket at endpoint. The router prepends a
// connection-identity frame to every inbound message and strips it on
// send (spec.md §4.1); used by the broker's frontend and, in the
// management plane, nowhere (mgmt uses REP, see NewRep).
func NewRouter(endpoint string) (*czmq.Sock, error) {
	sock, err := czmq.NewRouter(endpoint)
	if err != nil {
		return nil, err
	}
	sock.SetOption(czmq.SockSetRcvhwm(DefaultBackendHWM))
	return sock, nil
}

// NewDealer connects or binds a DEALER socket at endpoint. The dealer
// fair-queues outgoing messages across connected peers (spec.md §4.1);
// used by the broker's backend (bound) and each Worker (connected).
func NewDealer(endpoint string) (*czmq.Sock, error) {
	sock, err := czmq.NewDealer(endpoint)
	if err != nil {
		return nil, err
	}
	sock.SetOption(czmq.SockSetSndhwm(DefaultBackendHWM))
	return sock, nil
}

// NewRep binds a REP socket at endpoint, used by the management plane
// (spec.md §4.7) and by any REQ/REP server role.
func NewRep(endpoint string) (*czmq.Sock, error) {
	return czmq.NewRep(endpoint)
}

// NewReq connects a REQ socket to endpoint, used by the lazy-pirate
// Client and by cmd/vpollerc's status subcommand.
func NewReq(endpoint string) (*czmq.Sock, error) {
	return czmq.NewReq(endpoint)
}

// Poller wraps czmq.NewPoller(sockets...) so callers depend on this
// package's surface rather than goczmq's directly.
func NewPoller(socks ...*czmq.Sock) (*czmq.Poller, error) {
	return czmq.NewPoller(socks...)
}
