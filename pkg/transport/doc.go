// Package transport realizes spec.md §4.1's message transport: length-
// framed, multi-part messages over ROUTER/DEALER and REQ/REP sockets,
// poll-based multiplexing, and the client-side "lazy pirate" reliable
// request pattern. internal/broker, internal/worker, and internal/mgmt
// create their sockets and pollers through the helpers here, but still
// import goczmq directly for the *czmq.Sock/*czmq.Poller types and their
// RecvMessage/SendMessage methods. Grounded on
// other_examples/..._geoffjay-plantd__core-mdp-broker.go.go's
// czmq.NewRouter/NewDealer/NewPoller/RecvMessage/SendMessage idiom.
package transport
