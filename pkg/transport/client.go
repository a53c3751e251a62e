package transport

import (
	"errors"
	"time"

	czmq "github.com/zeromq/goczmq/v4"
	"go.uber.org/zap"
)

// DefaultTimeout and DefaultAttempts are the lazy-pirate client's default
// per-attempt timeout and retry count (spec.md §4.1/§5).
const (
	DefaultTimeout  = 3000 * time.Millisecond
	DefaultAttempts = 3
)

// ErrNoResponse is returned once every attempt of a Client.Request call
// has timed out, matching the original client's exact abort message
// (spec.md §8 scenario 6).
var ErrNoResponse = errors.New("Did not receive response, aborting...")

// Client implements the "lazy pirate" reliable request pattern of
// spec.md §4.1: a REQ socket with a fixed per-attempt timeout, bounded
// retries, and full socket recreation between attempts so no half-sent
// bytes or stale socket state survive a timeout. Grounded on
// original_source/src/vpoller/client.py's VPollerClient.run().
type Client struct {
	Endpoint string
	Timeout  time.Duration
	Attempts int

	log *zap.SugaredLogger
}

// NewClient builds a Client with the given endpoint and spec.md §4.1
// defaults (3000ms timeout, 3 attempts).
func NewClient(endpoint string) *Client {
	return &Client{
		Endpoint: endpoint,
		Timeout:  DefaultTimeout,
		Attempts: DefaultAttempts,
		log:      zap.S().Named("transport.client").With("endpoint", endpoint),
	}
}

// Request sends payload and returns the single-frame reply, retrying up
// to c.Attempts times with a fresh socket each time on timeout. Returns
// ErrNoResponse if every attempt times out.
func (c *Client) Request(payload []byte) ([]byte, error) {
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		reply, err := c.tryOnce(payload, timeout)
		if err == nil {
			return reply, nil
		}
		c.log.Warnw("attempt failed, recreating socket", "attempt", attempt, "error", err)
	}
	return nil, ErrNoResponse
}

// tryOnce sends one request over a freshly created REQ socket and waits
// up to timeout for a reply. The socket is always destroyed before
// returning, discarding any in-flight unsent bytes (spec.md §4.1).
func (c *Client) tryOnce(payload []byte, timeout time.Duration) ([]byte, error) {
	sock, err := NewReq(c.Endpoint)
	if err != nil {
		return nil, err
	}
	sock.SetOption(czmq.SockSetLinger(0))
	defer sock.Destroy()

	if err := sock.SendMessage([][]byte{payload}); err != nil {
		return nil, err
	}

	poller, err := NewPoller(sock)
	if err != nil {
		return nil, err
	}
	defer poller.Destroy()

	ready, err := poller.Wait(int(timeout / time.Millisecond))
	if err != nil {
		return nil, err
	}
	if ready == nil {
		return nil, errors.New("timeout waiting for reply")
	}

	frames, err := ready.RecvMessage()
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, errors.New("empty reply")
	}
	return frames[0], nil
}
