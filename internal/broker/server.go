package broker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kubev2v/vsphere-proxy/internal/config"
	"github.com/kubev2v/vsphere-proxy/internal/mgmt"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

// Proxy is the top-level proxy-role process: a Broker plus its
// management-plane server, matching
// original_source/src/vpoller/proxy.py's VPollerProxyManager (the
// "one process per role" shape; spec.md §11 keeps this as a goroutine
// pair rather than an OS process, see DESIGN.md).
type Proxy struct {
	cfg    config.ProxyConfig
	broker *Broker
	mgmt   *mgmt.Server
	log    *zap.SugaredLogger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewProxy binds the broker's frontend/backend sockets and the mgmt
// server's socket, registering "status"/"shutdown" against this
// Proxy's own state. It does not start serving; call Run for that.
func NewProxy(cfg config.ProxyConfig) (*Proxy, error) {
	broker, err := New(cfg.Frontend, cfg.Backend)
	if err != nil {
		return nil, err
	}

	mgmtSrv, err := mgmt.NewServer(cfg.Mgmt)
	if err != nil {
		broker.Close()
		return nil, err
	}

	p := &Proxy{
		cfg:    cfg,
		broker: broker,
		mgmt:   mgmtSrv,
		log:    zap.S().Named("proxy"),
	}

	mgmtSrv.Handle("status", p.status)
	mgmtSrv.Handle("shutdown", p.shutdown)

	return p, nil
}

// status answers the proxy-role mgmt shape (spec.md §6.7).
func (p *Proxy) status() wire.Reply {
	record := map[string]any{
		"role":     "proxy",
		"frontend": p.broker.FrontendEndpoint(),
		"backend":  p.broker.BackendEndpoint(),
		"mgmt":     p.cfg.Mgmt,
	}
	return wire.OK("Successfully retrieved proxy status", []map[string]any{record})
}

// shutdown replies then asks Run to stop, matching proxy.py's
// signal_stop(): the reply is sent before the process actually tears
// down.
func (p *Proxy) shutdown() wire.Reply {
	p.log.Infow("shutdown requested via mgmt")
	go p.Stop()
	return wire.OK("Shutdown time has arrived", nil)
}

// Run starts the broker and mgmt loops and blocks until Stop is called
// or ctx is cancelled.
func (p *Proxy) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	defer close(p.done)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.broker.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		p.mgmt.Run(ctx)
	}()
	wg.Wait()
}

// Stop cancels the running Proxy's context and waits for Run to return.
func (p *Proxy) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

// Close releases the broker's and mgmt server's sockets. Call after Run
// has returned.
func (p *Proxy) Close() {
	p.broker.Close()
	p.mgmt.Close()
}
