// Package vsphere wraps govmomi into the four query primitives and the
// performance-manager cluster of calls described in spec.md §4.5, plus
// the connect/disconnect/reconnect lifecycle of spec.md §3's Session
// data model.
package vsphere

import (
	"context"
	"net/url"
	"sync"

	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/performance"
	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
	"go.uber.org/zap"

	vperrors "github.com/kubev2v/vsphere-proxy/pkg/errors"
)

// Session is one worker's live connection to one upstream vSphere
// host. It is created once at worker start, connected lazily on first
// use, and reconnected on failure per spec.md §4.3. It is never shared
// across workers or touched concurrently within a worker (spec.md
// invariant 2, §5).
type Session struct {
	host     string
	user     string
	password string
	insecure bool

	log *zap.SugaredLogger

	client *govmomi.Client
	views  *view.Manager
	perf   *performance.Manager

	catalogOnce  sync.Once
	catalogErr   error
	nameToID     map[string]int32
	idToName     map[int32]string
	counterInfos map[string]types.PerfCounterInfo
	intervals    []mo.HistoricalInterval
}

// Config holds the per-host connection parameters, sourced from a
// Credential record (internal/store) at worker startup.
type Config struct {
	Host     string
	User     string
	Password string
	Insecure bool
}

// New builds a disconnected Session. Connect is called lazily by the
// worker on first use of this host, per spec.md §3's Session
// lifecycle.
func New(cfg Config) *Session {
	return &Session{
		host:     cfg.Host,
		user:     cfg.User,
		password: cfg.Password,
		insecure: cfg.Insecure,
		log:      zap.S().Named("session").With("host", cfg.Host),
	}
}

// Host returns the upstream host name this Session is bound to.
func (s *Session) Host() string { return s.host }

// Connected reports whether the Session currently holds a live client.
// The worker checks this before every call (spec.md §4.3).
func (s *Session) Connected() bool {
	return s.client != nil
}

// Connect establishes the upstream connection. On failure the caller
// (the worker) must not invoke any handler and must return a
// ConnectionError-derived reply instead (spec.md §4.3).
func (s *Session) Connect() error {
	u := &url.URL{
		Scheme: "https",
		Host:   s.host,
		Path:   "/sdk",
		User:   url.UserPassword(s.user, s.password),
	}

	ctx := context.Background()
	client, err := govmomi.NewClient(ctx, u, s.insecure)
	if err != nil {
		s.log.Warnw("connect failed", "error", err)
		return vperrors.NewConnectionError(s.host, err)
	}

	s.client = client
	s.views = view.NewManager(client.Client)
	s.perf = performance.NewManager(client.Client)
	s.log.Infow("connected")
	return nil
}

// Disconnect tears down the upstream connection and clears the cached
// catalogs, so a subsequent Connect starts clean.
func (s *Session) Disconnect() {
	if s.client == nil {
		return
	}
	ctx := context.Background()
	if err := s.client.Logout(ctx); err != nil {
		s.log.Debugw("logout failed during disconnect", "error", err)
	}
	s.client = nil
	s.views = nil
	s.perf = nil
	s.catalogOnce = sync.Once{}
	s.catalogErr = nil
	s.nameToID = nil
	s.idToName = nil
	s.counterInfos = nil
	s.intervals = nil
}

// Reconnect disconnects then connects, matching
// original_source/src/vpoller/connector.py's reconnect().
func (s *Session) Reconnect() error {
	s.Disconnect()
	return s.Connect()
}

// EnsureConnected implements the worker's reconnect policy (spec.md
// §4.3): if not connected, disconnect (a no-op when already torn down)
// then connect. There is no retry loop at this layer.
func (s *Session) EnsureConnected() error {
	if s.Connected() {
		return nil
	}
	s.Disconnect()
	return s.Connect()
}

func (s *Session) vimClient() *vim25.Client {
	return s.client.Client
}

func (s *Session) rootFolder() mo.Reference {
	return s.client.ServiceContent.RootFolder
}

func (s *Session) propertyCollector() *property.Collector {
	return property.DefaultCollector(s.vimClient())
}

func connErr(host string, err error) error {
	return vperrors.NewConnectionError(host, err)
}
