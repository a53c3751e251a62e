package worker

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/kubev2v/vsphere-proxy/internal/config"
	"github.com/kubev2v/vsphere-proxy/internal/mgmt"
	"github.com/kubev2v/vsphere-proxy/internal/store"
	"github.com/kubev2v/vsphere-proxy/pkg/formatter"
	"github.com/kubev2v/vsphere-proxy/pkg/registry"
	"github.com/kubev2v/vsphere-proxy/pkg/scheduler"
	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

// namedFormatters is the catalog of formatters a deployment may select
// by name in its `helpers` config (spec.md §4.6); Identity/JSON is the
// implicit fallback and never appears here.
var namedFormatters = map[string]formatter.Formatter{
	"csv":    formatter.CSV{},
	"zabbix": formatter.Zabbix{},
}

func buildFormatterRegistry(names []string) *formatter.Registry {
	selected := make([]formatter.Formatter, 0, len(names))
	for _, name := range names {
		if f, ok := namedFormatters[name]; ok {
			selected = append(selected, f)
		}
	}
	return formatter.NewRegistry(selected...)
}

// Manager is the top-level worker-role process: it builds the
// {host -> Session} map from the credential store, starts a
// configurable number of Worker goroutines under a scheduler.Scheduler
// (spec.md §7 retargets pkg/scheduler one layer up: it supervises N
// long-running Workers, not per-request fan-out), and runs its own
// management-plane server. Grounded on
// original_source/src/vpoller/worker.py's VPollerWorkerManager.
type Manager struct {
	cfg        config.WorkerConfig
	sessions   map[string]*vsphere.Session
	formatters *formatter.Registry
	workers    []*Worker
	sched      *scheduler.Scheduler
	futures    []*scheduler.Future[scheduler.Result[any]]
	mgmt       *mgmt.Server

	log        *zap.SugaredLogger
	mgmtCancel context.CancelFunc
}

// NewManager builds a Manager: it loads enabled credentials from the
// store at cfg.DB, builds one Session per host, and allocates
// concurrency Worker instances (runtime.NumCPU() if concurrency <= 0,
// matching start_workers' multiprocessing.cpu_count() fallback).
func NewManager(ctx context.Context, cfg config.WorkerConfig, concurrency int) (*Manager, error) {
	db, err := store.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	creds, err := db.Credentials(ctx, store.ByEnabled(true))
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("No registered or enabled vSphere Agents found")
	}

	sessions := make(map[string]*vsphere.Session, len(creds))
	for _, c := range creds {
		sessions[c.Host] = vsphere.New(vsphere.Config{
			Host:     c.Host,
			User:     c.User,
			Password: c.Password,
		})
	}

	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	mgmtSrv, err := mgmt.NewServer(cfg.Mgmt)
	if err != nil {
		return nil, fmt.Errorf("bind worker mgmt socket: %w", err)
	}

	m := &Manager{
		cfg:        cfg,
		sessions:   sessions,
		formatters: buildFormatterRegistry(cfg.HelperNames()),
		mgmt:       mgmtSrv,
		log:        zap.S().Named("worker.manager"),
	}
	mgmtSrv.Handle("status", m.status)
	mgmtSrv.Handle("shutdown", m.shutdown)

	workers := make([]*Worker, 0, concurrency)
	for i := range concurrency {
		wk, err := New(i, cfg.Proxy, sessions, registry.Default, m.formatters)
		if err != nil {
			for _, existing := range workers {
				existing.Close()
			}
			mgmtSrv.Close()
			return nil, fmt.Errorf("create worker %d: %w", i, err)
		}
		workers = append(workers, wk)
	}
	m.workers = workers
	m.sched = scheduler.NewScheduler(concurrency)

	return m, nil
}

// status answers the worker-role mgmt shape (spec.md §6.7).
func (m *Manager) status() wire.Reply {
	hostname, _ := os.Hostname()
	record := map[string]any{
		"role":        "worker",
		"hostname":    hostname,
		"proxy":       m.cfg.Proxy,
		"mgmt":        m.cfg.Mgmt,
		"db":          m.cfg.DB,
		"concurrency": len(m.workers),
		"helpers":     m.cfg.Helpers,
	}
	return wire.OK("Successfully retrieved worker status", []map[string]any{record})
}

// shutdown replies then asks Stop to run, matching worker.py's
// signal_stop/stop_workers split between "acknowledge" and "tear down".
func (m *Manager) shutdown() wire.Reply {
	m.log.Infow("shutdown requested via mgmt")
	go m.Stop()
	return wire.OK("Shutdown time has arrived", nil)
}

// Run starts every Worker under the scheduler and the mgmt server, then
// blocks until Stop cancels them.
func (m *Manager) Run() {
	m.futures = make([]*scheduler.Future[scheduler.Result[any]], 0, len(m.workers))
	for _, wk := range m.workers {
		m.futures = append(m.futures, m.sched.AddWork(wk.Run))
	}

	mgmtCtx, cancel := context.WithCancel(context.Background())
	m.mgmtCancel = cancel
	go m.mgmt.Run(mgmtCtx)

	for i, f := range m.futures {
		if res := <-f.C(); res.Err != nil {
			m.log.Errorw("worker stopped with error", "worker_id", i, "error", res.Err)
		}
	}
}

// Stop tears down every Worker (closing the scheduler cancels each
// Worker's context, which each notices within one poll interval, well
// inside the 3-second join budget worker.py's stop_workers allows) and
// the mgmt server, then returns once Run has unblocked.
func (m *Manager) Stop() {
	if m.mgmtCancel != nil {
		m.mgmtCancel()
	}
	m.sched.Close()
}

// Close releases every Worker's and the mgmt server's sockets. Call
// after Run has returned.
func (m *Manager) Close() {
	for _, wk := range m.workers {
		wk.Close()
	}
	m.mgmt.Close()
}
