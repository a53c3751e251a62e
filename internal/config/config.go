// Package config loads the ini-style configuration file described in
// spec.md §6: two sections, [proxy] and [worker], each with documented
// defaults. cmd/proxy and cmd/worker layer cobra/pflag/viper flags on top
// (flag > ini file > built-in default), matching the teacher's CLI stack.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// ProxyConfig holds the [proxy] section: the broker's three socket
// endpoints. debugmap tags follow the teacher's internal/config/doc.go
// convention for a future DebugMap()-style redacting logger, even though
// none of these fields are sensitive today.
type ProxyConfig struct {
	Mgmt     string `ini:"mgmt" debugmap:"visible"`
	Frontend string `ini:"frontend" debugmap:"visible"`
	Backend  string `ini:"backend" debugmap:"visible"`
}

// WorkerConfig holds the [worker] section: the worker-manager's mgmt
// endpoint, the broker backend it connects to, the credential-store path,
// and the configured formatter helper list.
type WorkerConfig struct {
	Mgmt    string `ini:"mgmt" debugmap:"visible"`
	Proxy   string `ini:"proxy" debugmap:"visible"`
	DB      string `ini:"db" debugmap:"visible"`
	Helpers string `ini:"helpers" debugmap:"visible"`
}

// Config is the union of both sections, as loaded from one ini file.
// A deployment only ever runs one role per process, but a single file
// may document both sections together (spec.md §6's example).
type Config struct {
	Proxy  ProxyConfig
	Worker WorkerConfig
}

// DefaultProxyConfig returns the exact defaults spec.md §6 documents.
func DefaultProxyConfig() ProxyConfig {
	return ProxyConfig{
		Mgmt:     "tcp://*:9999",
		Frontend: "tcp://*:10123",
		Backend:  "tcp://*:10124",
	}
}

// DefaultWorkerConfig returns the exact defaults spec.md §6 documents.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Mgmt:    "tcp://*:10000",
		Proxy:   "tcp://localhost:10123",
		DB:      "/var/lib/vpoller/vpoller.db",
		Helpers: "",
	}
}

// Load reads an ini file at path and overlays it onto the built-in
// defaults. A missing path is not an error: the caller gets pure
// defaults, matching the original's config_defaults dicts, which apply
// even when no file is present. A present-but-unparsable file is fatal
// at startup (spec.md §6, exit code 1), reported here as an error for
// cmd/ to act on.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Proxy:  DefaultProxyConfig(),
		Worker: DefaultWorkerConfig(),
	}
	if path == "" {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if sec := file.Section("proxy"); sec != nil {
		if err := sec.MapTo(&cfg.Proxy); err != nil {
			return nil, fmt.Errorf("parse [proxy] section: %w", err)
		}
	}
	if sec := file.Section("worker"); sec != nil {
		if err := sec.MapTo(&cfg.Worker); err != nil {
			return nil, fmt.Errorf("parse [worker] section: %w", err)
		}
	}
	return cfg, nil
}

// HelperNames splits the comma-separated Helpers field, matching
// worker.py's helpers.split(','), ignoring empty entries so an empty or
// absent `helpers` key yields no names: no named formatter is loaded and
// every reply takes the Identity/JSON fallback (spec.md §4.6).
func (w WorkerConfig) HelperNames() []string {
	var names []string
	for _, part := range strings.Split(w.Helpers, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
