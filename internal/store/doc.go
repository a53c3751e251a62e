// Package store implements the credential store for the vSphere proxy:
// a single `hosts` table (host, user, pwd, enabled) keyed by upstream
// host name (spec.md §3's Credential record, §6's schema).
//
// # Lifecycle
//
// The worker-manager (cmd/worker, internal/worker.Manager) opens one Store
// at startup via Open(path), then calls Credentials(ctx, ByEnabled(true))
// exactly once to build its {host -> Session} map. No other component
// reads from this table; lookups afterward are served from the in-memory
// map (spec.md §5, "read once... read-only").
//
// # Schema
//
//	hosts (
//	    host    TEXT UNIQUE NOT NULL,
//	    user    TEXT NOT NULL,
//	    pwd     TEXT NOT NULL,
//	    enabled INTEGER NOT NULL DEFAULT 1
//	)
//
// # Query options
//
// Credentials uses the functional-options pattern (ListOption) over a
// squirrel.SelectBuilder, matching the teacher's internal/store/vm.go
// idiom even though this table only ever needs ByEnabled/ByHost:
//
//	creds, err := st.Credentials(ctx, store.ByEnabled(true))
package store
