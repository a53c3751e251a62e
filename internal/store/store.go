// Package store is the credential store: a single `hosts` table keyed by
// host name, read once at worker-manager startup (spec.md §3's Credential
// record, §5's "read once... subsequent lookups are in-memory").
package store

import "database/sql"

// Store wraps the credential table.
type Store struct {
	db *sql.DB
}

// New builds a Store over an already-open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
