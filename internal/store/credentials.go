package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Credential mirrors the `hosts` table row (spec.md §3's Credential
// record): the (user, password) pair a worker uses to connect to an
// upstream vSphere host, filtered by Enabled.
type Credential struct {
	Host     string
	User     string
	Password string
	Enabled  bool
}

// Open opens the sqlite3-backed credential database at path and ensures
// the hosts table exists. Grounded on the teacher's pattern of a thin
// Open() wrapping database/sql plus a direct driver import, adapted from
// duckdb to sqlite3 (spec.md §6's credential store schema).
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open credential store %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, createHostsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure hosts table: %w", err)
	}
	return New(db), nil
}

// ListOption narrows a Credentials query. The table only ever needs the
// enabled filter in practice, but the functional-options shape is kept
// faithful to the teacher's internal/store/vm.go ListOption pattern
// rather than collapsed into a bare SQL string (DESIGN.md).
type ListOption func(sq.SelectBuilder) sq.SelectBuilder

// ByEnabled restricts the result to rows matching the given enabled flag.
func ByEnabled(enabled bool) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		v := 0
		if enabled {
			v = 1
		}
		return b.Where(sq.Eq{"enabled": v})
	}
}

// ByHost restricts the result to a single host name.
func ByHost(host string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.Eq{"host": host})
	}
}

// Credentials lists rows from the hosts table, narrowed by opts. Workers
// call this once at startup with ByEnabled(true) to build their
// {host -> Session} map (spec.md §3, §5).
func (s *Store) Credentials(ctx context.Context, opts ...ListOption) ([]Credential, error) {
	builder := sq.Select("host", "user", "pwd", "enabled").From("hosts")
	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hosts: %w", err)
	}
	defer rows.Close()

	var creds []Credential
	for rows.Next() {
		var c Credential
		var enabled int
		if err := rows.Scan(&c.Host, &c.User, &c.Password, &enabled); err != nil {
			return nil, fmt.Errorf("scan host row: %w", err)
		}
		c.Enabled = enabled != 0
		creds = append(creds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	zap.S().Named("store").Debugw("loaded credentials", "count", len(creds))
	return creds, nil
}

// Upsert inserts or updates a single host's credentials. Primarily used
// by tests and by any operator tooling that seeds the store outside the
// worker's own read path.
func (s *Store) Upsert(ctx context.Context, c Credential) error {
	enabled := 0
	if c.Enabled {
		enabled = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hosts (host, user, pwd, enabled) VALUES (?, ?, ?, ?)
		ON CONFLICT(host) DO UPDATE SET user = excluded.user, pwd = excluded.pwd, enabled = excluded.enabled`,
		c.Host, c.User, c.Password, enabled)
	if err != nil {
		return fmt.Errorf("upsert host %s: %w", c.Host, err)
	}
	return nil
}
