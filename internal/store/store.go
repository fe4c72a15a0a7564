package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migrations[i] upgrades a database at user_version i to i+1. The base
// schema in schema.sql is applied first and is always current, so every
// migration must be safe to run against it.
var migrations = []func(*sql.Tx) error{
	// v1: rewrites are found by output fingerprint when two inputs
	// collapse to the same query.
	func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_rewrites_output ON rewrites(output_fingerprint)`)
		return err
	},
	// v2: skipped nodes are kept so a cache hit reports what the walk left
	// alone, not just how many.
	func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('rewrites') WHERE name = 'skipped_nodes'`).Scan(&n)
		if err != nil || n > 0 {
			return err
		}
		_, err = tx.Exec(`ALTER TABLE rewrites ADD COLUMN skipped_nodes TEXT NOT NULL DEFAULT '[]'`)
		return err
	},
}

var schemaVersion = len(migrations)

// Store is a rewrite cache backed by one SQLite database.
type Store struct {
	db  *sql.DB
	ids IDGenerator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the UUIDv7 generator used for new record IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// Open opens the cache at path, creating the file and schema if needed.
// Reopening an existing cache is safe and upgrades its schema in place.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer at a time; a single connection also keeps ":memory:"
	// databases alive between calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare schema: %w", err)
	}

	s := &Store{db: db, ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OpenMemory opens a private in-memory cache.
func OpenMemory(opts ...Option) (*Store, error) {
	return Open(":memory:", opts...)
}

// dsn adds the connection pragmas go-sqlite3 applies on every new
// connection.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "1")
	if path != ":memory:" {
		q.Set("_journal_mode", "WAL")
	}
	return path + "?" + q.Encode()
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// NextSeq returns one past the highest seq of any rule set or rewrite, or
// 1 for an empty cache.
func (s *Store) NextSeq(ctx context.Context) (int64, error) {
	return nextSeq(ctx, s.db)
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func nextSeq(ctx context.Context, q queryRower) (int64, error) {
	var next int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM (
			SELECT seq FROM rule_sets
			UNION ALL
			SELECT seq FROM rewrites
		)
	`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return next, nil
}

// migrate applies schema.sql and then each migration past the database's
// user_version, all in one transaction.
func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("base schema: %w", err)
	}

	var version int
	if err := tx.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("cache schema v%d is newer than supported v%d", version, schemaVersion)
	}
	for v := version; v < schemaVersion; v++ {
		if err := migrations[v](tx); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("write user_version: %w", err)
	}
	return tx.Commit()
}

// pragma reads the current value of a connection pragma.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return value, nil
}
