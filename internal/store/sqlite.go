package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/notekeeper/internal/live"
)

const (
	defaultBusyTimeout  = 5 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

// SQLiteStore implements the Store interface using a local SQLite database.
// It is meant to be opened once per process and shared.
type SQLiteStore struct {
	db   *sqlx.DB
	feed *live.Feed

	pollInterval time.Duration
	closing      context.Context
	shutdown     context.CancelFunc
	stopWatch    context.CancelFunc // guarded by the feed's lock
	dataVersion  atomic.Int64       // last PRAGMA data_version seen
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithPollInterval sets how often open streams check the database for
// writes made by other processes.
func WithPollInterval(d time.Duration) Option {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, enables
// foreign keys and WAL mode, and runs any pending schema migrations.
// A zero busyTimeout uses the default of five seconds.
func NewSQLiteStore(dbPath string, busyTimeout time.Duration, opts ...Option) (*SQLiteStore, error) {
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	if !isMemoryPath(dbPath) {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf(
		"%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_txlock=immediate",
		dbPath, busyTimeout.Milliseconds(),
	)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// SQLite has a single writer. One connection keeps in-memory databases
	// shared and serializes writers without lock-upgrade failures.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite db: %w", err)
	}

	s := &SQLiteStore{db: db, feed: live.NewFeed(), pollInterval: defaultPollInterval}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	v, err := s.readDataVersion(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	s.dataVersion.Store(v)

	s.closing, s.shutdown = context.WithCancel(context.Background())
	s.feed.OnActive(s.setWatching)

	slog.Debug("store: opened", "path", dbPath)
	return s, nil
}

// Close stops the change watcher and closes the underlying database
// connection.
func (s *SQLiteStore) Close() error {
	s.shutdown()
	return s.db.Close()
}

// Feed returns the change feed the store publishes to after each commit.
func (s *SQLiteStore) Feed() *live.Feed {
	return s.feed
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		slog.Debug("store: migration applied", "version", m.version)
	}

	return nil
}

// InTx runs fn in a transaction and publishes the touched tables once the
// transaction has committed.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap("beginning transaction", err)
	}
	defer tx.Rollback()

	q := &queries{ext: tx}
	if err := fn(q); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrap("committing transaction", err)
	}

	s.feed.Publish(q.touched)
	return nil
}

// read returns a query set bound to the connection pool.
func (s *SQLiteStore) read() *queries {
	return &queries{ext: s.db}
}

// queries implements Tx on top of either the pool or a transaction.
// Writes record the tables they touched so the owner can publish them.
type queries struct {
	ext     sqlx.ExtContext
	touched live.Table
}

// execOne runs a statement that must affect exactly one row.
func (q *queries) execOne(ctx context.Context, op string, query string, args ...interface{}) error {
	result, err := q.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return wrap(op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if rows == 0 {
		return &StorageError{Op: op, Err: ErrNotFound}
	}
	return nil
}

func isMemoryPath(p string) bool {
	return p == ":memory:" || strings.HasPrefix(p, "file::memory:")
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// toMillis converts a time to the stored unix-millisecond representation.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// fromMillis converts a stored unix-millisecond value to a UTC time.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
