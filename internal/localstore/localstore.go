// Package localstore is the client's durable key/value store. It keeps the
// session token, the signed-in user and the theme preference across restarts.
//
// Values live in an scs session store: each key is a session token whose data
// is the raw value. Records are committed with a far expiry and refreshed on
// every write.
package localstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/postgresstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/jmoiron/sqlx"

	"github.com/joestump/devhub/internal/db"
)

// Keys persisted by the session manager.
const (
	KeyTheme     = "theme"
	KeyAuthToken = "authToken"
	KeyUser      = "user"
)

// keyPrefix namespaces DevHub values inside a shared sessions table.
const keyPrefix = "devhub:"

// retention is how long a value survives without being rewritten. MySQL
// TIMESTAMP columns stop at 2038, which rules out a sentinel "forever".
const retention = 10 * 365 * 24 * time.Hour

// Store is durable key/value storage for client state.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SCSStore adapts an scs.Store to Store.
type SCSStore struct {
	backend scs.Store
	closer  io.Closer
}

// New wraps backend.
func New(backend scs.Store) *SCSStore {
	return &SCSStore{backend: backend}
}

// NewMemory returns a process-local store, for tests and throwaway sessions.
func NewMemory() *SCSStore {
	return New(memstore.NewWithCleanupInterval(0))
}

// Open connects to the local database selected by driver and dsn, creating
// the sessions table when missing. Close releases the connection.
func Open(ctx context.Context, driver, dsn string) (*SCSStore, error) {
	conn, err := db.New(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := createTable(ctx, conn, driver); err != nil {
		_ = conn.Close()
		return nil, err
	}

	// Cleanup goroutines are disabled: records are long-lived and rewritten
	// on every change.
	var backend scs.Store
	switch driver {
	case db.MySQL:
		backend = mysqlstore.NewWithCleanupInterval(conn.DB, 0)
	case db.Postgres:
		backend = postgresstore.NewWithCleanupInterval(conn.DB, 0)
	default:
		backend = sqlite3store.NewWithCleanupInterval(conn.DB, 0)
	}
	return &SCSStore{backend: backend, closer: conn}, nil
}

func (s *SCSStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	b, found, err := s.backend.Find(keyPrefix + key)
	if err != nil {
		return "", false, fmt.Errorf("localstore: get %q: %w", key, err)
	}
	if !found {
		return "", false, nil
	}
	return string(b), true, nil
}

func (s *SCSStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.backend.Commit(keyPrefix+key, []byte(value), time.Now().Add(retention)); err != nil {
		return fmt.Errorf("localstore: set %q: %w", key, err)
	}
	return nil
}

func (s *SCSStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.backend.Delete(keyPrefix + key); err != nil {
		return fmt.Errorf("localstore: delete %q: %w", key, err)
	}
	return nil
}

// Close releases the database opened by Open. It is a no-op otherwise.
func (s *SCSStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// createTable creates the table layout each scs store adapter expects.
func createTable(ctx context.Context, conn *sqlx.DB, driver string) error {
	var stmts []string
	switch driver {
	case db.Postgres:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS sessions (
    token  TEXT PRIMARY KEY,
    data   BYTEA NOT NULL,
    expiry TIMESTAMPTZ NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry)`,
		}
	case db.MySQL:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS sessions (
    token  VARCHAR(43) PRIMARY KEY,
    data   BLOB NOT NULL,
    expiry TIMESTAMP(6) NOT NULL,
    INDEX sessions_expiry_idx (expiry)
)`,
		}
	default: // sqlite3
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS sessions (
    token  TEXT PRIMARY KEY,
    data   BLOB NOT NULL,
    expiry REAL NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry)`,
		}
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create sessions table: %w", err)
		}
	}
	return nil
}
