package db

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names accepted by db.driver and local.driver.
const (
	SQLite   = "sqlite3"
	MySQL    = "mysql"
	Postgres = "postgres"
)

// backend describes how DevHub talks to one database family.
type backend struct {
	sqlName string // database/sql registration
	dialect string // goose dialect
	dsn     func(string) (string, error)
	setup   []string
}

var backends = map[string]backend{
	SQLite: {
		// modernc/sqlite registers as "sqlite" (CGO-free)
		sqlName: "sqlite",
		dialect: "sqlite3",
		setup:   []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"},
	},
	MySQL: {
		sqlName: "mysql",
		dialect: "mysql",
		dsn:     mysqlDSN,
	},
	Postgres: {
		sqlName: "postgres",
		dialect: "postgres",
	},
}

func lookup(driver string) (backend, error) {
	b, ok := backends[driver]
	if !ok {
		return backend{}, fmt.Errorf("unsupported db driver %q: want %s, %s or %s", driver, SQLite, MySQL, Postgres)
	}
	return b, nil
}

// mysqlDSN forces parseTime so DATETIME and TIMESTAMP columns scan into
// time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// New opens a connection pool for driver and dsn and applies the backend's
// session settings.
func New(driver, dsn string) (*sqlx.DB, error) {
	b, err := lookup(driver)
	if err != nil {
		return nil, err
	}
	if b.dsn != nil {
		if dsn, err = b.dsn(dsn); err != nil {
			return nil, fmt.Errorf("parse %s dsn: %w", driver, err)
		}
	}

	conn, err := sqlx.Open(b.sqlName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	for _, stmt := range b.setup {
		if _, err := conn.Exec(stmt); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return conn, nil
}
