package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUser is returned when a seeded user collides with an existing id or username.
	ErrDuplicateUser = errors.New("user already exists")
)

// maxIDAttempts bounds the retry loop in insertWithNextID when two writers
// race for the same id.
const maxIDAttempts = 5

// Stores groups every collection store over one database.
type Stores struct {
	Users      *UserStore
	Developers *DeveloperStore
	Blogs      *BlogStore
	Comments   *CommentStore

	db *sqlx.DB
}

// New builds all collection stores over db.
func New(db *sqlx.DB) *Stores {
	return &Stores{
		Users:      NewUserStore(db),
		Developers: NewDeveloperStore(db),
		Blogs:      NewBlogStore(db),
		Comments:   NewCommentStore(db),
		db:         db,
	}
}

// BulkTx inserts records with their given ids inside one transaction.
type BulkTx struct {
	tx *sqlx.Tx
}

// Bulk runs fn in a transaction. Nothing fn wrote is kept unless it
// returns nil and the commit succeeds.
func (s *Stores) Bulk(ctx context.Context, fn func(*BulkTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&BulkTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// Empty reports whether every collection is empty.
func (b *BulkTx) Empty(ctx context.Context) (bool, error) {
	for _, table := range []string{"users", "developers", "blogs", "comments"} {
		var n int
		if err := b.tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table); err != nil {
			return false, fmt.Errorf("count %s: %w", table, err)
		}
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}

func (b *BulkTx) InsertUser(ctx context.Context, u *User) error { return insertUser(ctx, b.tx, u) }

func (b *BulkTx) InsertDeveloper(ctx context.Context, d *Developer) error {
	return insertDeveloper(ctx, b.tx, d)
}

func (b *BulkTx) InsertBlog(ctx context.Context, bl *Blog) error { return insertBlog(ctx, b.tx, bl) }

func (b *BulkTx) InsertComment(ctx context.Context, c *Comment) error {
	return insertComment(ctx, b.tx, c)
}

// insertWithNextID assigns id = MAX(id)+1 for table and runs insert with it,
// the way json-server numbers new records. A unique violation from a
// concurrent writer triggers a retry with a fresh id.
func insertWithNextID(ctx context.Context, db *sqlx.DB, table string, insert func(tx *sqlx.Tx, id int64) error) (int64, error) {
	for attempt := 0; ; attempt++ {
		id, err := tryInsert(ctx, db, table, insert)
		if err == nil {
			return id, nil
		}
		if !isUniqueConstraintError(err) || attempt+1 >= maxIDAttempts {
			return 0, err
		}
	}
}

func tryInsert(ctx context.Context, db *sqlx.DB, table string, insert func(tx *sqlx.Tx, id int64) error) (int64, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var maxID sql.NullInt64
	if err := tx.GetContext(ctx, &maxID, `SELECT MAX(id) FROM `+table); err != nil {
		return 0, fmt.Errorf("next %s id: %w", table, err)
	}
	id := maxID.Int64 + 1

	if err := insert(tx, id); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// requireAffected maps a zero-row UPDATE/DELETE to ErrNotFound.
func requireAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueConstraintError checks whether err indicates a unique constraint violation.
// Works across SQLite, PostgreSQL, and MySQL.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") || // PostgreSQL
		strings.Contains(msg, "duplicate entry") // MySQL
}

// JSONColumn stores a value as a JSON document in a single column.
type JSONColumn[T any] struct {
	V T
}

// Value encodes the column as a JSON string; PostgreSQL JSONB rejects a bytea parameter.
func (c JSONColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes a JSON document read as []byte or string.
func (c *JSONColumn[T]) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		var zero T
		c.V = zero
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("store: cannot scan %T into JSON column", src)
	}
	return json.Unmarshal(b, &c.V)
}
